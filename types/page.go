/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

// DefaultPageSize is used when a request asks for a page size below one.
const DefaultPageSize = 10

// QueryFilter describes a WHERE clause schema and its argument values.
type QueryFilter struct {
	Schema string
	Args   []interface{}
}

// NewQueryFilter creates a new query filter with schema and args.
func NewQueryFilter(schema string, args ...interface{}) *QueryFilter {
	return &QueryFilter{schema, args}
}

// Order is a single sort property, e.g. "username DESC".
type Order struct {
	Property  string
	Direction Direction
}

// Sort is an ordered list of sort properties.
type Sort []Order

// By builds a Sort applying the same direction to every property.
func By(direction Direction, properties ...string) Sort {
	sort := make(Sort, 0, len(properties))
	for _, p := range properties {
		sort = append(sort, Order{Property: p, Direction: direction})
	}
	return sort
}

// Unsorted is the empty Sort.
func Unsorted() Sort { return Sort{} }

// And appends the orders of other after s.
func (s Sort) And(other Sort) Sort {
	out := make(Sort, 0, len(s)+len(other))
	out = append(out, s...)
	return append(out, other...)
}

func (s Sort) IsSorted() bool { return len(s) > 0 }

// PageRequest describes a zero-based page, optional filter and ordering.
type PageRequest struct {
	page     int
	pageSize int
	filter   *QueryFilter
	sort     Sort
}

// Of constructs a PageRequest for the zero-based page number.
func Of(page int, pageSize int, sort ...Order) *PageRequest {
	return NewPageRequest(page, pageSize, nil, sort)
}

// NewPageRequest constructs a PageRequest with filter and sort settings.
func NewPageRequest(page int, pageSize int, filter *QueryFilter, sort Sort) *PageRequest {
	return &PageRequest{page: page, pageSize: pageSize, filter: filter, sort: sort}
}

// NewPageRequestWithFilter constructs a PageRequest with a filter only.
func NewPageRequestWithFilter(page int, pageSize int, filter *QueryFilter) *PageRequest {
	return NewPageRequest(page, pageSize, filter, Unsorted())
}

func (p *PageRequest) GetPageSize() int {
	if p.pageSize < 1 {
		p.pageSize = DefaultPageSize
	}
	return p.pageSize
}

func (p *PageRequest) GetPage() int {
	if p.page < 0 {
		p.page = 0
	}
	return p.page
}

func (p *PageRequest) GetOffset() int {
	return p.GetPage() * p.GetPageSize()
}

func (p *PageRequest) GetFilter() *QueryFilter {
	return p.filter
}

func (p *PageRequest) GetSort() Sort {
	return p.sort
}

// WithFilter returns a copy of the request restricted by filter.
func (p *PageRequest) WithFilter(filter *QueryFilter) *PageRequest {
	return NewPageRequest(p.GetPage(), p.GetPageSize(), filter, p.sort)
}

// Next returns the request for the following page.
func (p *PageRequest) Next() *PageRequest {
	return NewPageRequest(p.GetPage()+1, p.GetPageSize(), p.filter, p.sort)
}

// Previous returns the request for the preceding page, or the first page.
func (p *PageRequest) Previous() *PageRequest {
	if p.GetPage() == 0 {
		return p.First()
	}
	return NewPageRequest(p.GetPage()-1, p.GetPageSize(), p.filter, p.sort)
}

// First returns the request for page zero.
func (p *PageRequest) First() *PageRequest {
	return NewPageRequest(0, p.GetPageSize(), p.filter, p.sort)
}

// Page holds one page of items along with the total number of matching rows.
type Page[T any] struct {
	Content       []*T
	Number        int
	Size          int
	TotalElements int64
	Sort          Sort
}

// NewPage constructs a page for the request; content may be nil.
func NewPage[T any](content []*T, request *PageRequest, total int64) *Page[T] {
	if content == nil {
		content = make([]*T, 0)
	}
	return &Page[T]{
		Content:       content,
		Number:        request.GetPage(),
		Size:          request.GetPageSize(),
		TotalElements: total,
		Sort:          request.GetSort(),
	}
}

func (p *Page[T]) TotalPages() int {
	if p.Size < 1 {
		return 1
	}
	return int((p.TotalElements + int64(p.Size) - 1) / int64(p.Size))
}

func (p *Page[T]) NumberOfElements() int { return len(p.Content) }

func (p *Page[T]) HasContent() bool { return len(p.Content) > 0 }

func (p *Page[T]) IsFirst() bool { return !p.HasPrevious() }

func (p *Page[T]) IsLast() bool { return !p.HasNext() }

func (p *Page[T]) HasNext() bool { return p.Number+1 < p.TotalPages() }

func (p *Page[T]) HasPrevious() bool { return p.Number > 0 }

// MapPage converts the content of a page keeping its metadata.
func MapPage[T any, R any](p *Page[T], fn func(*T) *R) *Page[R] {
	content := make([]*R, 0, len(p.Content))
	for _, item := range p.Content {
		content = append(content, fn(item))
	}
	return &Page[R]{
		Content:       content,
		Number:        p.Number,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		Sort:          p.Sort,
	}
}

// Slice is a page without a total count; HasNext is known by over-fetching one row.
type Slice[T any] struct {
	Content []*T
	Number  int
	Size    int
	hasNext bool
}

// NewSlice trims content fetched with size+1 rows and records whether more rows exist.
func NewSlice[T any](content []*T, request *PageRequest) *Slice[T] {
	size := request.GetPageSize()
	hasNext := len(content) > size
	if hasNext {
		content = content[:size]
	}
	if content == nil {
		content = make([]*T, 0)
	}
	return &Slice[T]{Content: content, Number: request.GetPage(), Size: size, hasNext: hasNext}
}

func (s *Slice[T]) HasNext() bool { return s.hasNext }

func (s *Slice[T]) HasPrevious() bool { return s.Number > 0 }

func (s *Slice[T]) IsFirst() bool { return !s.HasPrevious() }

func (s *Slice[T]) IsLast() bool { return !s.hasNext }
