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

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

type row struct{ n int }

func rows(n int) []*row {
	out := make([]*row, n)
	for i := range out {
		out[i] = &row{n: i}
	}
	return out
}

func TestPageRequestDefaults(t *testing.T) {
	req := Of(-3, 0)
	assert.Equal(t, 0, req.GetPage())
	assert.Equal(t, DefaultPageSize, req.GetPageSize())
	assert.Equal(t, 0, req.GetOffset())
	assert.False(t, req.GetSort().IsSorted())

	req = Of(2, 3, By(DESC, "username")...)
	assert.Equal(t, 6, req.GetOffset())
	assert.Equal(t, Sort{{Property: "username", Direction: DESC}}, req.GetSort())
	assert.Equal(t, 3, req.Next().GetPage())
	assert.Equal(t, 1, req.Previous().GetPage())
	assert.Equal(t, 0, req.First().Previous().GetPage())
}

func TestPageMetadata(t *testing.T) {
	first := NewPage(rows(3), Of(0, 3), 5)
	assert.Equal(t, 3, first.NumberOfElements())
	assert.Equal(t, int64(5), first.TotalElements)
	assert.Equal(t, 0, first.Number)
	assert.Equal(t, 2, first.TotalPages())
	assert.True(t, first.IsFirst())
	assert.True(t, first.HasNext())
	assert.False(t, first.IsLast())

	last := NewPage(rows(2), Of(1, 3), 5)
	assert.True(t, last.IsLast())
	assert.True(t, last.HasPrevious())
	assert.False(t, last.HasNext())

	empty := NewPage[row](nil, Of(0, 3), 0)
	assert.NotNil(t, empty.Content)
	assert.False(t, empty.HasContent())
	assert.Equal(t, 0, empty.TotalPages())
	assert.True(t, empty.IsFirst())
	assert.True(t, empty.IsLast())
}

func TestMapPage(t *testing.T) {
	p := NewPage(rows(3), Of(0, 3, By(ASC, "id")...), 7)
	mapped := MapPage(p, func(r *row) *string {
		s := strconv.Itoa(r.n)
		return &s
	})
	assert.Equal(t, 3, mapped.NumberOfElements())
	assert.Equal(t, "2", *mapped.Content[2])
	assert.Equal(t, p.TotalElements, mapped.TotalElements)
	assert.Equal(t, p.TotalPages(), mapped.TotalPages())
	assert.Equal(t, p.Sort, mapped.Sort)
}

func TestSlice(t *testing.T) {
	s := NewSlice(rows(4), Of(0, 3))
	assert.Len(t, s.Content, 3)
	assert.True(t, s.HasNext())
	assert.True(t, s.IsFirst())

	s = NewSlice(rows(2), Of(1, 3))
	assert.Len(t, s.Content, 2)
	assert.True(t, s.IsLast())
	assert.True(t, s.HasPrevious())
}

func TestDirection(t *testing.T) {
	assert.Equal(t, DESC, ParseDirection(" Desc "))
	assert.Equal(t, ASC, ParseDirection("sideways"))
	assert.Equal(t, "DESC", DESC.String())
	assert.Equal(t, "descending", DESC.Desc())
	assert.Equal(t, 1, DESC.Number())

	bad := Direction(7)
	assert.False(t, bad.IsValid())
	assert.Equal(t, IllegalValue, bad.Number())
	assert.Equal(t, IllegalName, bad.Name())
	assert.Equal(t, IllegalDesc, bad.Desc())
}

func TestSortAnd(t *testing.T) {
	s := By(DESC, "age").And(By(ASC, "username", "id"))
	assert.Len(t, s, 3)
	assert.Equal(t, "username", s[1].Property)
	assert.Equal(t, ASC, s[2].Direction)
}
