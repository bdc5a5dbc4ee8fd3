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

package repository

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/tomoncle/datastudy/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/feature"
	"github.com/uptrace/bun/schema"
)

type baseRepositoryImpl[T any] struct {
	db bun.IDB
}

// NewRepository returns a generic repository backed by db, which may be a
// *bun.DB or a bun.Tx. Entities are addressed by their "id" column.
func NewRepository[T any](db bun.IDB) Repository[T] {
	return newBaseRepository[T](db)
}

func newBaseRepository[T any](db bun.IDB) *baseRepositoryImpl[T] {
	return &baseRepositoryImpl[T]{db: db}
}

func (r *baseRepositoryImpl[T]) DB() bun.IDB { return r.db }

func (r *baseRepositoryImpl[T]) Dialect() schema.Dialect { return r.db.Dialect() }

func (r *baseRepositoryImpl[T]) NewSelect() *bun.SelectQuery { return r.db.NewSelect() }

func (r *baseRepositoryImpl[T]) NewInsert() *bun.InsertQuery { return r.db.NewInsert() }

func (r *baseRepositoryImpl[T]) NewUpdate() *bun.UpdateQuery { return r.db.NewUpdate() }

func (r *baseRepositoryImpl[T]) NewDelete() *bun.DeleteQuery { return r.db.NewDelete() }

func (r *baseRepositoryImpl[T]) GetOne(ctx context.Context, id any) (*T, error) {
	entity := new(T)
	err := r.db.NewSelect().Model(entity).Where("?TableAlias.id = ?", id).Scan(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	return entity, nil
}

func (r *baseRepositoryImpl[T]) FindByID(ctx context.Context, id any) (*T, bool, error) {
	return optional(r.GetOne(ctx, id))
}

func (r *baseRepositoryImpl[T]) GetAll(ctx context.Context) ([]*T, error) {
	entities := make([]*T, 0)
	err := r.db.NewSelect().Model(&entities).Order("id ASC").Scan(ctx)
	return entities, err
}

func (r *baseRepositoryImpl[T]) List(ctx context.Context, filter *types.QueryFilter) ([]*T, error) {
	entities := make([]*T, 0)
	query := r.db.NewSelect().Model(&entities)
	if filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	if err := query.Scan(ctx); err != nil {
		return nil, err
	}
	return entities, nil
}

func (r *baseRepositoryImpl[T]) Query(ctx context.Context, query string, args ...interface{}) ([]*T, error) {
	return r.List(ctx, types.NewQueryFilter(query, args...))
}

func (r *baseRepositoryImpl[T]) Count(ctx context.Context) (int64, error) {
	n, err := r.db.NewSelect().Model((*T)(nil)).Count(ctx)
	return int64(n), err
}

func (r *baseRepositoryImpl[T]) ExistsByID(ctx context.Context, id any) (bool, error) {
	return r.db.NewSelect().Model((*T)(nil)).Where("?TableAlias.id = ?", id).Exists(ctx)
}

func (r *baseRepositoryImpl[T]) Page(ctx context.Context, pageRequest *types.PageRequest) (*types.Page[T], error) {
	return findPage[T](ctx, r.db, pageRequest, nil)
}

func (r *baseRepositoryImpl[T]) Slice(ctx context.Context, pageRequest *types.PageRequest) (*types.Slice[T], error) {
	return findSlice[T](ctx, r.db, pageRequest, nil)
}

func (r *baseRepositoryImpl[T]) Save(ctx context.Context, entity ...*T) error {
	return r.insert(ctx, r.db, entity)
}

func (r *baseRepositoryImpl[T]) Create(ctx context.Context, entity ...*T) error {
	return r.insert(ctx, r.db, entity)
}

func (r *baseRepositoryImpl[T]) Upsert(ctx context.Context, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, r.db, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) Update(ctx context.Context, entity *T) error {
	return r.update(ctx, r.db, entity)
}

func (r *baseRepositoryImpl[T]) Delete(ctx context.Context, id any) error {
	return r.delete(ctx, r.db, id)
}

func (r *baseRepositoryImpl[T]) DeleteEntity(ctx context.Context, entity *T) error {
	_, err := r.db.NewDelete().Model(entity).WherePK().Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) CreateWithTx(ctx context.Context, tx bun.IDB, entity ...*T) error {
	return r.insert(ctx, tx, entity)
}

func (r *baseRepositoryImpl[T]) UpsertWithTx(ctx context.Context, tx bun.IDB, fields []string, duplicateKeys []string, entity ...*T) error {
	return r.multipleUpsert(ctx, tx, fields, duplicateKeys, entity...)
}

func (r *baseRepositoryImpl[T]) UpdateWithTx(ctx context.Context, tx bun.IDB, entity *T) error {
	return r.update(ctx, tx, entity)
}

func (r *baseRepositoryImpl[T]) DeleteWithTx(ctx context.Context, tx bun.IDB, id any) error {
	return r.delete(ctx, tx, id)
}

func (r *baseRepositoryImpl[T]) insert(ctx context.Context, db bun.IDB, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	if err := validateEntities(entities); err != nil {
		return err
	}
	_, err := db.NewInsert().Model(&entities).Exec(ctx)
	return translateError(err)
}

func (r *baseRepositoryImpl[T]) update(ctx context.Context, db bun.IDB, entity *T) error {
	if err := validateEntities([]*T{entity}); err != nil {
		return err
	}
	res, err := updateByPK(db, entity).Exec(ctx)
	if err != nil {
		return translateError(err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *baseRepositoryImpl[T]) delete(ctx context.Context, db bun.IDB, id any) error {
	_, err := db.NewDelete().Model((*T)(nil)).Where("?TableAlias.id = ?", id).Exec(ctx)
	return err
}

func (r *baseRepositoryImpl[T]) multipleUpsert(ctx context.Context, db bun.IDB, fields []string, duplicateKeys []string, entity ...*T) error {
	if len(fields) == 0 {
		return fmt.Errorf("fields cannot be empty")
	}
	if len(entity) == 0 {
		return nil
	}
	entities := make([]*T, len(entity))
	copy(entities, entity)
	if err := validateEntities(entities); err != nil {
		return err
	}

	features := db.Dialect().Features()
	switch {
	case features.Has(feature.InsertOnConflict):
		return r.upsertOnConflict(ctx, db, fields, duplicateKeys, entities)
	case features.Has(feature.InsertOnDuplicateKey):
		return r.upsertOnDuplicateKey(ctx, db, fields, entities)
	default:
		return r.upsertFallback(ctx, db, entities)
	}
}

// upsertOnDuplicateKey is the MySQL form; the conflicting key is implied by the table's unique indexes.
func (r *baseRepositoryImpl[T]) upsertOnDuplicateKey(ctx context.Context, db bun.IDB, fields []string, entities []*T) error {
	query := db.NewInsert().Model(&entities).On("DUPLICATE KEY UPDATE")
	for _, field := range fields {
		query = query.Set("? = VALUES(?)", bun.Ident(field), bun.Ident(field))
	}
	_, err := query.Exec(ctx)
	return translateError(err)
}

// upsertOnConflict is the PostgreSQL and SQLite form.
func (r *baseRepositoryImpl[T]) upsertOnConflict(ctx context.Context, db bun.IDB, fields []string, duplicateKeys []string, entities []*T) error {
	if len(duplicateKeys) == 0 {
		duplicateKeys = []string{"id"}
	}
	keys := make([]schema.Ident, 0, len(duplicateKeys))
	for _, key := range duplicateKeys {
		keys = append(keys, bun.Ident(key))
	}
	query := db.NewInsert().Model(&entities).On("CONFLICT (?) DO UPDATE", bun.In(keys))
	for _, field := range fields {
		query = query.Set("? = EXCLUDED.?", bun.Ident(field), bun.Ident(field))
	}
	_, err := query.Exec(ctx)
	return translateError(err)
}

func (r *baseRepositoryImpl[T]) upsertFallback(ctx context.Context, db bun.IDB, entities []*T) error {
	for _, entity := range entities {
		_, err := db.NewInsert().Model(entity).Exec(ctx)
		if err == nil {
			continue
		}
		if _, updateErr := updateByPK(db, entity).Exec(ctx); updateErr != nil {
			return fmt.Errorf("upsert failed for entity: insert error: %v, update error: %w", err, updateErr)
		}
	}
	return nil
}

// createdColumns are written by INSERT only.
var createdColumns = []string{"created_date", "created_by"}

// updateByPK updates every column of entity except the created audit columns,
// so a detached entity carrying only its id keeps its creation record.
func updateByPK[T any](db bun.IDB, entity *T) *bun.UpdateQuery {
	query := db.NewUpdate().Model(entity).WherePK()
	table := db.Dialect().Tables().Get(reflect.TypeOf(entity).Elem())
	for _, column := range createdColumns {
		if table.HasField(column) {
			query = query.ExcludeColumn(column)
		}
	}
	return query
}

func validateEntities[T any](entities []*T) error {
	for _, entity := range entities {
		if v, ok := any(entity).(interface{ Validate() error }); ok {
			if err := v.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}

// optional turns ErrNotFound into an absent result.
func optional[T any](entity *T, err error) (*T, bool, error) {
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return entity, true, nil
}

// applySort appends ORDER BY terms; properties are quoted as identifiers.
func applySort(query *bun.SelectQuery, sort types.Sort) *bun.SelectQuery {
	for _, order := range sort {
		if order.Direction == types.DESC {
			query = query.OrderExpr("? DESC", bun.Ident(order.Property))
		} else {
			query = query.OrderExpr("? ASC", bun.Ident(order.Property))
		}
	}
	return query
}

// findPage counts the rows matched by where and the request filter, then
// loads the requested page. An empty table skips the content query.
func findPage[T any](ctx context.Context, db bun.IDB, req *types.PageRequest,
	where func(*bun.SelectQuery) *bun.SelectQuery) (*types.Page[T], error) {
	if req == nil {
		req = types.Of(0, types.DefaultPageSize)
	}
	entities := make([]*T, 0, req.GetPageSize())
	query := pageQuery(db.NewSelect().Model(&entities), req, where)

	total, err := query.Count(ctx)
	if err != nil {
		return nil, err
	}
	if total == 0 {
		return types.NewPage[T](nil, req, 0), nil
	}
	err = applySort(query, req.GetSort()).
		Offset(req.GetOffset()).
		Limit(req.GetPageSize()).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return types.NewPage(entities, req, int64(total)), nil
}

// findSlice loads one row more than the page size to learn whether a next
// page exists, without a count query.
func findSlice[T any](ctx context.Context, db bun.IDB, req *types.PageRequest,
	where func(*bun.SelectQuery) *bun.SelectQuery) (*types.Slice[T], error) {
	if req == nil {
		req = types.Of(0, types.DefaultPageSize)
	}
	entities := make([]*T, 0, req.GetPageSize()+1)
	query := pageQuery(db.NewSelect().Model(&entities), req, where)
	err := applySort(query, req.GetSort()).
		Offset(req.GetOffset()).
		Limit(req.GetPageSize() + 1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return types.NewSlice(entities, req), nil
}

func pageQuery(query *bun.SelectQuery, req *types.PageRequest,
	where func(*bun.SelectQuery) *bun.SelectQuery) *bun.SelectQuery {
	if where != nil {
		query = where(query)
	}
	if filter := req.GetFilter(); filter != nil {
		query = query.Where(filter.Schema, filter.Args...)
	}
	return query
}
