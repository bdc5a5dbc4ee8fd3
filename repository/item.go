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

	"github.com/tomoncle/datastudy/domain"
	"github.com/uptrace/bun"
)

// ItemRepository stores items whose id is assigned by the caller. Save
// inserts items that are new and updates the others guarded by their
// version; a stale version yields ErrOptimisticLock.
type ItemRepository interface {
	Repository[domain.Item]
}

type itemRepositoryImpl struct {
	*baseRepositoryImpl[domain.Item]
}

func NewItemRepository(db bun.IDB) ItemRepository {
	return &itemRepositoryImpl{baseRepositoryImpl: newBaseRepository[domain.Item](db)}
}

func (r *itemRepositoryImpl) Save(ctx context.Context, items ...*domain.Item) error {
	for _, item := range items {
		if err := r.save(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

func (r *itemRepositoryImpl) save(ctx context.Context, item *domain.Item) error {
	if item.IsNew() {
		return r.insert(ctx, r.db, []*domain.Item{item})
	}

	res, err := r.db.NewUpdate().
		Model(item).
		Set("version = ?", item.Version+1).
		WherePK().
		Where("version = ?", item.Version).
		Exec(ctx)
	if err != nil {
		return translateError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrOptimisticLock
	}
	item.Version++
	return nil
}
