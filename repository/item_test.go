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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datastudy/database/dbtest"
	"github.com/tomoncle/datastudy/domain"
)

func TestItemRepositorySave(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t, domain.Models()...)
	items := NewItemRepository(db)

	item := domain.NewItem("A")
	assert.True(t, item.IsNew())
	require.NoError(t, items.Save(ctx, item))
	assert.False(t, item.IsNew())

	found, err := items.GetOne(ctx, "A")
	require.NoError(t, err)
	assert.False(t, found.IsNew())
	assert.Zero(t, found.Version)

	require.NoError(t, items.Save(ctx, found))
	assert.EqualValues(t, 1, found.Version)

	reloaded, err := items.GetOne(ctx, "A")
	require.NoError(t, err)
	assert.EqualValues(t, 1, reloaded.Version)
}

func TestItemRepositoryOptimisticLock(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t, domain.Models()...)
	items := NewItemRepository(db)

	require.NoError(t, items.Save(ctx, domain.NewItem("A")))

	first, err := items.GetOne(ctx, "A")
	require.NoError(t, err)
	second, err := items.GetOne(ctx, "A")
	require.NoError(t, err)

	require.NoError(t, items.Save(ctx, first))
	assert.ErrorIs(t, items.Save(ctx, second), ErrOptimisticLock)
	assert.Zero(t, second.Version)
}

func TestItemRepositoryInsertTwice(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t, domain.Models()...)
	items := NewItemRepository(db)

	require.NoError(t, items.Save(ctx, domain.NewItem("A")))
	assert.ErrorIs(t, items.Save(ctx, domain.NewItem("A")), ErrDuplicate)

	exists, err := items.ExistsByID(ctx, "A")
	require.NoError(t, err)
	assert.True(t, exists)
}
