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

func newMemberStore(t *testing.T) (*MemberStore, context.Context) {
	t.Helper()
	return NewMemberStore(dbtest.New(t, domain.Models()...)), context.Background()
}

func TestMemberStoreSaveAndFind(t *testing.T) {
	store, ctx := newMemberStore(t)

	saved, err := store.Save(ctx, domain.NewMember("memberA"))
	require.NoError(t, err)

	found, err := store.Find(ctx, saved.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, saved.ID, found.ID)
	assert.Equal(t, saved.Username, found.Username)

	missing, err := store.Find(ctx, 404)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemberStoreBasicCRUD(t *testing.T) {
	store, ctx := newMemberStore(t)

	member1, err := store.Save(ctx, domain.NewMember("member1"))
	require.NoError(t, err)
	member2, err := store.Save(ctx, domain.NewMember("member2"))
	require.NoError(t, err)

	found1, ok, err := store.FindByID(ctx, member1.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "member1", found1.Username)

	all, err := store.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)

	require.NoError(t, store.Delete(ctx, member1))
	require.NoError(t, store.Delete(ctx, member2))

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, ok, err = store.FindByID(ctx, member1.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemberStoreFindByUsernameAndAgeGreaterThan(t *testing.T) {
	store, ctx := newMemberStore(t)
	_, err := store.Save(ctx, domain.NewMemberWithAge("AAA", 10))
	require.NoError(t, err)
	_, err = store.Save(ctx, domain.NewMemberWithAge("AAA", 20))
	require.NoError(t, err)

	result, err := store.FindByUsernameAndAgeGreaterThan(ctx, "AAA", 15)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, 20, result[0].Age)
}

func TestMemberStorePaging(t *testing.T) {
	store, ctx := newMemberStore(t)
	for _, name := range []string{"member1", "member2", "member3", "member4", "member5"} {
		_, err := store.Save(ctx, domain.NewMemberWithAge(name, 10))
		require.NoError(t, err)
	}

	members, err := store.FindByPage(ctx, 10, 0, 3)
	require.NoError(t, err)
	total, err := store.TotalCount(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, []string{"member5", "member4", "member3"}, usernames(members))
	assert.EqualValues(t, 5, total)
}

func TestMemberStoreBulkAgePlus(t *testing.T) {
	store, ctx := newMemberStore(t)
	for i, age := range []int{10, 19, 20, 21, 40} {
		_, err := store.Save(ctx, domain.NewMemberWithAge("member"+string(rune('1'+i)), age))
		require.NoError(t, err)
	}

	count, err := store.BulkAgePlus(domain.WithAuditor(ctx, "batch"), 20)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	members, err := store.FindAll(ctx)
	require.NoError(t, err)
	ages := make([]int, 0, len(members))
	for _, m := range members {
		ages = append(ages, m.Age)
	}
	assert.Equal(t, []int{10, 19, 21, 22, 41}, ages)
	assert.Equal(t, "batch", members[4].LastModifiedBy)
}
