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

// MemberStore is member persistence written directly against bun, without
// the generic repository. It backs the same queries as MemberRepository.
type MemberStore struct {
	db bun.IDB
}

func NewMemberStore(db bun.IDB) *MemberStore {
	return &MemberStore{db: db}
}

// Save inserts member and fills in its generated id.
func (s *MemberStore) Save(ctx context.Context, member *domain.Member) (*domain.Member, error) {
	if err := member.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.db.NewInsert().Model(member).Exec(ctx); err != nil {
		return nil, translateError(err)
	}
	return member, nil
}

func (s *MemberStore) Delete(ctx context.Context, member *domain.Member) error {
	_, err := s.db.NewDelete().Model(member).WherePK().Exec(ctx)
	return err
}

func (s *MemberStore) FindAll(ctx context.Context) ([]*domain.Member, error) {
	members := make([]*domain.Member, 0)
	err := s.db.NewRaw("SELECT * FROM members ORDER BY id ASC").Scan(ctx, &members)
	return members, err
}

func (s *MemberStore) FindByID(ctx context.Context, id int64) (*domain.Member, bool, error) {
	member, err := s.Find(ctx, id)
	if err != nil || member == nil {
		return nil, false, err
	}
	return member, true, nil
}

// Find returns nil without an error when no member has the id.
func (s *MemberStore) Find(ctx context.Context, id int64) (*domain.Member, error) {
	members := make([]*domain.Member, 0, 1)
	if err := s.db.NewRaw("SELECT * FROM members WHERE id = ?", id).Scan(ctx, &members); err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return nil, nil
	}
	return members[0], nil
}

func (s *MemberStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members").Scan(&count)
	return count, err
}

func (s *MemberStore) FindByUsernameAndAgeGreaterThan(ctx context.Context, username string, age int) ([]*domain.Member, error) {
	members := make([]*domain.Member, 0)
	err := s.db.NewRaw(
		"SELECT * FROM members WHERE username = ? AND age > ? ORDER BY id ASC",
		username, age,
	).Scan(ctx, &members)
	return members, err
}

// FindByPage returns members of the given age ordered by username descending.
func (s *MemberStore) FindByPage(ctx context.Context, age, offset, limit int) ([]*domain.Member, error) {
	members := make([]*domain.Member, 0, limit)
	err := s.db.NewRaw(
		"SELECT * FROM members WHERE age = ? ORDER BY username DESC LIMIT ? OFFSET ?",
		age, limit, offset,
	).Scan(ctx, &members)
	return members, err
}

func (s *MemberStore) TotalCount(ctx context.Context, age int) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM members WHERE age = ?", age).Scan(&count)
	return count, err
}

// BulkAgePlus increments the age of members aged age or older.
func (s *MemberStore) BulkAgePlus(ctx context.Context, age int) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE members SET age = age + 1, last_modified_date = ?, last_modified_by = ? WHERE age >= ?",
		domain.Now(), domain.CurrentAuditor(ctx), age,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
