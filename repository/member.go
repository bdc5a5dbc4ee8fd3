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
	"database/sql"

	"github.com/tomoncle/datastudy/domain"
	"github.com/tomoncle/datastudy/types"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

// MemberRepository is the generic member repository plus member queries.
type MemberRepository interface {
	Repository[domain.Member]
	MemberCustomRepository

	// FindByUsernameAndAgeGreaterThan matches the username exactly and ages strictly above age.
	FindByUsernameAndAgeGreaterThan(ctx context.Context, username string, age int) ([]*domain.Member, error)
	// FindUser matches both username and age exactly.
	FindUser(ctx context.Context, username string, age int) ([]*domain.Member, error)
	FindUsernameList(ctx context.Context) ([]string, error)
	// FindMemberDto joins members with their team; members without a team are left out.
	FindMemberDto(ctx context.Context) ([]*domain.MemberDto, error)
	FindByNames(ctx context.Context, names []string) ([]*domain.Member, error)

	FindListByUsername(ctx context.Context, username string) ([]*domain.Member, error)
	// FindMemberByUsername returns ErrNotFound or ErrNonUniqueResult unless exactly one member matches.
	FindMemberByUsername(ctx context.Context, username string) (*domain.Member, error)
	FindOptionalByUsername(ctx context.Context, username string) (*domain.Member, bool, error)

	FindByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Page[domain.Member], error)
	FindSliceByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Slice[domain.Member], error)

	// BulkAgePlus increments the age of every member aged age or older in a
	// single statement and returns the number of rows changed. Members already
	// loaded keep their old age until read again.
	BulkAgePlus(ctx context.Context, age int) (int64, error)

	// FindAllWithTeam loads members and their team in one joined query.
	FindAllWithTeam(ctx context.Context) ([]*domain.Member, error)
	// LoadTeam fills member.Team from member.TeamID.
	LoadTeam(ctx context.Context, member *domain.Member) error

	// FindReadOnlyByUsername reads inside a read-only transaction where the database supports one.
	FindReadOnlyByUsername(ctx context.Context, username string) ([]*domain.Member, error)
	// FindLockByUsername selects FOR UPDATE on tx. SQLite has no row locks and
	// relies on its database-level write lock instead.
	FindLockByUsername(ctx context.Context, tx bun.IDB, username string) ([]*domain.Member, error)
}

type memberRepositoryImpl struct {
	*baseRepositoryImpl[domain.Member]
	MemberCustomRepository
}

func NewMemberRepository(db bun.IDB) MemberRepository {
	return &memberRepositoryImpl{
		baseRepositoryImpl:     newBaseRepository[domain.Member](db),
		MemberCustomRepository: NewMemberCustomRepository(db),
	}
}

func (r *memberRepositoryImpl) where(ctx context.Context, query string, args ...interface{}) ([]*domain.Member, error) {
	members := make([]*domain.Member, 0)
	err := r.db.NewSelect().
		Model(&members).
		Where(query, args...).
		Order("m.id ASC").
		Scan(ctx)
	return members, err
}

func (r *memberRepositoryImpl) FindByUsernameAndAgeGreaterThan(ctx context.Context, username string, age int) ([]*domain.Member, error) {
	return r.where(ctx, "m.username = ? AND m.age > ?", username, age)
}

func (r *memberRepositoryImpl) FindUser(ctx context.Context, username string, age int) ([]*domain.Member, error) {
	return r.where(ctx, "m.username = ? AND m.age = ?", username, age)
}

func (r *memberRepositoryImpl) FindUsernameList(ctx context.Context) ([]string, error) {
	names := make([]string, 0)
	err := r.db.NewSelect().
		Model((*domain.Member)(nil)).
		Column("username").
		Order("m.id ASC").
		Scan(ctx, &names)
	return names, err
}

func (r *memberRepositoryImpl) FindMemberDto(ctx context.Context) ([]*domain.MemberDto, error) {
	dtos := make([]*domain.MemberDto, 0)
	err := r.db.NewSelect().
		Model((*domain.Member)(nil)).
		ColumnExpr("m.id AS id").
		ColumnExpr("m.username AS username").
		ColumnExpr("t.name AS team_name").
		Join("JOIN teams AS t ON t.id = m.team_id").
		Order("m.id ASC").
		Scan(ctx, &dtos)
	return dtos, err
}

func (r *memberRepositoryImpl) FindByNames(ctx context.Context, names []string) ([]*domain.Member, error) {
	if len(names) == 0 {
		return make([]*domain.Member, 0), nil
	}
	return r.where(ctx, "m.username IN (?)", bun.In(names))
}

func (r *memberRepositoryImpl) FindListByUsername(ctx context.Context, username string) ([]*domain.Member, error) {
	return r.where(ctx, "m.username = ?", username)
}

func (r *memberRepositoryImpl) FindMemberByUsername(ctx context.Context, username string) (*domain.Member, error) {
	members := make([]*domain.Member, 0, 2)
	err := r.db.NewSelect().
		Model(&members).
		Where("m.username = ?", username).
		Limit(2).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	switch len(members) {
	case 0:
		return nil, ErrNotFound
	case 1:
		return members[0], nil
	default:
		return nil, ErrNonUniqueResult
	}
}

func (r *memberRepositoryImpl) FindOptionalByUsername(ctx context.Context, username string) (*domain.Member, bool, error) {
	return optional(r.FindMemberByUsername(ctx, username))
}

func (r *memberRepositoryImpl) FindByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Page[domain.Member], error) {
	return findPage[domain.Member](ctx, r.db, page, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("m.age = ?", age)
	})
}

func (r *memberRepositoryImpl) FindSliceByAge(ctx context.Context, age int, page *types.PageRequest) (*types.Slice[domain.Member], error) {
	return findSlice[domain.Member](ctx, r.db, page, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("m.age = ?", age)
	})
}

func (r *memberRepositoryImpl) BulkAgePlus(ctx context.Context, age int) (int64, error) {
	res, err := r.db.NewUpdate().
		Model((*domain.Member)(nil)).
		Set("age = age + 1").
		Set("last_modified_date = ?", domain.Now()).
		Set("last_modified_by = ?", domain.CurrentAuditor(ctx)).
		Where("age >= ?", age).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *memberRepositoryImpl) FindAllWithTeam(ctx context.Context) ([]*domain.Member, error) {
	members := make([]*domain.Member, 0)
	err := r.db.NewSelect().
		Model(&members).
		Relation("Team").
		Order("m.id ASC").
		Scan(ctx)
	return members, err
}

func (r *memberRepositoryImpl) LoadTeam(ctx context.Context, member *domain.Member) error {
	if member.TeamID == nil {
		member.Team = nil
		return nil
	}
	team := new(domain.Team)
	err := r.db.NewSelect().Model(team).Where("t.id = ?", *member.TeamID).Scan(ctx)
	if err != nil {
		return translateError(err)
	}
	member.Team = team
	return nil
}

func (r *memberRepositoryImpl) FindReadOnlyByUsername(ctx context.Context, username string) ([]*domain.Member, error) {
	if r.db.Dialect().Name() == dialect.SQLite {
		return r.FindListByUsername(ctx, username)
	}

	var members []*domain.Member
	err := r.db.RunInTx(ctx, &sql.TxOptions{ReadOnly: true}, func(ctx context.Context, tx bun.Tx) error {
		var err error
		members, err = NewMemberRepository(tx).FindListByUsername(ctx, username)
		return err
	})
	return members, err
}

func (r *memberRepositoryImpl) FindLockByUsername(ctx context.Context, tx bun.IDB, username string) ([]*domain.Member, error) {
	members := make([]*domain.Member, 0)
	query := tx.NewSelect().
		Model(&members).
		Where("m.username = ?", username).
		Order("m.id ASC")
	if tx.Dialect().Name() != dialect.SQLite {
		query = query.For("UPDATE")
	}
	err := query.Scan(ctx)
	return members, err
}
