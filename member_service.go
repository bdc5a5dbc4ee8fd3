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

package datastudy

import (
	"context"
	"fmt"

	"github.com/tomoncle/datastudy/database"
	"github.com/tomoncle/datastudy/domain"
	"github.com/tomoncle/datastudy/repository"
	"github.com/tomoncle/datastudy/types"
	"github.com/uptrace/bun"
)

// MemberService groups member use cases that span several statements.
type MemberService struct {
	db *bun.DB
}

// NewMemberService binds the service to the global database.
func NewMemberService() *MemberService {
	return NewMemberServiceWithDB(database.GetDB())
}

func NewMemberServiceWithDB(db *bun.DB) *MemberService {
	return &MemberService{db: db}
}

func (s *MemberService) Members() repository.MemberRepository {
	return repository.NewMemberRepository(s.db)
}

// JoinTeam moves the member into the team named teamName, creating the team
// when it does not exist yet.
func (s *MemberService) JoinTeam(ctx context.Context, memberID int64, teamName string) (*domain.Member, error) {
	var member *domain.Member
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		members := repository.NewMemberRepository(tx)
		teams := repository.NewTeamRepository(tx)

		var err error
		if member, err = members.GetOne(ctx, memberID); err != nil {
			return err
		}

		found, err := teams.Query(ctx, "t.name = ?", teamName)
		if err != nil {
			return err
		}
		var team *domain.Team
		switch len(found) {
		case 0:
			team = domain.NewTeam(teamName)
			if err := teams.Save(ctx, team); err != nil {
				return err
			}
		case 1:
			team = found[0]
		default:
			return fmt.Errorf("team %q: %w", teamName, repository.ErrNonUniqueResult)
		}

		member.ChangeTeam(team)
		return members.Update(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// Rename changes the username of a member while holding its row lock.
func (s *MemberService) Rename(ctx context.Context, memberID int64, username string) (*domain.Member, error) {
	var member *domain.Member
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		members := repository.NewMemberRepository(tx)

		current, err := members.GetOne(ctx, memberID)
		if err != nil {
			return err
		}
		locked, err := members.FindLockByUsername(ctx, tx, current.Username)
		if err != nil {
			return err
		}
		// a concurrent rename between the two reads leaves the lock query empty
		for _, m := range locked {
			if m.ID == memberID {
				member = m
			}
		}
		if member == nil {
			return repository.ErrOptimisticLock
		}
		member.Username = username
		return members.Update(ctx, member)
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// AgeUp adds one year to every member aged age or older.
func (s *MemberService) AgeUp(ctx context.Context, age int) (int64, error) {
	return s.Members().BulkAgePlus(ctx, age)
}

// PageByAge returns members of the given age as DTOs, ordered by username descending.
func (s *MemberService) PageByAge(ctx context.Context, age int, page, size int) (*types.Page[domain.MemberDto], error) {
	members := s.Members()
	result, err := members.FindByAge(ctx, age, types.Of(page, size, types.By(types.DESC, "username")...))
	if err != nil {
		return nil, err
	}
	for _, m := range result.Content {
		if err := members.LoadTeam(ctx, m); err != nil {
			return nil, err
		}
	}
	return types.MapPage(result, domain.NewMemberDto), nil
}

func (s *MemberService) MemberDtos(ctx context.Context) ([]*domain.MemberDto, error) {
	return s.Members().FindMemberDto(ctx)
}
