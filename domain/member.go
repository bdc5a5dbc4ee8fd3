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

package domain

import (
	"fmt"

	"github.com/uptrace/bun"
)

// Member is a user who may belong to a Team. The team is only populated when
// it is explicitly loaded; TeamID is the source of truth for the association.
type Member struct {
	bun.BaseModel `bun:"table:members,alias:m"`
	BaseEntity

	ID       int64  `bun:"id,pk,autoincrement" json:"id"`
	Username string `bun:"username,notnull" json:"username" validate:"required,max=64"`
	Age      int    `bun:"age,notnull" json:"age" validate:"gte=0"`
	TeamID   *int64 `bun:"team_id" json:"team_id,omitempty"`
	Team     *Team  `bun:"rel:belongs-to,join:team_id=id" json:"team,omitempty" validate:"-"`
}

func NewMember(username string) *Member {
	return &Member{Username: username}
}

func NewMemberWithAge(username string, age int) *Member {
	return &Member{Username: username, Age: age}
}

func NewMemberWithTeam(username string, age int, team *Team) *Member {
	m := NewMemberWithAge(username, age)
	if team != nil {
		m.ChangeTeam(team)
	}
	return m
}

// ChangeTeam moves the member to team and keeps team.Members in sync.
// The team must already be persisted for TeamID to be meaningful.
func (m *Member) ChangeTeam(team *Team) {
	if m.Team != nil && m.Team != team {
		m.Team.Members = removeMember(m.Team.Members, m)
	}
	m.Team = team
	if team == nil {
		m.TeamID = nil
		return
	}
	id := team.ID
	m.TeamID = &id
	for _, existing := range team.Members {
		if existing == m {
			return
		}
	}
	team.Members = append(team.Members, m)
}

func removeMember(members []*Member, target *Member) []*Member {
	out := members[:0]
	for _, m := range members {
		if m != target {
			out = append(out, m)
		}
	}
	return out
}

func (m *Member) Validate() error {
	if err := structValidator().Struct(m); err != nil {
		return fmt.Errorf("invalid member %q: %w", m.Username, err)
	}
	return nil
}

func (m *Member) String() string {
	return fmt.Sprintf("Member(id=%d, username=%s, age=%d)", m.ID, m.Username, m.Age)
}

// MemberDto is the member/team projection returned by join queries.
type MemberDto struct {
	ID       int64  `bun:"id" json:"id"`
	Username string `bun:"username" json:"username"`
	TeamName string `bun:"team_name" json:"team_name"`
}

func NewMemberDto(m *Member) *MemberDto {
	dto := &MemberDto{ID: m.ID, Username: m.Username}
	if m.Team != nil {
		dto.TeamName = m.Team.Name
	}
	return dto
}
