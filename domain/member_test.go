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
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChangeTeam(t *testing.T) {
	teamA := &Team{ID: 1, Name: "teamA"}
	teamB := &Team{ID: 2, Name: "teamB"}

	m := NewMemberWithTeam("member1", 10, teamA)
	assert.Equal(t, int64(1), *m.TeamID)
	assert.Same(t, teamA, m.Team)
	assert.Len(t, teamA.Members, 1)

	m.ChangeTeam(teamA)
	assert.Len(t, teamA.Members, 1, "joining the same team twice is a no-op")

	m.ChangeTeam(teamB)
	assert.Equal(t, int64(2), *m.TeamID)
	assert.Empty(t, teamA.Members)
	assert.Equal(t, []*Member{m}, teamB.Members)

	m.ChangeTeam(nil)
	assert.Nil(t, m.TeamID)
	assert.Nil(t, m.Team)
}

func TestMemberValidate(t *testing.T) {
	assert.NoError(t, NewMemberWithAge("member1", 10).Validate())
	assert.Error(t, NewMember("").Validate())
	assert.Error(t, NewMemberWithAge("member1", -1).Validate())
	assert.Error(t, NewTeam("").Validate())
	assert.NoError(t, NewTeam("teamA").Validate())
}

func TestMemberDto(t *testing.T) {
	team := &Team{ID: 3, Name: "teamA"}
	m := NewMemberWithTeam("member1", 10, team)
	m.ID = 7

	dto := NewMemberDto(m)
	assert.Equal(t, MemberDto{ID: 7, Username: "member1", TeamName: "teamA"}, *dto)
	assert.Empty(t, NewMemberDto(NewMember("solo")).TeamName)
}
