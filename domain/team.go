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

// Team groups members; a member belongs to at most one team.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`
	BaseEntity

	ID      int64     `bun:"id,pk,autoincrement" json:"id"`
	Name    string    `bun:"name,notnull" json:"name" validate:"required,max=255"`
	Members []*Member `bun:"rel:has-many,join:id=team_id" json:"members,omitempty" validate:"-"`
}

func NewTeam(name string) *Team {
	return &Team{Name: name}
}

func (t *Team) Validate() error {
	if err := structValidator().Struct(t); err != nil {
		return fmt.Errorf("invalid team %q: %w", t.Name, err)
	}
	return nil
}

func (t *Team) String() string {
	return fmt.Sprintf("Team(id=%d, name=%s)", t.ID, t.Name)
}
