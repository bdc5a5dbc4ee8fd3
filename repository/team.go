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

// TeamRepository is the generic repository for teams plus relation loading.
type TeamRepository interface {
	Repository[domain.Team]
	// FindWithMembers returns the team with Members loaded in id order.
	FindWithMembers(ctx context.Context, id int64) (*domain.Team, error)
}

type teamRepositoryImpl struct {
	*baseRepositoryImpl[domain.Team]
}

func NewTeamRepository(db bun.IDB) TeamRepository {
	return &teamRepositoryImpl{baseRepositoryImpl: newBaseRepository[domain.Team](db)}
}

func (r *teamRepositoryImpl) FindWithMembers(ctx context.Context, id int64) (*domain.Team, error) {
	team := new(domain.Team)
	err := r.db.NewSelect().
		Model(team).
		Relation("Members", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("id ASC")
		}).
		Where("t.id = ?", id).
		Scan(ctx)
	if err != nil {
		return nil, translateError(err)
	}
	for _, m := range team.Members {
		m.Team = team
	}
	return team, nil
}
