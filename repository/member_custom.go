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

// MemberCustomRepository holds member queries written as raw SQL rather than
// with the query builder. MemberRepository embeds it.
type MemberCustomRepository interface {
	FindMemberCustom(ctx context.Context) ([]*domain.Member, error)
}

type memberCustomRepositoryImpl struct {
	db bun.IDB
}

func NewMemberCustomRepository(db bun.IDB) MemberCustomRepository {
	return &memberCustomRepositoryImpl{db: db}
}

func (r *memberCustomRepositoryImpl) FindMemberCustom(ctx context.Context) ([]*domain.Member, error) {
	members := make([]*domain.Member, 0)
	err := r.db.NewRaw("SELECT * FROM ? ORDER BY id ASC", bun.Ident("members")).Scan(ctx, &members)
	return members, err
}
