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
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Item uses a caller-assigned identifier, so whether it still has to be
// inserted is decided by CreatedDate rather than by a zero id.
type Item struct {
	bun.BaseModel `bun:"table:items,alias:i"`

	ID          string    `bun:"id,pk,type:varchar(64)" json:"id"`
	Version     int64     `bun:"version,notnull,default:0" json:"version"`
	CreatedDate time.Time `bun:"created_date,nullzero" json:"created_date"`
}

var _ bun.BeforeAppendModelHook = (*Item)(nil)

func NewItem(id string) *Item {
	return &Item{ID: id}
}

// IsNew reports whether the item has never been inserted.
func (i *Item) IsNew() bool {
	return i.CreatedDate.IsZero()
}

func (i *Item) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if _, ok := query.(*bun.InsertQuery); ok && i.CreatedDate.IsZero() {
		i.CreatedDate = nowFunc()
	}
	return nil
}
