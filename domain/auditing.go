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
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type auditorKey struct{}

// AuditorProvider resolves the auditor recorded in created_by/last_modified_by
// when the context does not carry one.
type AuditorProvider func(ctx context.Context) string

var (
	auditorMu       sync.RWMutex
	auditorProvider AuditorProvider = randomAuditor
	nowFunc                         = time.Now
)

func randomAuditor(context.Context) string { return uuid.NewString() }

// Now is the clock used for audit timestamps.
func Now() time.Time { return nowFunc() }

// SetAuditorProvider replaces the fallback auditor provider. A nil provider
// restores the default, which yields a random UUID per call.
func SetAuditorProvider(p AuditorProvider) {
	auditorMu.Lock()
	defer auditorMu.Unlock()
	if p == nil {
		p = randomAuditor
	}
	auditorProvider = p
}

// WithAuditor returns a context whose writes are attributed to auditor.
func WithAuditor(ctx context.Context, auditor string) context.Context {
	return context.WithValue(ctx, auditorKey{}, auditor)
}

// CurrentAuditor returns the auditor of ctx, falling back to the provider.
func CurrentAuditor(ctx context.Context) string {
	if a, ok := ctx.Value(auditorKey{}).(string); ok && a != "" {
		return a
	}
	auditorMu.RLock()
	p := auditorProvider
	auditorMu.RUnlock()
	return p(ctx)
}

// BaseTimeEntity carries creation and modification timestamps.
type BaseTimeEntity struct {
	CreatedDate      time.Time `bun:"created_date,nullzero,notnull,default:current_timestamp" json:"created_date"`
	LastModifiedDate time.Time `bun:"last_modified_date,nullzero,notnull,default:current_timestamp" json:"last_modified_date"`
}

var _ bun.BeforeAppendModelHook = (*BaseTimeEntity)(nil)

func (e *BaseTimeEntity) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	now := nowFunc()
	switch query.(type) {
	case *bun.InsertQuery:
		if e.CreatedDate.IsZero() {
			e.CreatedDate = now
		}
		e.LastModifiedDate = now
	case *bun.UpdateQuery:
		e.LastModifiedDate = now
	}
	return nil
}

// BaseEntity adds the auditor columns on top of BaseTimeEntity.
type BaseEntity struct {
	BaseTimeEntity
	CreatedBy      string `bun:"created_by" json:"created_by"`
	LastModifiedBy string `bun:"last_modified_by" json:"last_modified_by"`
}

var _ bun.BeforeAppendModelHook = (*BaseEntity)(nil)

func (e *BaseEntity) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	if err := e.BaseTimeEntity.BeforeAppendModel(ctx, query); err != nil {
		return err
	}
	switch query.(type) {
	case *bun.InsertQuery:
		auditor := CurrentAuditor(ctx)
		if e.CreatedBy == "" {
			e.CreatedBy = auditor
		}
		e.LastModifiedBy = auditor
	case *bun.UpdateQuery:
		e.LastModifiedBy = CurrentAuditor(ctx)
	}
	return nil
}
