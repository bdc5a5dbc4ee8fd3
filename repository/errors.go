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
	"database/sql"
	"errors"
	"fmt"

	"github.com/tomoncle/datastudy/database"
)

var (
	// ErrNotFound is returned when a single entity was required but none matched.
	ErrNotFound = errors.New("entity not found")
	// ErrNonUniqueResult is returned when a single entity was required but several matched.
	ErrNonUniqueResult = errors.New("query did not return a unique result")
	// ErrOptimisticLock is returned when a versioned update matched no row.
	ErrOptimisticLock = errors.New("entity was updated or deleted by another transaction")
	// ErrDuplicate is returned when an insert violates a unique key.
	ErrDuplicate = errors.New("duplicate key")
)

// translateError maps driver errors to the repository sentinel errors,
// keeping the original error in the chain.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	if database.IsDuplicateKey(err) {
		return fmt.Errorf("%w: %w", ErrDuplicate, err)
	}
	return err
}
