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

// Package dbtest opens private in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datastudy/database"
	"github.com/uptrace/bun"
)

// Config returns a connection config for a private in-memory SQLite
// database. Queries are logged when BUNDEBUG is set.
func Config() *database.Config {
	cfg := database.DefaultConfig()
	cfg.ConnectionConfig.Type = database.TypeSQLite
	cfg.ConnectionConfig.DBName = ":memory:"
	cfg.ConnectionConfig.HealthCheckInterval = 0
	cfg.ConnectionConfig.EnableReconnect = false
	cfg.ConnectionConfig.EnableQueryLog = os.Getenv("BUNDEBUG") != ""
	cfg.ConnectionConfig.SlowQueryTime = 0
	return cfg
}

// NewManager connects a database manager to a fresh in-memory database and
// disconnects it when the test ends.
func NewManager(t testing.TB) database.AbstractDatabaseManager {
	t.Helper()

	manager := database.NewDatabaseManager(&Config().ConnectionConfig)
	require.NoError(t, manager.Connect(context.Background()))
	t.Cleanup(func() {
		_ = manager.Disconnect()
	})
	return manager
}

// New returns a fresh in-memory database holding the tables of models,
// created in the given order.
func New(t testing.TB, models ...interface{}) *bun.DB {
	t.Helper()

	db := NewManager(t).GetDB()
	CreateTables(t, db, models...)
	return db
}

// CreateTables creates the tables of models unless they exist.
func CreateTables(t testing.TB, db bun.IDB, models ...interface{}) {
	t.Helper()

	ctx := context.Background()
	for _, model := range models {
		_, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx)
		require.NoError(t, err)
	}
}

// Truncate removes all rows of the tables of models.
func Truncate(t testing.TB, db bun.IDB, models ...interface{}) {
	t.Helper()

	ctx := context.Background()
	for _, model := range models {
		_, err := db.NewDelete().Model(model).Where("1 = 1").Exec(ctx)
		require.NoError(t, err)
	}
}
