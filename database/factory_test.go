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

package database_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datastudy/database"
	"github.com/tomoncle/datastudy/database/dbtest"
	"github.com/tomoncle/datastudy/domain"
)

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("DB_TYPE", database.TypePostgres)
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_MAX_OPEN_CONNS", "not-a-number")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90")
	t.Setenv("DB_ENABLE_QUERY_LOG", "true")

	cfg := database.DefaultConnectionConfig()
	database.ApplyEnvOverrides(cfg)

	assert.Equal(t, database.TypePostgres, cfg.Type)
	assert.Equal(t, "db.internal", cfg.Host)
	assert.Equal(t, 5433, cfg.Port)
	assert.Equal(t, 100, cfg.MaxOpenConns)
	assert.Equal(t, 90*time.Second, cfg.ConnMaxLifetime)
	assert.True(t, cfg.EnableQueryLog)
}

func TestCreateFromConfigRejectsUnknownType(t *testing.T) {
	cfg := dbtest.Config()
	cfg.ConnectionConfig.Type = "oracle"
	_, err := database.NewDatabaseFactory().CreateFromConfig(cfg)
	assert.ErrorContains(t, err, "unsupported database type")

	_, err = database.NewDatabaseFactory().CreateFromConfig(nil)
	assert.Error(t, err)
}

func TestInitDB(t *testing.T) {
	ctx := context.Background()
	cfg := dbtest.Config()
	cfg.DataMigrateConfig.EnableMigrateOnStartup = true

	db, err := database.InitDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })
	assert.Same(t, db, database.GetDB())

	_, err = db.NewInsert().Model(domain.NewTeam("teamA")).Exec(ctx)
	require.NoError(t, err)

	status := database.GetHealthStatus(ctx)
	assert.True(t, status.Healthy)
	assert.True(t, status.Connected)
	assert.Equal(t, 1, status.MaxOpenConns)
	assert.Equal(t, 1, database.GetDatabaseStats().MaxOpenConns)

	require.NoError(t, database.CloseDB())
	assert.Nil(t, database.GetDB())
	assert.False(t, database.GetHealthStatus(ctx).Healthy)
	assert.Error(t, database.RunMigrations(ctx))
}

func TestInitDBSeedsWithoutMigration(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeSQL(t, root, "common/001_marker.sql", `CREATE TABLE seed_marker (id INTEGER PRIMARY KEY);
INSERT INTO seed_marker (id) VALUES (1);
`)
	cfg := dbtest.Config()
	cfg.DataMigrateConfig.EnableMigrateOnStartup = false
	cfg.DataInitConfig.AutoInitOnStartup = true
	cfg.DataInitConfig.AutoInitOnMigration = true
	cfg.DataInitConfig.Filepath = root

	db, err := database.InitDB(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.CloseDB() })

	var n int
	require.NoError(t, db.NewRaw("SELECT count(*) FROM seed_marker").Scan(ctx, &n))
	assert.Equal(t, 1, n)
}

func TestInitDBClosesConnectionOnFailure(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	writeSQL(t, root, "common/001_broken.sql", "INSERT INTO missing_table (id) VALUES (1);\n")
	cfg := dbtest.Config()
	// a shared in-memory database lives only while one of its connections is open
	cfg.ConnectionConfig.DBName = "file:initdb_failure?mode=memory&cache=shared"
	cfg.DataMigrateConfig.EnableMigrateOnStartup = true
	cfg.DataInitConfig.AutoInitOnStartup = true
	cfg.DataInitConfig.Filepath = root

	db, err := database.InitDB(ctx, cfg)
	require.ErrorContains(t, err, "failed to initialize database")
	assert.Nil(t, db)
	assert.Nil(t, database.GetDB())

	manager := database.NewDatabaseManager(&cfg.ConnectionConfig)
	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })
	_, err = manager.GetDB().NewSelect().Model((*domain.Team)(nil)).Count(ctx)
	require.Error(t, err)
	is, kind := database.IsSqlError(err)
	assert.True(t, is)
	assert.Equal(t, database.NoTableErr, kind)
}

func TestInitDBRequiresConfig(t *testing.T) {
	_, err := database.InitDB(context.Background(), nil)
	assert.Error(t, err)
}

func TestQueryHook(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t, (*domain.Team)(nil))

	var failed bytes.Buffer
	db.AddQueryHook(database.NewQueryHook(database.WithQueryHookWriter(&failed)))
	var verbose bytes.Buffer
	db.AddQueryHook(database.NewQueryHook(database.WithQueryHookWriter(&verbose), database.WithQueryHookVerbose(true)))

	_, err := db.NewSelect().Model((*domain.Team)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Empty(t, failed.String())
	assert.Contains(t, verbose.String(), "SELECT count(*)")

	_, err = db.ExecContext(ctx, "SELECT * FROM missing_table")
	require.Error(t, err)
	assert.Contains(t, failed.String(), "missing_table")

	database.EnableBunSqlSilent(true)
	defer database.EnableBunSqlSilent(false)
	verbose.Reset()
	_, err = db.NewSelect().Model((*domain.Team)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Empty(t, verbose.String())
}

func TestQueryHookEnv(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t)

	var out bytes.Buffer
	db.AddQueryHook(database.NewQueryHook(database.WithQueryHookWriter(&out), database.WithQueryHookEnv("DATASTUDY_QUERY_LOG")))

	t.Setenv("DATASTUDY_QUERY_LOG", "0")
	_, err := db.ExecContext(ctx, "SELECT * FROM missing_table")
	require.Error(t, err)
	assert.Empty(t, out.String())

	t.Setenv("DATASTUDY_QUERY_LOG", "2")
	_, err = db.ExecContext(ctx, "SELECT 1")
	require.NoError(t, err)
	assert.Contains(t, out.String(), "SELECT 1")
}
