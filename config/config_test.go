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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datastudy/database"
)

const sampleConfig = `
database:
  connection:
    type: postgres
    host: db.internal
    port: 5432
    username: study
    dbname: study
    max_open_conns: 20
    slow_query_time: 500ms
    query_log_format: color
  migrate:
    enable_migrate_on_startup: true
    enable_foreign_key: true
  init:
    auto_init_on_migration: true
    filepath: configs/sql
    environment: test
log:
  level: debug
  console_format: json
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	conn := cfg.Database.ConnectionConfig
	assert.Equal(t, database.TypePostgres, conn.Type)
	assert.Equal(t, "db.internal", conn.Host)
	assert.Equal(t, 5432, conn.Port)
	assert.Equal(t, 20, conn.MaxOpenConns)
	assert.Equal(t, 500*time.Millisecond, conn.SlowQueryTime)
	assert.Equal(t, database.QueryLogColor, conn.QueryLogFormat)
	// untouched keys keep their defaults
	assert.Equal(t, 10, conn.MaxIdleConns)

	assert.True(t, cfg.Database.DataMigrateConfig.EnableMigrateOnStartup)
	assert.True(t, cfg.Database.DataInitConfig.AutoInitOnMigration)
	assert.Equal(t, "test", cfg.Database.DataInitConfig.Environment)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.ConsoleFormat)
	assert.Same(t, &cfg.Database, cfg.ConfigLoader())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "override.internal")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DB_ENVIRONMENT", "prod")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "override.internal", cfg.Database.ConnectionConfig.Host)
	assert.Equal(t, 6543, cfg.Database.ConnectionConfig.Port)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "prod", cfg.Database.DataInitConfig.Environment)
}

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("DATASTUDY_CONFIG", "")
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, database.TypeSQLite, cfg.Database.ConnectionConfig.Type)
	assert.Equal(t, "datastudy", cfg.Database.ConnectionConfig.DBName)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "database: ["))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "database:\n  connection:\n    type: oracle\n"))
	assert.ErrorContains(t, err, "invalid database type")

	_, err = Load(writeConfig(t, "log:\n  level: loud\n"))
	assert.ErrorContains(t, err, "invalid log config")
}
