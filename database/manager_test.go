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
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datastudy/database"
)

func fileSQLiteConfig(t *testing.T) *database.ConnectionConfig {
	cfg := database.DefaultConnectionConfig()
	cfg.Type = database.TypeSQLite
	cfg.DBName = filepath.Join(t.TempDir(), "manager")
	cfg.ConnectTimeout = time.Second
	return cfg
}

func TestManagerRecoversFromRepeatedOutages(t *testing.T) {
	ctx := context.Background()
	cfg := fileSQLiteConfig(t)
	cfg.HealthCheckInterval = 20 * time.Millisecond
	cfg.EnableReconnect = true
	cfg.ReconnectInterval = time.Millisecond
	cfg.MaxReconnectTries = 3

	manager := database.NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })

	for i := 0; i < 2; i++ {
		require.NoError(t, manager.GetSQLDB().Close())
		require.Eventually(t, func() bool {
			return manager.Ping(ctx) == nil
		}, 2*time.Second, 10*time.Millisecond, "outage %d was not recovered", i+1)
	}
}

func TestManagerConnectAfterDisconnect(t *testing.T) {
	ctx := context.Background()
	cfg := fileSQLiteConfig(t)
	cfg.HealthCheckInterval = 20 * time.Millisecond
	cfg.EnableReconnect = true
	cfg.ReconnectInterval = time.Millisecond
	cfg.MaxReconnectTries = 3

	manager := database.NewDatabaseManager(cfg)
	require.NoError(t, manager.Connect(ctx))
	require.NoError(t, manager.Disconnect())
	assert.Error(t, manager.Ping(ctx))
	assert.Nil(t, manager.GetDB())

	require.NoError(t, manager.Connect(ctx))
	t.Cleanup(func() { _ = manager.Disconnect() })
	require.NoError(t, manager.GetSQLDB().Close())
	require.Eventually(t, func() bool {
		return manager.Ping(ctx) == nil
	}, 2*time.Second, 10*time.Millisecond)
}
