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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/datastudy/database"
	"github.com/tomoncle/datastudy/database/dbtest"
	"github.com/tomoncle/datastudy/domain"
)

func TestGetSQLFiles(t *testing.T) {
	root := t.TempDir()
	writeSQL(t, root, "common/002_b.sql", "SELECT 1;")
	writeSQL(t, root, "common/extra.sql", "SELECT 1;")
	writeSQL(t, root, "common/001_a.sql", "SELECT 1;")
	writeSQL(t, root, "common/README.md", "not sql")
	writeSQL(t, root, "environments/test/001_x.sql", "SELECT 1;")
	writeSQL(t, root, "environments/prod/001_y.sql", "SELECT 1;")

	s := database.NewSQLInitManager(nil, "test")
	s.SetSQLRootPath(root)
	files, err := s.GetSQLFiles()
	require.NoError(t, err)

	var names []string
	for _, f := range files {
		names = append(names, f.Environment+"/"+f.Name)
	}
	assert.Equal(t, []string{"common/001_a.sql", "common/002_b.sql", "common/extra.sql", "test/001_x.sql"}, names)
	assert.Equal(t, 1, files[0].Order)
	assert.Equal(t, 999, files[2].Order)
}

func TestGetSQLFilesMissingRoot(t *testing.T) {
	s := database.NewSQLInitManager(nil, "dev")
	s.SetSQLRootPath(t.TempDir())
	files, err := s.GetSQLFiles()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestSQLInitExecute(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t, domain.Models()...)
	t.Setenv("SEED_OWNER", "carol")

	root := t.TempDir()
	writeSQL(t, root, "common/001_teams.sql", `
-- two teams
INSERT INTO teams (name)
VALUES ('teamA');
INSERT INTO teams (name) VALUES ('teamB');
`)
	writeSQL(t, root, "environments/qa/001_members.sql",
		"INSERT INTO members (username, age, created_by, last_modified_by) VALUES ('{{.ENVIRONMENT}}-user', 1, '{{.SEED_OWNER}}', '{{.UNSET_VARIABLE}}');")

	s := database.NewSQLInitManager(db, "qa")
	s.SetSQLRootPath(root)
	results, err := s.Execute(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.Equal(t, int64(2), results[0].RowsAffected)
	assert.Equal(t, int64(1), results[1].RowsAffected)

	var member domain.Member
	require.NoError(t, db.NewSelect().Model(&member).Limit(1).Scan(ctx))
	assert.Equal(t, "qa-user", member.Username)
	assert.Equal(t, "carol", member.CreatedBy)
	assert.Empty(t, member.LastModifiedBy)
}

func TestSQLInitStopsOnFailure(t *testing.T) {
	ctx := context.Background()
	db := dbtest.New(t, domain.Models()...)

	root := t.TempDir()
	writeSQL(t, root, "common/001_ok.sql", "INSERT INTO teams (name) VALUES ('teamA');")
	writeSQL(t, root, "common/002_broken.sql", "INSERT INTO teams (name) VALUES ('teamB');\nINSERT INTO missing_table VALUES (1);")
	writeSQL(t, root, "common/003_never.sql", "INSERT INTO teams (name) VALUES ('teamC');")

	s := database.NewSQLInitManager(db, "dev")
	s.SetSQLRootPath(root)
	results, err := s.Execute(ctx)
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)

	// the failing file is rolled back as a whole
	var names []string
	require.NoError(t, db.NewSelect().Model((*domain.Team)(nil)).Column("name").Order("id").Scan(ctx, &names))
	assert.Equal(t, []string{"teamA"}, names)
}
