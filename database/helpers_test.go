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

package database

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSQLStatements(t *testing.T) {
	content := `
-- teams
INSERT INTO teams (name)
  VALUES ('a');

INSERT INTO teams (name) VALUES ('b');
SELECT 1`
	assert.Equal(t, []string{
		"INSERT INTO teams (name) VALUES ('a');",
		"INSERT INTO teams (name) VALUES ('b');",
		"SELECT 1",
	}, splitSQLStatements(content))
	assert.Empty(t, splitSQLStatements("-- only a comment\n\n"))
}

func TestParseFileOrder(t *testing.T) {
	assert.Equal(t, 1, parseFileOrder("001_teams.sql"))
	assert.Equal(t, 20, parseFileOrder("20_members.sql"))
	assert.Equal(t, unorderedFile, parseFileOrder("teams.sql"))
	assert.Equal(t, unorderedFile, parseFileOrder("v1_teams.sql"))
}

func TestToFields(t *testing.T) {
	assert.Equal(t, logrus.Fields{"table": "members", "rows": 3}, toFields([]interface{}{"table", "members", "rows", 3}))
	assert.Equal(t, logrus.Fields{"table": "members", "extra": "dangling"}, toFields([]interface{}{"table", "members", "dangling"}))
	assert.Empty(t, toFields(nil))
}

func TestIsSqlError(t *testing.T) {
	tests := []struct {
		err  error
		is   bool
		kind SQLError
	}{
		{nil, false, UnknownErr},
		{sql.ErrNoRows, true, NoRowsErr},
		{fmt.Errorf("get member: %w", sql.ErrNoRows), true, NoRowsErr},
		{&mysql.MySQLError{Number: 1062, Message: "Duplicate entry"}, true, DuplicateKeyErr},
		{&mysql.MySQLError{Number: 1452}, true, UnknownErr},
		{fmt.Errorf("insert: %w", &mysql.MySQLError{Number: 1216}), true, ForeignKeyViolationErr},
		{errors.New("constraint failed: UNIQUE constraint failed: items.id (1555)"), true, DuplicateKeyErr},
		{errors.New(`pq: duplicate key value violates unique constraint "members_pkey"`), true, DuplicateKeyErr},
		{errors.New("SQL logic error: no such table: members (1)"), true, NoTableErr},
		{errors.New("NOT NULL constraint failed: members.username"), true, NotNullViolationErr},
		{errors.New("FOREIGN KEY constraint failed"), true, ForeignKeyViolationErr},
		{errors.New("connection refused"), false, UnknownErr},
	}
	for _, tt := range tests {
		is, kind := IsSqlError(tt.err)
		assert.Equal(t, tt.is, is, "%v", tt.err)
		assert.Equal(t, tt.kind, kind, "%v: got %s", tt.err, kind)
	}

	assert.True(t, IsDuplicateKey(&mysql.MySQLError{Number: 1062}))
	assert.False(t, IsDuplicateKey(sql.ErrNoRows))
	assert.True(t, IsForeignKeyViolation(errors.New("FOREIGN KEY constraint failed")))
	assert.Equal(t, "duplicate key", DuplicateKeyErr.String())
	assert.Equal(t, "unknown", SQLError(100).String())
}

func TestForeignKeyConstraint(t *testing.T) {
	fk := ForeignKeyConstraint{
		Table:           "members",
		Column:          "team_id",
		ReferenceTable:  "teams",
		ReferenceColumn: "id",
		OnDelete:        "set null",
	}
	assert.Equal(t, "fk_members_team_id", fk.GenerateConstraintName())
	assert.Equal(t, "ALTER TABLE members ADD CONSTRAINT fk_members_team_id FOREIGN KEY (team_id) REFERENCES teams(id) ON DELETE SET NULL", fk.GenerateSQL())

	m := &ForeignKeyManager{constraints: []ForeignKeyConstraint{fk, {Table: "items", OnUpdate: "EXPLODE"}}}
	assert.Len(t, m.GetConstraintsByTable("MEMBERS"), 1)
	assert.Len(t, m.ValidateConstraints(), 4)
	assert.Empty(t, NewForeignKeyManager(nil).ValidateConstraints())
}

func TestConfigurableForeignKeyManager(t *testing.T) {
	fallback := NewConfigurableForeignKeyManager(nil, filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Equal(t, defaultForeignKeyConstraints(), fallback.ListAllConstraints())

	fallback.constraints[0].ConstraintName = "fk_member_team"
	path := filepath.Join(t.TempDir(), "fk", "foreign_keys.yaml")
	require.NoError(t, fallback.ExportToConfig(path))

	loaded := NewConfigurableForeignKeyManager(nil, path)
	require.Len(t, loaded.ListAllConstraints(), 1)
	assert.Equal(t, "fk_member_team", loaded.ListAllConstraints()[0].GenerateConstraintName())
	assert.Equal(t, "SET NULL", loaded.ListAllConstraints()[0].OnDelete)
	assert.Equal(t, path, loaded.GetConfigPath())
	require.NoError(t, loaded.ReloadConfig())
}

func TestModelRegistry(t *testing.T) {
	r := newModelRegistry()
	type a struct{}
	type b struct{}
	r.Register(NewModelAdapter((*b)(nil), 2))
	r.Register(NewModelAdapter((*a)(nil), 1))
	r.Register(NewModelAdapter((*a)(nil), 5))

	models := r.Models()
	require.Len(t, models, 2)
	assert.Equal(t, "a", getModelName(models[0].Instance()))
	assert.Equal(t, 2, models[1].Priority())
}
