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

package utils

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLogLevel("DEBUG"))
	assert.Equal(t, logrus.WarnLevel, ParseLogLevel(" warning "))
	assert.Equal(t, logrus.TraceLevel, ParseLogLevel("trace"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel("verbose"))
	assert.Equal(t, logrus.InfoLevel, ParseLogLevel(""))
}

func testEntry(level logrus.Level, msg string, fields logrus.Fields) *logrus.Entry {
	_, file, line, _ := runtime.Caller(0)
	e := logrus.NewEntry(logrus.New())
	e.Time = time.Date(2025, 3, 4, 5, 6, 7, 8_000_000, time.Local)
	e.Level = level
	e.Message = msg
	e.Data = fields
	e.Caller = &runtime.Frame{File: file, Line: line}
	return e
}

func TestLog4jColorFormatter(t *testing.T) {
	f := &Log4jColorFormatter{LoggerName: "REPOSITORY-LONG", PathFmt: PathFormatFilenameOnly, NameWidth: 10}
	b, err := f.Format(testEntry(logrus.WarnLevel, "slow query", logrus.Fields{"table": "members", "rows": 3}))
	require.NoError(t, err)

	line := string(b)
	assert.True(t, len(line) > 0 && line[len(line)-1] == '\n')
	assert.Contains(t, line, "2025-03-04 05:06:07.008")
	assert.Contains(t, line, " WARNING ")
	assert.Contains(t, line, " REPOSITORY logger_test.go:")
	assert.Contains(t, line, ": slow query rows=3 table=members\n")
}

func TestJSONLogFormatter(t *testing.T) {
	f := &JSONLogFormatter{LoggerName: "DATABASE", PathFmt: PathFormatFilenameOnly}
	b, err := f.Format(testEntry(logrus.ErrorLevel, "query failed", logrus.Fields{"error": errors.New("boom")}))
	require.NoError(t, err)

	var rec map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &rec))
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "DATABASE", rec["logger"])
	assert.Equal(t, "query failed", rec["message"])
	assert.Equal(t, map[string]interface{}{"error": "boom"}, rec["fields"])
	assert.Regexp(t, `^logger_test\.go:\d+$`, rec["caller"])
}

func TestCallerPath(t *testing.T) {
	assert.Equal(t, "b.go:7", callerPath("/x/a/b.go", 7, PathFormatFilenameOnly))
	assert.Equal(t, "a/b.go:7", callerPath("/no/such/root/a/b.go", 7, PathFormatShortRelative))
}

func TestRuneHelpers(t *testing.T) {
	assert.Equal(t, "héll", limitRunes("héllo", 4))
	assert.Equal(t, "llo", limitRunesTail("héllo", 3))
	assert.Equal(t, "  hé", padLeftRunes("hé", 4))
	assert.Equal(t, "héllo", padLeftRunes("héllo", 2))
}

func TestDailyLevelWriter(t *testing.T) {
	dir := t.TempDir()
	old := filepath.Join(dir, "2025-01-01")
	require.NoError(t, os.MkdirAll(old, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "not-a-date"), 0o755))

	day := time.Date(2025, 1, 10, 23, 59, 0, 0, time.Local)
	w := newDailyLevelWriter(dir, "info", 3)
	w.now = func() time.Time { return day }

	_, err := w.Write([]byte("first\n"))
	require.NoError(t, err)
	day = day.Add(2 * time.Minute)
	_, err = w.Write([]byte("second\n"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.file.Close() })

	first, err := os.ReadFile(filepath.Join(dir, "2025-01-10", "info.log"))
	require.NoError(t, err)
	assert.Equal(t, "first\n", string(first))
	second, err := os.ReadFile(filepath.Join(dir, "2025-01-11", "info.log"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(second))

	assert.NoDirExists(t, old)
	assert.DirExists(t, filepath.Join(dir, "not-a-date"))
}

func TestNewLoggerRegistry(t *testing.T) {
	var out bytes.Buffer
	SetConsoleOutput(&out)
	t.Cleanup(func() {
		SetConsoleOutput(os.Stdout)
		ConfigureLogLevel("info")
	})
	Configure(Options{Level: "warn", ConsoleFormat: FormatText})

	l := NewLogger("REGISTRY-TEST")
	assert.Same(t, l, NewLogger("REGISTRY-TEST"))

	l.Info("hidden")
	l.WithField("k", "v").Warn("shown")
	assert.NotContains(t, out.String(), "hidden")
	assert.Contains(t, out.String(), "shown k=v")

	assert.True(t, SetLoggerLevel("REGISTRY-TEST", "debug"))
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.False(t, SetLoggerLevel("NO-SUCH-LOGGER", "debug"))
}

func TestAddDailyRollingFileHook(t *testing.T) {
	dir := t.TempDir()
	l := logrus.New()
	l.SetOutput(&bytes.Buffer{})
	l.SetLevel(logrus.DebugLevel)
	t.Cleanup(func() { ConfigureLogLevel("info") })
	ConfigureLogLevel("debug")

	require.NoError(t, AddDailyRollingFileHook(l, "FILE-TEST", dir, 0))
	l.Error("disk full")

	data, err := os.ReadFile(filepath.Join(dir, time.Now().Format(dateFormat), "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), "disk full")
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv("DATASTUDY_TEST_STRING", "x")
	t.Setenv("DATASTUDY_TEST_BOOL", "nope")
	assert.Equal(t, "x", EnvDefaultString("DATASTUDY_TEST_STRING", "d"))
	assert.Equal(t, "d", EnvDefaultString("DATASTUDY_TEST_UNSET", "d"))
	assert.True(t, EnvDefaultBool("DATASTUDY_TEST_BOOL", true))
	t.Setenv("DATASTUDY_TEST_BOOL", "false")
	assert.False(t, EnvDefaultBool("DATASTUDY_TEST_BOOL", true))
}
