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
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

type Logger = logrus.Logger

// PathFormat selects how the caller file is rendered.
type PathFormat int

const (
	PathFormatShortRelative PathFormat = iota
	PathFormatFilenameOnly
	PathFormatFullRelative
)

const (
	FormatText = "text"
	FormatJSON = "json"

	timestampFormat = "2006-01-02 15:04:05.000"
	dateFormat      = "2006-01-02"
)

var (
	settingsMu          sync.RWMutex
	defaultConsoleLevel = logrus.InfoLevel
	defaultFileLevel    = logrus.TraceLevel
	consoleOutput       io.Writer = os.Stdout
	fileLogEnabled      = EnvDefaultBool("FILE_LOG_ENABLED", false)
	fileLogDir          = "logs"
	fileLogMaxAgeDays   = 0
	fileLogFormat       = normalizeFormat(EnvDefaultString("FILE_LOG_FORMAT", FormatText))
	consoleLogFormat    = normalizeFormat(EnvDefaultString("CONSOLE_LOG_FORMAT", FormatText))

	loggerRegistryMu sync.RWMutex
	loggerRegistry   = map[string]*logrus.Logger{}
)

// Options configures every logger created afterwards; levels also apply to
// already registered loggers.
type Options struct {
	Level         string
	ConsoleFormat string
	FileEnabled   bool
	FileFormat    string
	FileDir       string
	MaxAgeDays    int
}

// Configure applies opts. Empty fields keep their current value.
func Configure(opts Options) {
	settingsMu.Lock()
	if opts.ConsoleFormat != "" {
		consoleLogFormat = normalizeFormat(opts.ConsoleFormat)
	}
	if opts.FileFormat != "" {
		fileLogFormat = normalizeFormat(opts.FileFormat)
	}
	fileLogEnabled = opts.FileEnabled
	if opts.FileDir != "" {
		fileLogDir = opts.FileDir
	}
	if opts.MaxAgeDays >= 0 {
		fileLogMaxAgeDays = opts.MaxAgeDays
	}
	settingsMu.Unlock()

	if opts.Level != "" {
		ConfigureLogLevel(opts.Level)
	}
}

// SetConsoleOutput redirects console output, mainly for tests.
func SetConsoleOutput(w io.Writer) {
	settingsMu.Lock()
	defer settingsMu.Unlock()
	consoleOutput = w
}

func normalizeFormat(format string) string {
	if strings.EqualFold(strings.TrimSpace(format), FormatJSON) {
		return FormatJSON
	}
	return FormatText
}

// NewLogger returns the logger registered under name, creating it on first use.
func NewLogger(name string) *logrus.Logger {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	if l, ok := loggerRegistry[name]; ok {
		return l
	}

	settingsMu.RLock()
	consoleFmt := newFormatter(consoleLogFormat, name, true)
	fileEnabled, dir, maxAge := fileLogEnabled, fileLogDir, fileLogMaxAgeDays
	level := maxLevel(defaultConsoleLevel, defaultFileLevel)
	if !fileEnabled {
		level = defaultConsoleLevel
	}
	settingsMu.RUnlock()

	l := logrus.New()
	l.SetOutput(io.Discard)
	l.SetLevel(level)
	l.SetReportCaller(true)
	l.SetFormatter(consoleFmt)
	l.AddHook(&consoleWriterHook{formatter: consoleFmt})
	if fileEnabled {
		if err := AddDailyRollingFileHook(l, name, dir, maxAge); err != nil {
			fmt.Fprintf(os.Stderr, "file log disabled for %s: %v\n", name, err)
		}
	}
	loggerRegistry[name] = l
	return l
}

func newFormatter(format, name string, console bool) logrus.Formatter {
	if format == FormatJSON {
		return &JSONLogFormatter{LoggerName: name, PathFmt: PathFormatFullRelative}
	}
	if console {
		return &Log4jColorFormatter{
			LoggerName:  name,
			PathFmt:     PathFormatShortRelative,
			ColorOutput: true,
			NameWidth:   10,
			CallerWidth: 28,
		}
	}
	return &Log4jColorFormatter{LoggerName: name, PathFmt: PathFormatFullRelative, NameWidth: 10}
}

type consoleWriterHook struct {
	formatter logrus.Formatter
}

func (h *consoleWriterHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *consoleWriterHook) Fire(e *logrus.Entry) error {
	settingsMu.RLock()
	level, out := defaultConsoleLevel, consoleOutput
	settingsMu.RUnlock()
	if e.Level > level {
		return nil
	}
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = out.Write(b)
	return err
}

type levelWriterHook struct {
	writers   map[logrus.Level]io.Writer
	formatter logrus.Formatter
}

func (h *levelWriterHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *levelWriterHook) Fire(e *logrus.Entry) error {
	settingsMu.RLock()
	level := defaultFileLevel
	settingsMu.RUnlock()
	if e.Level > level {
		return nil
	}
	w, ok := h.writers[e.Level]
	if !ok || w == nil {
		return nil
	}
	b, err := h.formatter.Format(e)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// dailyLevelWriter appends to <dir>/<yyyy-mm-dd>/<level>.log, switching files
// at midnight and removing day directories older than maxAgeDays (0 keeps all).
type dailyLevelWriter struct {
	baseDir    string
	level      string
	maxAgeDays int
	now        func() time.Time

	mu      sync.Mutex
	curDate string
	file    *os.File
}

func newDailyLevelWriter(baseDir, level string, maxAgeDays int) *dailyLevelWriter {
	return &dailyLevelWriter{baseDir: baseDir, level: level, maxAgeDays: maxAgeDays, now: time.Now}
}

func (w *dailyLevelWriter) ensureOpen(date string) error {
	if w.file != nil && w.curDate == date {
		return nil
	}
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	dir := filepath.Join(w.baseDir, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(dir, w.level+".log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.file = f
	w.curDate = date
	return nil
}

func (w *dailyLevelWriter) cleanup(today time.Time) {
	if w.maxAgeDays <= 0 {
		return
	}
	cutoff := today.AddDate(0, 0, -w.maxAgeDays)
	cutoff = time.Date(cutoff.Year(), cutoff.Month(), cutoff.Day(), 0, 0, 0, 0, time.Local)

	entries, err := os.ReadDir(w.baseDir)
	if err != nil {
		return
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		d, err := time.ParseInLocation(dateFormat, e.Name(), time.Local)
		if err != nil {
			continue
		}
		if d.Before(cutoff) {
			_ = os.RemoveAll(filepath.Join(w.baseDir, e.Name()))
		}
	}
}

func (w *dailyLevelWriter) Write(p []byte) (int, error) {
	now := w.now()
	date := now.Format(dateFormat)

	w.mu.Lock()
	defer w.mu.Unlock()
	rotated := w.curDate != date
	if err := w.ensureOpen(date); err != nil {
		return 0, err
	}
	if rotated {
		w.cleanup(now)
	}
	return w.file.Write(p)
}

// AddDailyRollingFileHook writes entries of l to per-level daily files under dir.
func AddDailyRollingFileHook(l *logrus.Logger, name, dir string, maxAgeDays int) error {
	if dir == "" {
		dir = "logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	settingsMu.RLock()
	format := fileLogFormat
	settingsMu.RUnlock()

	errorW := newDailyLevelWriter(dir, "error", maxAgeDays)
	l.AddHook(&levelWriterHook{
		writers: map[logrus.Level]io.Writer{
			logrus.TraceLevel: newDailyLevelWriter(dir, "trace", maxAgeDays),
			logrus.DebugLevel: newDailyLevelWriter(dir, "debug", maxAgeDays),
			logrus.InfoLevel:  newDailyLevelWriter(dir, "info", maxAgeDays),
			logrus.WarnLevel:  newDailyLevelWriter(dir, "warn", maxAgeDays),
			logrus.ErrorLevel: errorW,
			logrus.FatalLevel: errorW,
			logrus.PanicLevel: errorW,
		},
		formatter: newFormatter(format, name, false),
	})
	return nil
}

// ParseLogLevel maps a level name to logrus, defaulting to info.
func ParseLogLevel(s string) logrus.Level {
	if s = strings.ToLower(strings.TrimSpace(s)); s == "warning" {
		s = "warn"
	}
	lvl, err := logrus.ParseLevel(s)
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

func RegisterLogger(name string, l *logrus.Logger) {
	loggerRegistryMu.Lock()
	defer loggerRegistryMu.Unlock()
	loggerRegistry[name] = l
}

func maxLevel(a, b logrus.Level) logrus.Level {
	if a >= b {
		return a
	}
	return b
}

func applyBaseLevelToRegistered() {
	settingsMu.RLock()
	base := defaultConsoleLevel
	if fileLogEnabled {
		base = maxLevel(defaultConsoleLevel, defaultFileLevel)
	}
	settingsMu.RUnlock()

	loggerRegistryMu.RLock()
	defer loggerRegistryMu.RUnlock()
	for _, lg := range loggerRegistry {
		lg.SetLevel(base)
	}
}

// SetLoggerLevel changes the level of one registered logger.
func SetLoggerLevel(name string, lvlStr string) bool {
	loggerRegistryMu.RLock()
	lg, ok := loggerRegistry[name]
	loggerRegistryMu.RUnlock()
	if !ok {
		return false
	}
	lg.SetLevel(ParseLogLevel(lvlStr))
	return true
}

// ConfigureLogLevel sets both console and file levels.
func ConfigureLogLevel(levelStr string) {
	lvl := ParseLogLevel(levelStr)
	settingsMu.Lock()
	defaultConsoleLevel = lvl
	defaultFileLevel = lvl
	settingsMu.Unlock()
	applyBaseLevelToRegistered()
}

type Log4jColorFormatter struct {
	LoggerName  string
	PathFmt     PathFormat
	ColorOutput bool
	NameWidth   int
	CallerWidth int
}

var (
	pidColor    = color.New(color.FgMagenta)
	nameColor   = color.New(color.FgCyan)
	callerColor = color.New(color.Faint)
	levelColors = map[logrus.Level]*color.Color{
		logrus.PanicLevel: color.New(color.FgRed),
		logrus.FatalLevel: color.New(color.FgRed),
		logrus.ErrorLevel: color.New(color.FgRed),
		logrus.WarnLevel:  color.New(color.FgYellow),
		logrus.InfoLevel:  color.New(color.FgGreen),
		logrus.DebugLevel: color.New(color.FgBlue),
		logrus.TraceLevel: color.New(color.FgMagenta),
	}
)

func (f *Log4jColorFormatter) paint(c *color.Color, s string) string {
	if !f.ColorOutput {
		return s
	}
	// fatih/color disables itself on non-terminals, force it for console output
	c.EnableColor()
	return c.Sprint(s)
}

// Format renders "time LEVEL pid - [main] name caller : message k=v ...".
func (f *Log4jColorFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b strings.Builder
	b.WriteString(entry.Time.Format(timestampFormat))
	b.WriteByte(' ')
	b.WriteString(f.paint(levelColors[entry.Level], fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String()))))
	b.WriteByte(' ')
	b.WriteString(f.paint(pidColor, fmt.Sprintf("%-6d", os.Getpid())))
	b.WriteString(" - ")
	b.WriteString(f.paint(pidColor, "[main]"))
	b.WriteByte(' ')
	b.WriteString(f.paint(nameColor, padLeftRunes(limitRunes(f.LoggerName, f.NameWidth), f.NameWidth)))
	if entry.Caller != nil {
		caller := callerPath(entry.Caller.File, entry.Caller.Line, f.PathFmt)
		if f.CallerWidth > 0 {
			caller = padLeftRunes(limitRunesTail(caller, f.CallerWidth), f.CallerWidth)
		}
		b.WriteString(f.paint(callerColor, " "+caller))
	}
	b.WriteString(f.paint(callerColor, " :"))
	b.WriteByte(' ')
	b.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

type JSONLogFormatter struct {
	LoggerName string
	PathFmt    PathFormat
}

type jsonLogRecord struct {
	Time    string                 `json:"time"`
	Level   string                 `json:"level"`
	Logger  string                 `json:"logger"`
	Caller  string                 `json:"caller,omitempty"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonLogRecord{
		Time:    entry.Time.Format(timestampFormat),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Message: entry.Message,
	}
	if entry.Caller != nil {
		rec.Caller = callerPath(entry.Caller.File, entry.Caller.Line, f.PathFmt)
	}
	if len(entry.Data) > 0 {
		rec.Fields = make(map[string]interface{}, len(entry.Data))
		for k, v := range entry.Data {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			rec.Fields[k] = v
		}
	}
	b, err := json.Marshal(rec)
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func callerPath(file string, line int, format PathFormat) string {
	var p string
	switch format {
	case PathFormatFilenameOnly:
		p = filepath.Base(file)
	case PathFormatFullRelative:
		p = moduleRelative(filepath.ToSlash(file))
	default:
		parts := strings.Split(moduleRelative(filepath.ToSlash(file)), "/")
		if len(parts) > 2 {
			parts = parts[len(parts)-2:]
		}
		p = strings.Join(parts, "/")
	}
	return p + ":" + strconv.Itoa(line)
}

var (
	moduleRootOnce sync.Once
	moduleRoot     string
)

// moduleRelative strips the directory holding go.mod from p.
func moduleRelative(p string) string {
	moduleRootOnce.Do(func() {
		moduleRoot = findModuleRootFrom(p)
	})
	if moduleRoot != "" && strings.HasPrefix(p, moduleRoot) {
		return strings.TrimPrefix(strings.TrimPrefix(p, moduleRoot), "/")
	}
	return p
}

func findModuleRootFrom(p string) string {
	dir := filepath.Dir(p)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return filepath.ToSlash(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

func limitRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func limitRunesTail(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func padLeftRunes(s string, width int) string {
	r := []rune(s)
	if len(r) >= width {
		return s
	}
	return strings.Repeat(" ", width-len(r)) + s
}

func EnvDefaultString(key string, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvDefaultBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return def
		}
		return b
	}
	return def
}
