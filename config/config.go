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

// Package config loads the application configuration from YAML with
// environment overrides.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/tomoncle/datastudy/database"
	"github.com/tomoncle/datastudy/utils"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when neither a flag nor DATASTUDY_CONFIG names a file.
const DefaultPath = "configs/config.yaml"

type LogConfig struct {
	Level         string `yaml:"level" validate:"omitempty,oneof=trace debug info warn warning error"`
	ConsoleFormat string `yaml:"console_format" validate:"omitempty,oneof=text json"`
	FileEnabled   bool   `yaml:"file_enabled"`
	FileFormat    string `yaml:"file_format" validate:"omitempty,oneof=text json"`
	FileDir       string `yaml:"file_dir"`
	MaxAgeDays    int    `yaml:"max_age_days" validate:"gte=0"`
}

type Config struct {
	Database database.Config `yaml:"database"`
	Log      LogConfig       `yaml:"log"`
}

// Default returns the configuration used for keys missing from the file:
// a local SQLite database and info level console logging.
func Default() *Config {
	db := database.DefaultConfig()
	db.ConnectionConfig.Type = database.TypeSQLite
	db.ConnectionConfig.DBName = "datastudy"
	return &Config{
		Database: *db,
		Log: LogConfig{
			Level:         "info",
			ConsoleFormat: utils.FormatText,
			FileFormat:    utils.FormatText,
			FileDir:       "logs",
		},
	}
}

// Load reads path over Default and applies LOG_LEVEL and DB_ENVIRONMENT.
// A missing file is not an error when path is DefaultPath.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		path = utils.EnvDefaultString("DATASTUDY_CONFIG", DefaultPath)
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err) && path == DefaultPath:
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	cfg.Log.Level = utils.EnvDefaultString("LOG_LEVEL", cfg.Log.Level)
	cfg.Database.DataInitConfig.Environment = utils.EnvDefaultString("DB_ENVIRONMENT", cfg.Database.DataInitConfig.Environment)
	database.ApplyEnvOverrides(&cfg.Database.ConnectionConfig)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(&c.Log); err != nil {
		return fmt.Errorf("invalid log config: %w", err)
	}
	switch c.Database.ConnectionConfig.Type {
	case database.TypeMySQL, database.TypePostgres, database.TypeSQLite:
	default:
		return fmt.Errorf("invalid database type %q", c.Database.ConnectionConfig.Type)
	}
	return nil
}

// ApplyLogging configures the process loggers from c.Log.
func (c *Config) ApplyLogging() {
	utils.Configure(utils.Options{
		Level:         c.Log.Level,
		ConsoleFormat: c.Log.ConsoleFormat,
		FileEnabled:   c.Log.FileEnabled,
		FileFormat:    c.Log.FileFormat,
		FileDir:       c.Log.FileDir,
		MaxAgeDays:    c.Log.MaxAgeDays,
	})
}

// ConfigLoader exposes the database section to database.InitDB callers.
func (c *Config) ConfigLoader() *database.Config {
	return &c.Database
}

var _ database.AbstractDatabaseConfigProvider = (*Config)(nil)
