/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/suparena/metadatastore/storagemodels"
)

// EnvPrefix prefixes every environment override, e.g. METADATA_BACKEND.
const EnvPrefix = "METADATA_"

// Config is the deployment configuration of the metadata store.
type Config struct {
	// Backend is the default adapter for every entity type.
	Backend storagemodels.Backend `yaml:"backend" validate:"required,oneof=table relational memory"`
	// Overrides selects a different adapter for individual entity types.
	Overrides map[string]storagemodels.Backend `yaml:"overrides" validate:"dive,keys,required,endkeys,oneof=table relational memory"`

	Table    TableSettings    `yaml:"table"`
	Database DatabaseSettings `yaml:"database"`
	Logger   LoggerSettings   `yaml:"logger"`
}

// TableSettings configures the DynamoDB table adapter.
type TableSettings struct {
	Region          string `yaml:"region"`
	AccessKeyID     string `yaml:"accessKeyId"`
	SecretAccessKey string `yaml:"secretAccessKey"`
	Endpoint        string `yaml:"endpoint" validate:"omitempty,url"`
	TablePrefix     string `yaml:"tablePrefix" validate:"omitempty,max=64"`
	CreateTables    bool   `yaml:"createTables"`
}

// DatabaseSettings configures the relational adapter.
type DatabaseSettings struct {
	Type            string        `yaml:"type" validate:"omitempty,oneof=postgres sqlite"`
	DSN             string        `yaml:"dsn" validate:"required_with=Type"`
	MaxOpenConns    int           `yaml:"maxOpenConns" validate:"gte=0"`
	MaxIdleConns    int           `yaml:"maxIdleConns" validate:"gte=0"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime" validate:"gte=0"`
}

// Default returns a configuration using the memory adapter.
func Default() *Config {
	return &Config{
		Backend: storagemodels.BackendMemory,
		Table:   TableSettings{Region: "us-east-1"},
		Database: DatabaseSettings{
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logger: LoggerSettings{Level: LogLevelInfo, Format: LogFormatJSON, Service: "metadatastore"},
	}
}

// Load reads the yaml file at path (optional when empty), applies .env and environment
// overrides and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	// A missing .env file is not an error.
	_ = godotenv.Load()

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BackendFor returns the backend selected for entityType.
func (c *Config) BackendFor(entityType storagemodels.EntityType) storagemodels.Backend {
	if b, ok := c.Overrides[entityType.String()]; ok {
		return b
	}
	return c.Backend
}

// Backends returns every backend referenced by the configuration, default first.
func (c *Config) Backends() []storagemodels.Backend {
	used := map[storagemodels.Backend]bool{c.Backend: true}
	for _, b := range c.Overrides {
		used[b] = true
	}
	out := []storagemodels.Backend{c.Backend}
	for _, b := range storagemodels.Backends {
		if used[b] && b != c.Backend {
			out = append(out, b)
		}
	}
	return out
}

// Validate checks the configuration, including backend specific requirements.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("validation failed for Config: %w", err)
	}
	if err := c.Logger.Validate(); err != nil {
		return err
	}

	for _, b := range c.Backends() {
		switch b {
		case storagemodels.BackendTable:
			if c.Table.Region == "" {
				return fmt.Errorf("table backend requires a region")
			}
		case storagemodels.BackendRelational:
			if c.Database.Type == "" || c.Database.DSN == "" {
				return fmt.Errorf("relational backend requires database type and dsn")
			}
		}
	}
	return nil
}

type lookupFunc func(key string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && v != "" {
			*dst = v
		}
	}

	if v, ok := lookup(EnvPrefix + "BACKEND"); ok && v != "" {
		c.Backend = storagemodels.Backend(v)
	}
	if v, ok := lookup(EnvPrefix + "OVERRIDES"); ok && v != "" {
		overrides, err := parseOverrides(v)
		if err != nil {
			return err
		}
		c.Overrides = overrides
	}

	str("AWS_REGION", &c.Table.Region)
	str("AWS_ACCESS_KEY_ID", &c.Table.AccessKeyID)
	str("AWS_SECRET_ACCESS_KEY", &c.Table.SecretAccessKey)
	str(EnvPrefix+"TABLE_ENDPOINT", &c.Table.Endpoint)
	str(EnvPrefix+"TABLE_PREFIX", &c.Table.TablePrefix)
	if v, ok := lookup(EnvPrefix + "CREATE_TABLES"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sCREATE_TABLES: %w", EnvPrefix, err)
		}
		c.Table.CreateTables = b
	}

	str(EnvPrefix+"DATABASE_TYPE", &c.Database.Type)
	str(EnvPrefix+"DATABASE_DSN", &c.Database.DSN)

	str(EnvPrefix+"LOG_LEVEL", &c.Logger.Level)
	str(EnvPrefix+"LOG_FORMAT", &c.Logger.Format)
	return nil
}

// parseOverrides reads "type=backend,type=backend".
func parseOverrides(v string) (map[string]storagemodels.Backend, error) {
	out := make(map[string]storagemodels.Backend)
	for _, pair := range strings.Split(v, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		name, backend, ok := strings.Cut(pair, "=")
		if !ok || name == "" || backend == "" {
			return nil, fmt.Errorf("invalid %sOVERRIDES entry %q, expected type=backend", EnvPrefix, pair)
		}
		out[strings.TrimSpace(name)] = storagemodels.Backend(strings.TrimSpace(backend))
	}
	return out, nil
}
