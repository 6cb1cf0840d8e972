package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

// Store backends selectable with STORE_BACKEND.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// ErrInvalidConfig is returned for configuration that parses but cannot run.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds application configuration loaded from environment variables.
type Config struct {
	Port     int    `envconfig:"PORT" default:"8080"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Version  string `envconfig:"VERSION" default:"dev"`

	StoreBackend  string `envconfig:"STORE_BACKEND" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL" default:""`
	RedisAddr     string `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
	SQLitePath    string `envconfig:"SQLITE_PATH" default:"coachgate.db"`

	CatalogPath         string   `envconfig:"CATALOG_PATH" default:""`
	CatalogConfigMap    string   `envconfig:"CATALOG_CONFIGMAP" default:""`
	CatalogConfigMapKey string   `envconfig:"CATALOG_CONFIGMAP_KEY" default:"catalog.yaml"`
	KubeconfigPath      string   `envconfig:"KUBECONFIG_PATH" default:""`
	RequiredTools       []string `envconfig:"REQUIRED_TOOLS" default:""` // on top of catalog.Referenced

	DefaultLocale string `envconfig:"DEFAULT_LOCALE" default:"nl"`
	BcryptCost    int    `envconfig:"BCRYPT_COST" default:"12"`
}

// Load reads configuration from environment variables into a Config struct.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	c.StoreBackend = strings.ToLower(strings.TrimSpace(c.StoreBackend))
	switch c.StoreBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("%w: DATABASE_URL is required for the postgres backend", ErrInvalidConfig)
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("%w: REDIS_ADDR is required for the redis backend", ErrInvalidConfig)
		}
	case BackendSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("%w: SQLITE_PATH is required for the sqlite backend", ErrInvalidConfig)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("%w: unknown STORE_BACKEND %q", ErrInvalidConfig, c.StoreBackend)
	}

	if c.CatalogPath != "" && c.CatalogConfigMap != "" {
		return fmt.Errorf("%w: CATALOG_PATH and CATALOG_CONFIGMAP are mutually exclusive", ErrInvalidConfig)
	}

	tools := c.RequiredTools[:0]
	for _, t := range c.RequiredTools {
		if t = strings.TrimSpace(t); t != "" {
			tools = append(tools, t)
		}
	}
	c.RequiredTools = tools
	return nil
}
