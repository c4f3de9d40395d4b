// Package config provides configuration management.
package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"odoo-graph/internal/logging"
)

// Config is the main application configuration
type Config struct {
	// Neo4j contains graph store connection settings
	Neo4j Neo4jConfig

	// SourcePath is the default corpus root to scan
	SourcePath string

	// BatchSize is the number of items per loader transaction
	BatchSize int

	// MaxWorkers bounds the parallel parsing pool
	MaxWorkers int

	// ChangeThreshold is the changed/total module ratio above which an
	// incremental run falls back to a full reload
	ChangeThreshold float64

	// CacheDir holds the incremental state file
	CacheDir string

	// Logging contains logging configuration
	Logging logging.Config
}

// Neo4jConfig contains graph store endpoint and auth
type Neo4jConfig struct {
	URI      string
	User     string
	Password string
}

// StateFile returns the path of the incremental state file
func (c *Config) StateFile() string {
	return filepath.Join(c.CacheDir, "state.json")
}

// Load builds the configuration from environment variables with defaults
func Load() *Config {
	v := viper.New()
	v.SetDefault("NEO4J_URI", "bolt://localhost:7687")
	v.SetDefault("NEO4J_USER", "neo4j")
	v.SetDefault("NEO4J_PASSWORD", "password")
	v.SetDefault("ODOO_SOURCE_PATH", "/path/to/odoo")
	v.SetDefault("BATCH_SIZE", 1000)
	v.SetDefault("MAX_WORKERS", 4)
	v.SetDefault("CHANGE_THRESHOLD", 0.30)
	v.SetDefault("CACHE_DIR", ".cache")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.AutomaticEnv()

	return &Config{
		Neo4j: Neo4jConfig{
			URI:      v.GetString("NEO4J_URI"),
			User:     v.GetString("NEO4J_USER"),
			Password: v.GetString("NEO4J_PASSWORD"),
		},
		SourcePath:      v.GetString("ODOO_SOURCE_PATH"),
		BatchSize:       v.GetInt("BATCH_SIZE"),
		MaxWorkers:      v.GetInt("MAX_WORKERS"),
		ChangeThreshold: v.GetFloat64("CHANGE_THRESHOLD"),
		CacheDir:        v.GetString("CACHE_DIR"),
		Logging: logging.Config{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
			Output: "stderr",
		},
	}
}

// Global configuration instance
var globalConfig = Load()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
