// Package config loads the service configuration from a YAML file with
// environment-variable expansion, defaults, and validation.
package config

import "time"

// ServiceConfig is the root configuration for the ticketing service.
type ServiceConfig struct {
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Oracle  OracleConfig  `yaml:"oracle"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StorageConfig selects the storage backend.
type StorageConfig struct {
	Backend     string `yaml:"backend"` // "memory" or "postgres"
	PostgresDSN string `yaml:"postgres_dsn"`
}

// OracleConfig holds the price source settings. The endpoints, pair,
// and staleness window seed the pricing configuration when the instance
// is initialized; timeout and retries shape the HTTP source clients.
type OracleConfig struct {
	Endpoint    string        `yaml:"endpoint"`     // primary oracle
	DexEndpoint string        `yaml:"dex_endpoint"` // exchange router fallback
	SpotWSURL   string        `yaml:"spot_ws_url"`  // optional WebSocket tick stream
	Pair        string        `yaml:"pair"`
	MaxAge      time.Duration `yaml:"max_age"`
	HTTPTimeout time.Duration `yaml:"http_timeout"`
	MaxRetries  int           `yaml:"max_retries"`
}
