package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultAddr            = ":8080"
	DefaultShutdownTimeout = 30 * time.Second
	DefaultBackend         = "memory"
	DefaultPair            = "XLM/USD"
	DefaultMaxAge          = 24 * time.Hour
	DefaultHTTPTimeout     = 30 * time.Second
	DefaultMaxRetries      = 3
)

func (c *ServiceConfig) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	if c.Storage.Backend == "" {
		c.Storage.Backend = DefaultBackend
	}

	if c.Oracle.Pair == "" {
		c.Oracle.Pair = DefaultPair
	}
	if c.Oracle.MaxAge == 0 {
		c.Oracle.MaxAge = DefaultMaxAge
	}
	if c.Oracle.HTTPTimeout == 0 {
		c.Oracle.HTTPTimeout = DefaultHTTPTimeout
	}
	if c.Oracle.MaxRetries == 0 {
		c.Oracle.MaxRetries = DefaultMaxRetries
	}
}
