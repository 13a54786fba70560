package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *ServiceConfig) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}

	switch c.Storage.Backend {
	case "memory":
	case "postgres":
		if c.Storage.PostgresDSN == "" {
			return errors.New("storage.postgres_dsn is required for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend must be memory or postgres, got %q", c.Storage.Backend)
	}

	if c.Oracle.Endpoint == "" {
		return errors.New("oracle.endpoint is required")
	}
	if c.Oracle.DexEndpoint == "" && c.Oracle.SpotWSURL == "" {
		return errors.New("one of oracle.dex_endpoint or oracle.spot_ws_url is required")
	}
	if c.Oracle.MaxAge < 0 {
		return errors.New("oracle.max_age must be >= 0")
	}
	if c.Oracle.MaxRetries < 0 {
		return errors.New("oracle.max_retries must be >= 0")
	}

	return nil
}
