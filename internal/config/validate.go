package config

import (
	"errors"
	"fmt"
	"net"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateProvider(); err != nil {
		return err
	}
	if err := c.validateCache(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateServer() error {
	if _, _, err := net.SplitHostPort(c.Server.Bind); err != nil {
		return fmt.Errorf("server.bind %q is not a host:port address: %w", c.Server.Bind, err)
	}
	return nil
}

func (c *Config) validateProvider() error {
	// An empty key set is allowed at load time so the CLI config commands
	// work without credentials; the server surfaces it as a configuration
	// error when the provider is first needed.
	if c.Provider.RetryAttempts > 10 {
		return errors.New("provider.retry_attempts must be 10 or fewer")
	}
	if c.Provider.CallTimeoutMS > 120_000 {
		return errors.New("provider.call_timeout_ms must be two minutes or less")
	}
	return nil
}

func (c *Config) validateCache() error {
	if c.Cache.Capacity > 10_000 {
		return errors.New("cache.capacity must be 10000 or fewer entries")
	}
	if c.DegradedTTL() >= c.SuccessTTL() {
		return errors.New("cache.degraded_ttl_minutes must be shorter than cache.success_ttl_hours")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "", "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format %q is not supported (use console or json)", c.Logging.Format)
	}
}
