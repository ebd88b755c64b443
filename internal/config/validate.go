// If you are AI: This file validates configuration values and returns descriptive errors.

package config

import (
	"fmt"

	"roomlink/internal/core/transport"
)

// Validate checks that all configuration values are within acceptable ranges.
// Returns an error describing the first validation failure found.
func (c *Config) Validate() error {
	if err := c.Log.Validate(); err != nil {
		return fmt.Errorf("log config: %w", err)
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http config: port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if err := c.Connection.Validate(); err != nil {
		return fmt.Errorf("connection config: %w", err)
	}
	if err := c.Protocol.Validate(); err != nil {
		return fmt.Errorf("protocol config: %w", err)
	}
	if err := c.Reconnect.Validate(); err != nil {
		return fmt.Errorf("reconnect config: %w", err)
	}
	return nil
}

// Validate checks log settings.
func (l *LogConfig) Validate() error {
	switch l.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("level must be debug, info, warn or error, got %q", l.Level)
	}
	if l.Format != "text" && l.Format != "json" {
		return fmt.Errorf("format must be text or json, got %q", l.Format)
	}
	return nil
}

// Validate checks the connection descriptor.
func (c *ConnectionConfig) Validate() error {
	if c.IP == "" {
		return fmt.Errorf("ip is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	if c.App == "" {
		return fmt.Errorf("app is required")
	}
	if c.Proxy != "" {
		if _, err := transport.ParseProxy(c.Proxy); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks protocol settings.
func (p *ProtocolConfig) Validate() error {
	if p.ChunkSize < 1 || p.ChunkSize > 65536 {
		return fmt.Errorf("chunk_size must be between 1 and 65536, got %d", p.ChunkSize)
	}
	if p.DialTimeout < 0 {
		return fmt.Errorf("dial_timeout must not be negative, got %s", p.DialTimeout)
	}
	if p.KeepAlive < 0 {
		return fmt.Errorf("keepalive must not be negative, got %s", p.KeepAlive)
	}
	if p.PingInterval < 0 {
		return fmt.Errorf("ping_interval must not be negative, got %s", p.PingInterval)
	}
	if err := p.routePolicy().Validate(); err != nil {
		return fmt.Errorf("routes: %w", err)
	}
	return nil
}

// Validate checks the reconnect policy.
func (r *ReconnectConfig) Validate() error {
	if r.BaseDelay <= 0 {
		return fmt.Errorf("base_delay must be positive, got %s", r.BaseDelay)
	}
	if r.MaxDelay < r.BaseDelay {
		return fmt.Errorf("max_delay %s must not be below base_delay %s", r.MaxDelay, r.BaseDelay)
	}
	if r.SecondaryDelay <= 0 {
		return fmt.Errorf("secondary_delay must be positive, got %s", r.SecondaryDelay)
	}
	if r.RefreshInterval < 0 {
		return fmt.Errorf("refresh_interval must not be negative, got %s", r.RefreshInterval)
	}
	return nil
}
