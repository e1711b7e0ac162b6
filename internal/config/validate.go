package config

import (
	"errors"
	"fmt"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.Target.URL == "" {
		return errors.New("target.url is required")
	}
	if c.Target.Backend != "gorilla" && c.Target.Backend != "coder" {
		return fmt.Errorf("target.backend must be gorilla or coder, got %q", c.Target.Backend)
	}

	if c.Socket.HandshakeTimeout <= 0 {
		return errors.New("socket.handshake_timeout must be > 0")
	}
	if c.Socket.WriteTimeout <= 0 {
		return errors.New("socket.write_timeout must be > 0")
	}
	if c.Socket.PingInterval <= 0 {
		return errors.New("socket.ping_interval must be > 0")
	}
	if c.Socket.PingTimeout <= c.Socket.PingInterval {
		return errors.New("socket.ping_timeout must exceed socket.ping_interval")
	}
	if c.Socket.ReadLimit < 1 {
		return errors.New("socket.read_limit must be >= 1")
	}
	if c.Socket.EventBuffer < 1 {
		return errors.New("socket.event_buffer must be >= 1")
	}

	if c.Proxy.EventBuffer < 1 {
		return errors.New("proxy.event_buffer must be >= 1")
	}

	if c.Recorder.Enabled {
		if c.Recorder.BatchSize < 1 {
			return errors.New("recorder.batch_size must be >= 1")
		}
		if c.Recorder.BufferSize < 1 {
			return errors.New("recorder.buffer_size must be >= 1")
		}
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}

	return nil
}

func (db *DBConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.Password == "" {
		return fmt.Errorf("%s.password is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns (%d) cannot exceed max_conns (%d)", prefix, db.MinConns, db.MaxConns)
	}
	return nil
}
