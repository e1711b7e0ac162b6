package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultBackend          = "gorilla"
	DefaultHandshakeTimeout = 10 * time.Second
	DefaultWriteTimeout     = 5 * time.Second
	DefaultPingInterval     = 15 * time.Second
	DefaultPingTimeout      = 60 * time.Second
	DefaultReadLimit        = 1 << 20
	DefaultEventBuffer      = 64
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultBatchSize        = 100
	DefaultFlushInterval    = 1 * time.Second
	DefaultBufferSize       = 1000
	DefaultLogLevel         = "info"
)

func (c *Config) applyDefaults() {
	// Target defaults
	if c.Target.Backend == "" {
		c.Target.Backend = DefaultBackend
	}

	// Socket defaults
	if c.Socket.HandshakeTimeout == 0 {
		c.Socket.HandshakeTimeout = DefaultHandshakeTimeout
	}
	if c.Socket.WriteTimeout == 0 {
		c.Socket.WriteTimeout = DefaultWriteTimeout
	}
	if c.Socket.PingInterval == 0 {
		c.Socket.PingInterval = DefaultPingInterval
	}
	if c.Socket.PingTimeout == 0 {
		c.Socket.PingTimeout = DefaultPingTimeout
	}
	if c.Socket.ReadLimit == 0 {
		c.Socket.ReadLimit = DefaultReadLimit
	}
	if c.Socket.EventBuffer == 0 {
		c.Socket.EventBuffer = DefaultEventBuffer
	}

	// Proxy defaults
	if c.Proxy.EventBuffer == 0 {
		c.Proxy.EventBuffer = DefaultEventBuffer
	}

	// Recorder defaults
	if c.Recorder.BatchSize == 0 {
		c.Recorder.BatchSize = DefaultBatchSize
	}
	if c.Recorder.FlushInterval == 0 {
		c.Recorder.FlushInterval = DefaultFlushInterval
	}
	if c.Recorder.BufferSize == 0 {
		c.Recorder.BufferSize = DefaultBufferSize
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}

	// Logging defaults
	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
}
