package config

import "time"

// Config is the root configuration for the wstail client.
type Config struct {
	Target   TargetConfig   `yaml:"target"`
	Socket   SocketConfig   `yaml:"socket"`
	Proxy    ProxyConfig    `yaml:"proxy"`
	Recorder RecorderConfig `yaml:"recorder"`
	Database DBConfig       `yaml:"database"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// TargetConfig identifies the endpoint to connect to.
type TargetConfig struct {
	URL          string   `yaml:"url"`
	Backend      string   `yaml:"backend"` // "gorilla" or "coder"
	Origin       string   `yaml:"origin"`
	Subprotocols []string `yaml:"subprotocols"`
}

// SocketConfig holds connection backend settings.
type SocketConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	PingInterval     time.Duration `yaml:"ping_interval"`
	PingTimeout      time.Duration `yaml:"ping_timeout"`
	ReadLimit        int64         `yaml:"read_limit"`
	EventBuffer      int           `yaml:"event_buffer"`
}

// ProxyConfig holds proxy settings.
type ProxyConfig struct {
	EventBuffer int `yaml:"event_buffer"`
}

// RecorderConfig holds message transcript recorder settings.
type RecorderConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// DBConfig holds the transcript database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // "debug", "info", "warn", "error"
}
