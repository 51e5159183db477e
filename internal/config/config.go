package config

import "time"

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	DatabasePath      string        `mapstructure:"database_path" yaml:"database_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`

	JWTSecret   string `mapstructure:"jwt_secret" yaml:"jwt_secret"`
	JWTIssuer   string `mapstructure:"jwt_issuer" yaml:"jwt_issuer"`
	JWTAudience string `mapstructure:"jwt_audience" yaml:"jwt_audience"`

	// HistoryLimit is how many recent messages a joining connection receives.
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`

	// OutboundQueueSize bounds each connection's outbound event queue;
	// on overflow the oldest pending event is dropped.
	OutboundQueueSize int `mapstructure:"outbound_queue_size" yaml:"outbound_queue_size"`

	// PersistTimeout bounds persistence calls made on the command path.
	PersistTimeout time.Duration `mapstructure:"persist_timeout" yaml:"persist_timeout"`

	// WSRateLimit caps inbound commands per connection per minute; 0 disables.
	WSRateLimit int `mapstructure:"ws_rate_limit" yaml:"ws_rate_limit"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		DatabasePath:      "chatstream.db",
		LogLevel:          "info",
		JWTSecret:         "change-me",
		JWTIssuer:         "chatstream",
		JWTAudience:       "chatstream-clients",
		HistoryLimit:      50,
		OutboundQueueSize: 64,
		PersistTimeout:    5 * time.Second,
		WSRateLimit:       600,
	}
}
