// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Load layers a YAML file and environment variables over the defaults.
// - External errors are wrapped with this package's sentinel kinds.
package config

// Store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level" validate:"oneof=debug info warn warning error"`

	// LogFormat selects the slog handler: text or json.
	LogFormat string `koanf:"log_format" validate:"oneof=text json"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr" validate:"required"`

	// Store selects the authoritative score store: memory or redis.
	Store string `koanf:"store" validate:"oneof=memory redis"`

	// RedisAddrs lists the Redis endpoints; one address means a single node.
	RedisAddrs     []string `koanf:"redis_addrs" validate:"required_if=Store redis,dive,hostname_port"`
	RedisPassword  string   `koanf:"redis_password"`
	RedisDB        int      `koanf:"redis_db" validate:"min=0"`
	NotifyChannel  string   `koanf:"notify_channel" validate:"required"`
	NotifyBuffer   int      `koanf:"notify_buffer" validate:"min=1"`
	DedupeSize     int      `koanf:"dedupe_size" validate:"min=1"`
	PollIntervalMS int      `koanf:"poll_interval_ms" validate:"min=0"`

	// DefaultTrimPercentage applies to the trimmed method when a ranking
	// config leaves the percentage unset.
	DefaultTrimPercentage float64 `koanf:"default_trim_percentage" validate:"min=0,max=100"`

	// FixturePath optionally seeds the store from a YAML competition fixture.
	FixturePath string `koanf:"fixture_path"`

	// MaxRequestBytes caps request bodies.
	MaxRequestBytes int64 `koanf:"max_request_bytes" validate:"min=1"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		Store:                 StoreMemory,
		RedisAddrs:            []string{"localhost:6379"},
		NotifyChannel:         "podium:notifications",
		NotifyBuffer:          1024,
		DedupeSize:            100_000,
		PollIntervalMS:        0,
		DefaultTrimPercentage: 20,
		MaxRequestBytes:       1 << 20,
	}
}
