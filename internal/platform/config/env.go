package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Server holds the process settings of coldfront-server.
type Server struct {
	Addr           string        `env:"COLDFRONT_ADDR"            envDefault:":8080"`
	DBPath         string        `env:"COLDFRONT_DB_PATH"         envDefault:"data/coldfront.db"`
	ConfigFile     string        `env:"COLDFRONT_CONFIG"`
	TickInterval   time.Duration `env:"COLDFRONT_TICK_INTERVAL"   envDefault:"50ms"`
	ActionInterval time.Duration `env:"COLDFRONT_ACTION_INTERVAL" envDefault:"100ms"` // per-client rate limit
	LogLevel       string        `env:"COLDFRONT_LOG_LEVEL"       envDefault:"info"`
	LogFormat      string        `env:"COLDFRONT_LOG_FORMAT"      envDefault:"text"`
	AutoStart      bool          `env:"COLDFRONT_AUTOSTART"       envDefault:"true"` // begin in Playing instead of Menu
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServer reads the server settings from the environment.
func LoadServer() (Server, error) {
	var cfg Server
	if err := ParseEnv(&cfg); err != nil {
		return Server{}, err
	}
	if cfg.TickInterval <= 0 {
		return Server{}, fmt.Errorf("COLDFRONT_TICK_INTERVAL must be positive, got %s", cfg.TickInterval)
	}
	return cfg, nil
}
