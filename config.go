package users

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// EnvPrefix is prepended to every variable read by LoadConfig.
const EnvPrefix = "USERS_"

// Config holds the environment-driven client settings.
type Config struct {
	BaseURL        string        `env:"BASE_URL,        default=http://localhost:8000"`
	Timeout        time.Duration `env:"TIMEOUT,         default=10s"`
	UserAgent      string        `env:"USER_AGENT"`
	StrictDecoding bool          `env:"STRICT_DECODING, default=false"`
}

// LoadConfig reads USERS_BASE_URL, USERS_TIMEOUT, USERS_USER_AGENT and
// USERS_STRICT_DECODING from the process environment.
func LoadConfig(ctx context.Context) (Config, error) {
	return loadConfig(ctx, envconfig.OsLookuper())
}

func loadConfig(ctx context.Context, l envconfig.Lookuper) (Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper(EnvPrefix, l),
	})
	if err != nil {
		return Config{}, fmt.Errorf("loading config: %w", err)
	}

	return cfg, nil
}
