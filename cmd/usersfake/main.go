// Command usersfake serves the in-memory fake of the user-authentication
// service on a real port, for manual testing and integration runs.
//
// Configuration is read from FAKE_* environment variables:
//
//	FAKE_ADDR                   listen address (default ":8000")
//	FAKE_SECRET                 token signing secret (random when unset)
//	FAKE_TOKEN_TTL              token lifetime (default 1h)
//	FAKE_REQUIRE_VERIFICATION   reject logins of unverified users
//	FAKE_LOG_LEVEL              debug, info, warn or error (default info)
//	FAKE_ADMIN_EMAIL            seed a verified superuser with this email
//	FAKE_ADMIN_PASSWORD         password of the seeded superuser
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sethvargo/go-envconfig"

	"github.com/adamwoolhether/users"
	"github.com/adamwoolhether/users/internal/server"
	"github.com/adamwoolhether/users/userstest"
)

type config struct {
	Addr                string        `env:"ADDR,                 default=:8000"`
	Secret              string        `env:"SECRET"`
	TokenTTL            time.Duration `env:"TOKEN_TTL,            default=1h"`
	RequireVerification bool          `env:"REQUIRE_VERIFICATION, default=false"`
	LogLevel            slog.Level    `env:"LOG_LEVEL,            default=info"`
	AdminEmail          string        `env:"ADMIN_EMAIL"`
	AdminPassword       string        `env:"ADMIN_PASSWORD"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("usersfake", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	var cfg config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("FAKE_", envconfig.OsLookuper()),
	})
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	opts := []userstest.Option{
		userstest.WithLogger(log),
		userstest.WithTokenTTL(cfg.TokenTTL),
	}
	if cfg.Secret != "" {
		opts = append(opts, userstest.WithSecret(cfg.Secret))
	}
	if cfg.RequireVerification {
		opts = append(opts, userstest.WithRequireVerification())
	}

	svc := userstest.NewService(opts...)

	if cfg.AdminEmail != "" {
		admin := users.User{
			Username:    "admin",
			Email:       cfg.AdminEmail,
			IsActive:    true,
			IsSuperuser: true,
			IsVerified:  true,
		}
		if _, err := svc.Seed(admin, cfg.AdminPassword); err != nil {
			return err
		}
		log.Info("seeded superuser", "email", cfg.AdminEmail)
	}

	srv := server.New(svc, server.WithHost(cfg.Addr), server.WithLogger(log))

	return srv.Run(ctx)
}
