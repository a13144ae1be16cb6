// @title           Identity API
// @version         1.0
// @description     User registration, login and role-based access to the user directory.
// @BasePath        /api/v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/artistsnetwork/identity/internal/api"
	"github.com/artistsnetwork/identity/internal/api/handler"
	"github.com/artistsnetwork/identity/internal/core/ports"
	"github.com/artistsnetwork/identity/internal/core/service"
	"github.com/artistsnetwork/identity/internal/infrastructure/db/memory"
	mongodir "github.com/artistsnetwork/identity/internal/infrastructure/db/mongo"
	redisthrottle "github.com/artistsnetwork/identity/internal/infrastructure/db/redis"
	"github.com/artistsnetwork/identity/internal/infrastructure/security/password"
	"github.com/artistsnetwork/identity/internal/infrastructure/security/token"
	"github.com/artistsnetwork/identity/internal/infrastructure/workpool"
	"github.com/artistsnetwork/identity/internal/pkg/config"
	"github.com/artistsnetwork/identity/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "identity: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is normal outside local development.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "identity",
	})

	readiness := map[string]handler.Pinger{}

	dir, closeDir, err := openDirectory(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeDir()
	if p, ok := dir.(handler.Pinger); ok {
		readiness["directory"] = p
	}

	var throttle ports.LoginThrottle
	if cfg.Redis.Addr != "" {
		rdb, err := redisthrottle.Connect(ctx, redisthrottle.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		lt := redisthrottle.NewLoginThrottle(rdb, cfg.Auth.LoginMaxFailures, cfg.Auth.LoginFailureWindow)
		throttle = lt
		readiness["redis"] = lt
		log.Info().Str("addr", cfg.Redis.Addr).Msg("login throttle enabled")
	} else {
		log.Warn().Msg("REDIS_ADDR not set, failed logins are not throttled")
	}

	pool := workpool.New(cfg.Hash.Workers, logger.Component("workpool"))
	pool.Start(context.Background())
	defer pool.Stop()

	hasher, err := password.New(password.Config{
		Algorithm:  password.Name(cfg.Hash.Algorithm),
		BcryptCost: cfg.Hash.BcryptCost,
		Argon2: password.Argon2Params{
			Time:      cfg.Hash.Argon2Time,
			MemoryKiB: cfg.Hash.Argon2MemoryKiB,
			Threads:   cfg.Hash.Argon2Threads,
		},
	}, pool)
	if err != nil {
		return fmt.Errorf("password hasher: %w", err)
	}

	tokens, err := token.NewService([]byte(cfg.Auth.JWTSecret))
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	policy := service.PasswordPolicy{MinLength: cfg.Auth.PasswordMinLength, MaxLength: hasher.MaxLength()}
	e := api.NewRouter(api.Dependencies{
		Registration:   service.NewRegistrationService(dir, hasher, policy, logger.Component("registration")),
		Auth:           service.NewAuthService(dir, hasher, tokens, throttle, cfg.Auth.TokenTTL, logger.Component("auth")),
		Users:          service.NewUserService(dir),
		Readiness:      readiness,
		Logger:         logger.Component("http"),
		BasePath:       cfg.APIBasePath,
		MetricsEnabled: cfg.MetricsEnabled,
		SwaggerEnabled: cfg.SwaggerEnabled,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("port", cfg.Port).
			Str("directory", cfg.Directory.Driver).
			Str("hash", cfg.Hash.Algorithm).
			Int("hash_workers", pool.Workers()).
			Msg("identity service listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openDirectory selects the user directory backend and returns a cleanup
// func for it.
func openDirectory(ctx context.Context, cfg *config.Config, log zerolog.Logger) (ports.UserDirectory, func(), error) {
	switch cfg.Directory.Driver {
	case config.DriverMemory:
		log.Warn().Msg("using in-memory user directory, data is lost on restart")
		return memory.NewUserDirectory(), func() {}, nil
	default:
		client, db, err := mongodir.Connect(ctx, mongodir.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			dctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := client.Disconnect(dctx); err != nil {
				log.Error().Err(err).Msg("mongo disconnect")
			}
		}

		dir := mongodir.NewUserDirectory(db, cfg.Mongo.UsersCollection)
		if err := dir.EnsureIndexes(ctx); err != nil {
			closeFn()
			return nil, nil, fmt.Errorf("mongo indexes: %w", err)
		}
		log.Info().Str("db", cfg.Mongo.Database).Msg("connected to mongodb")
		return dir, closeFn, nil
	}
}
