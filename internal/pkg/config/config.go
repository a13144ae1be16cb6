package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port        string `env:"PORT,          default=8080"`
	Env         string `env:"ENV,           default=development"`
	LogLevel    string `env:"LOG_LEVEL,     default=info"`
	APIBasePath string `env:"API_BASE_PATH, default=/api/v1"`

	MetricsEnabled bool `env:"METRICS_ENABLED, default=true"`
	SwaggerEnabled bool `env:"SWAGGER_ENABLED, default=true"`

	Auth      AuthConfig
	Hash      HashConfig
	Directory DirectoryConfig
	Mongo     MongoConfig
	Redis     RedisConfig
}

type AuthConfig struct {
	JWTSecret          string        `env:"JWT_SECRET"`
	TokenTTL           time.Duration `env:"TOKEN_TTL,            default=24h"`
	PasswordMinLength  int           `env:"PASSWORD_MIN_LENGTH,  default=8"`
	LoginMaxFailures   int           `env:"LOGIN_MAX_FAILURES,   default=10"`
	LoginFailureWindow time.Duration `env:"LOGIN_FAILURE_WINDOW, default=15m"`
}

type HashConfig struct {
	Algorithm       string `env:"HASH_ALGORITHM,    default=bcrypt"`
	BcryptCost      int    `env:"BCRYPT_COST,       default=12"`
	Argon2Time      uint32 `env:"ARGON2_TIME,       default=3"`
	Argon2MemoryKiB uint32 `env:"ARGON2_MEMORY_KIB, default=65536"`
	Argon2Threads   uint8  `env:"ARGON2_THREADS,    default=2"`
	// Workers sizes the credential worker pool; 0 means one per CPU.
	Workers int `env:"HASH_WORKERS, default=0"`
}

type DirectoryConfig struct {
	Driver string `env:"DIRECTORY_DRIVER, default=mongo"`
}

type MongoConfig struct {
	URI             string `env:"MONGO_URI,              default=mongodb://localhost:27017"`
	Database        string `env:"MONGO_DB,               default=identity"`
	UsersCollection string `env:"MONGO_USERS_COLLECTION, default=users"`
}

// RedisConfig configures the failed-login throttle. An empty Addr disables it.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB, default=0"`
}

const (
	DriverMongo  = "mongo"
	DriverMemory = "memory"
)

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration through l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("TOKEN_TTL must be positive"))
	}
	if c.Auth.PasswordMinLength <= 0 {
		errs = append(errs, errors.New("PASSWORD_MIN_LENGTH must be positive"))
	}
	if c.Auth.LoginMaxFailures <= 0 {
		errs = append(errs, errors.New("LOGIN_MAX_FAILURES must be positive"))
	}
	if c.Auth.LoginFailureWindow <= 0 {
		errs = append(errs, errors.New("LOGIN_FAILURE_WINDOW must be positive"))
	}
	switch c.Hash.Algorithm {
	case "bcrypt", "argon2id":
	default:
		errs = append(errs, fmt.Errorf("HASH_ALGORITHM %q is not supported", c.Hash.Algorithm))
	}
	if c.Hash.Workers < 0 {
		errs = append(errs, errors.New("HASH_WORKERS must not be negative"))
	}
	switch c.Directory.Driver {
	case DriverMongo, DriverMemory:
	default:
		errs = append(errs, fmt.Errorf("DIRECTORY_DRIVER %q is not supported", c.Directory.Driver))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// IsDevelopment reports whether the service runs in a local environment.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development" || c.Env == "local"
}
