package config

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Storage drivers.
const (
	DriverMongo    = "mongo"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"

	FilesLocal = "local"
	FilesS3    = "s3"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=production"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	JWT      JWTConfig
	Storage  StorageConfig
	Mongo    MongoConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Files    FilesConfig
	S3       S3Config

	JanitorWorkers int `env:"JANITOR_WORKERS, default=4"`
}

type JWTConfig struct {
	Secret string        `env:"JWT_SECRET, required"`
	TTL    time.Duration `env:"JWT_TTL,    default=24h"`
	Issuer string        `env:"JWT_ISSUER, default=travel-log"`
}

type StorageConfig struct {
	// Driver holds users and travel logs.
	Driver string `env:"STORAGE_DRIVER, default=mongo"`
	// TokenStore holds sessions. Empty means the same store as Driver.
	TokenStore string `env:"TOKEN_STORE"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=travel_log"`
}

type PostgresConfig struct {
	DSN string `env:"POSTGRES_DSN"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

type FilesConfig struct {
	Backend   string `env:"FILE_STORAGE,     default=local"`
	UploadDir string `env:"UPLOAD_DIR,       default=./uploads"`
	MaxBytes  int64  `env:"UPLOAD_MAX_BYTES, default=10485760"`
}

type S3Config struct {
	Bucket    string `env:"S3_BUCKET"`
	Region    string `env:"S3_REGION, default=us-east-1"`
	Endpoint  string `env:"S3_ENDPOINT"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	SecretKey string `env:"S3_SECRET_KEY"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads configuration from l and validates it.
func LoadWith(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) normalize() {
	c.Storage.Driver = strings.ToLower(strings.TrimSpace(c.Storage.Driver))
	c.Storage.TokenStore = strings.ToLower(strings.TrimSpace(c.Storage.TokenStore))
	if c.Storage.TokenStore == "" {
		c.Storage.TokenStore = c.Storage.Driver
	}
	c.Files.Backend = strings.ToLower(strings.TrimSpace(c.Files.Backend))
}

// Validate rejects unusable combinations.
func (c *Config) Validate() error {
	var errs []error

	if strings.TrimSpace(c.JWT.Secret) == "" {
		errs = append(errs, errors.New("JWT_SECRET must not be blank"))
	}
	if c.JWT.TTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}

	switch c.Storage.Driver {
	case DriverMongo:
	case DriverPostgres:
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("POSTGRES_DSN is required when STORAGE_DRIVER=postgres"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of mongo, postgres", c.Storage.Driver))
	}

	switch c.Storage.TokenStore {
	case c.Storage.Driver, DriverRedis:
	default:
		errs = append(errs, fmt.Errorf("TOKEN_STORE %q must be empty, redis or match STORAGE_DRIVER", c.Storage.TokenStore))
	}

	switch c.Files.Backend {
	case FilesLocal:
		if strings.TrimSpace(c.Files.UploadDir) == "" {
			errs = append(errs, errors.New("UPLOAD_DIR is required when FILE_STORAGE=local"))
		}
	case FilesS3:
		if c.S3.Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required when FILE_STORAGE=s3"))
		}
		if (c.S3.AccessKey == "") != (c.S3.SecretKey == "") {
			errs = append(errs, errors.New("S3_ACCESS_KEY and S3_SECRET_KEY must be set together"))
		}
	default:
		errs = append(errs, fmt.Errorf("FILE_STORAGE %q is not one of local, s3", c.Files.Backend))
	}

	if c.Files.MaxBytes <= 0 {
		errs = append(errs, errors.New("UPLOAD_MAX_BYTES must be positive"))
	}
	if c.JanitorWorkers <= 0 {
		errs = append(errs, errors.New("JANITOR_WORKERS must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

// IsDevelopment reports whether ENV selects the development profile.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// UsesRedis reports whether any component needs a Redis connection.
func (c *Config) UsesRedis() bool {
	return c.Storage.TokenStore == DriverRedis
}
