package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is prepended to every environment override, e.g. POCKETFLIX_REDIS_ADDR.
const EnvPrefix = "POCKETFLIX_"

type Config struct {
	Server struct {
		Port            string `yaml:"port" env:"PORT"`
		ReadTimeout     string `yaml:"read_timeout" env:"READ_TIMEOUT"`
		WriteTimeout    string `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
		ShutdownTimeout string `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
	} `yaml:"server" envPrefix:"SERVER_"`
	Log struct {
		Level  string `yaml:"level" env:"LEVEL"`
		Format string `yaml:"format" env:"FORMAT"`
	} `yaml:"log" envPrefix:"LOG_"`
	Backend struct {
		// Driver is memory or postgres.
		Driver    string   `yaml:"driver" env:"DRIVER"`
		Admins    []string `yaml:"admins" env:"ADMINS" envSeparator:","`
		DialRetry string   `yaml:"dial_retry" env:"DIAL_RETRY"`
		// Seed loads a sample catalog into an empty memory backend.
		Seed bool `yaml:"seed" env:"SEED"`
	} `yaml:"backend" envPrefix:"BACKEND_"`
	Postgres struct {
		URL     string `yaml:"url" env:"URL"`
		Migrate bool   `yaml:"migrate" env:"MIGRATE"`
	} `yaml:"postgres" envPrefix:"POSTGRES_"`
	Redis struct {
		Addr     string `yaml:"addr" env:"ADDR"`
		Password string `yaml:"password" env:"PASSWORD"`
		DB       int    `yaml:"db" env:"DB"`
	} `yaml:"redis" envPrefix:"REDIS_"`
	Cache struct {
		// Store is memory or redis.
		Store      string `yaml:"store" env:"STORE"`
		TTL        string `yaml:"ttl" env:"TTL"`
		StaleTime  string `yaml:"stale_time" env:"STALE_TIME"`
		Retry      int    `yaml:"retry" env:"RETRY"`
		RetryDelay string `yaml:"retry_delay" env:"RETRY_DELAY"`
		Wait       string `yaml:"wait" env:"WAIT"`
	} `yaml:"cache" envPrefix:"CACHE_"`
	Attempts struct {
		// Store is memory or redis.
		Store string `yaml:"store" env:"STORE"`
		TTL   string `yaml:"ttl" env:"TTL"`
	} `yaml:"attempts" envPrefix:"ATTEMPTS_"`
	Blob struct {
		// Driver is memory or minio.
		Driver        string `yaml:"driver" env:"DRIVER"`
		Endpoint      string `yaml:"endpoint" env:"ENDPOINT"`
		AccessKey     string `yaml:"access_key" env:"ACCESS_KEY"`
		SecretKey     string `yaml:"secret_key" env:"SECRET_KEY"`
		Bucket        string `yaml:"bucket" env:"BUCKET"`
		Secure        bool   `yaml:"secure" env:"SECURE"`
		BaseURL       string `yaml:"base_url" env:"BASE_URL"`
		CacheTTL      string `yaml:"cache_ttl" env:"CACHE_TTL"`
		CacheMaxBytes int64  `yaml:"cache_max_bytes" env:"CACHE_MAX_BYTES"`
	} `yaml:"blob" envPrefix:"BLOB_"`
	Auth struct {
		// Mode is none, jwt or oidc.
		Mode         string `yaml:"mode" env:"MODE"`
		JWTSecret    string `yaml:"jwt_secret" env:"JWT_SECRET"`
		Issuer       string `yaml:"issuer" env:"ISSUER"`
		ClientID     string `yaml:"client_id" env:"CLIENT_ID"`
		ClientSecret string `yaml:"client_secret" env:"CLIENT_SECRET"`
		RedirectURL  string `yaml:"redirect_url" env:"REDIRECT_URL"`
		Cookie       string `yaml:"cookie" env:"COOKIE"`
		SecureCookie bool   `yaml:"secure_cookie" env:"SECURE_COOKIE"`
	} `yaml:"auth" envPrefix:"AUTH_"`
}

// Default is the configuration used for anything the file and environment leave unset.
func Default() Config {
	var cfg Config
	cfg.Server.Port = "8080"
	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Backend.Driver = "memory"
	cfg.Backend.DialRetry = "2s"
	cfg.Cache.Store = "memory"
	cfg.Cache.TTL = "10m"
	cfg.Cache.StaleTime = "30s"
	cfg.Cache.Retry = 3
	cfg.Cache.RetryDelay = "1s"
	cfg.Attempts.Store = "memory"
	cfg.Attempts.TTL = "1h"
	cfg.Blob.Driver = "memory"
	cfg.Blob.Bucket = "pocketflix"
	cfg.Blob.BaseURL = "/media"
	cfg.Blob.CacheTTL = "10m"
	cfg.Blob.CacheMaxBytes = 2 << 20
	cfg.Auth.Mode = "none"
	return cfg
}

// Load reads YAML config from path over the defaults, then applies POCKETFLIX_*
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("parse %s: %w", path, err)
			}
		}
	}
	if err := env.Parse(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("read environment: %w", err)
	}
	return cfg, cfg.Validate()
}

func oneOf(field, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unsupported value %q (want one of %v)", field, value, allowed)
}

// Validate checks driver selections and the settings each one depends on.
func (c Config) Validate() error {
	var errs []error
	if err := oneOf("backend.driver", c.Backend.Driver, "memory", "postgres"); err != nil {
		errs = append(errs, err)
	}
	if c.Backend.Driver == "postgres" && c.Postgres.URL == "" {
		errs = append(errs, errors.New("postgres.url is required for the postgres backend"))
	}
	if err := oneOf("cache.store", c.Cache.Store, "memory", "redis"); err != nil {
		errs = append(errs, err)
	}
	if err := oneOf("attempts.store", c.Attempts.Store, "memory", "redis"); err != nil {
		errs = append(errs, err)
	}
	if (c.Cache.Store == "redis" || c.Attempts.Store == "redis") && c.Redis.Addr == "" {
		errs = append(errs, errors.New("redis.addr is required when a redis store is selected"))
	}
	if err := oneOf("blob.driver", c.Blob.Driver, "memory", "minio"); err != nil {
		errs = append(errs, err)
	}
	if c.Blob.Driver == "minio" && c.Blob.Endpoint == "" {
		errs = append(errs, errors.New("blob.endpoint is required for minio"))
	}
	if err := oneOf("auth.mode", c.Auth.Mode, "none", "jwt", "oidc"); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.Mode == "jwt" && c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required in jwt mode"))
	}
	if c.Auth.Mode == "oidc" && (c.Auth.Issuer == "" || c.Auth.ClientID == "") {
		errs = append(errs, errors.New("auth.issuer and auth.client_id are required in oidc mode"))
	}
	if err := oneOf("log.format", c.Log.Format, "text", "json"); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
