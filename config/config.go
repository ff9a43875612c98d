package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

type Config struct {
	Port       string        `toml:"port"`
	LogLevel   string        `toml:"log_level"`
	LogFormat  string        `toml:"log_format"`
	JWTSecret  string        `toml:"jwt_secret"`
	TokenTTL   time.Duration `toml:"token_ttl"`
	RefreshTTL time.Duration `toml:"refresh_ttl"`
	// AllowedOrigins lists the CORS origins; "*" allows any.
	AllowedOrigins []string `toml:"allowed_origins"`

	Database DatabaseConfig `toml:"database"`
	Storage  StorageConfig  `toml:"storage"`
}

type StorageConfig struct {
	Driver   string   `toml:"driver"` // "local" or "r2"
	MediaDir string   `toml:"media_dir"`
	R2       R2Config `toml:"r2"`
}

func NewConfig() *Config {
	return &Config{}
}

// Load reads .env, then the optional TOML file at path with environment
// variables expanded, then fills anything still empty from the environment
// and finally from defaults.
func Load(path string) (*Config, error) {
	// Missing .env is fine in production.
	_ = godotenv.Load()

	cfg := NewConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if _, err := toml.Decode(os.ExpandEnv(string(data)), cfg); err != nil {
				return nil, fmt.Errorf("decode %s: %w", path, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, err
		}
	}

	cfg.fromEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) fromEnv() {
	setFromEnv(&c.Port, "PORT")
	setFromEnv(&c.LogLevel, "LOG_LEVEL")
	setFromEnv(&c.LogFormat, "LOG_FORMAT")
	setFromEnv(&c.JWTSecret, "JWT_SECRET")
	setDurationFromEnv(&c.TokenTTL, "TOKEN_TTL")
	setDurationFromEnv(&c.RefreshTTL, "REFRESH_TTL")

	setFromEnv(&c.Database.URL, "DATABASE_URL")
	setFromEnv(&c.Database.Host, "DB_HOST")
	setFromEnv(&c.Database.User, "DB_USER")
	setFromEnv(&c.Database.Password, "DB_PASSWORD")
	setFromEnv(&c.Database.Name, "DB_NAME")
	setFromEnv(&c.Database.Port, "DB_PORT")

	if len(c.AllowedOrigins) == 0 {
		if v := os.Getenv("CORS_ORIGINS"); v != "" {
			for _, origin := range strings.Split(v, ",") {
				c.AllowedOrigins = append(c.AllowedOrigins, strings.TrimSpace(origin))
			}
		}
	}

	setFromEnv(&c.Storage.Driver, "STORAGE_DRIVER")
	setFromEnv(&c.Storage.MediaDir, "MEDIA_DIR")
	c.Storage.R2.fromEnv()
}

func (c *Config) setDefaults() {
	setDefault(&c.Port, "8080")
	setDefault(&c.LogLevel, "info")
	setDefault(&c.LogFormat, "text")
	if c.TokenTTL == 0 {
		c.TokenTTL = 7 * 24 * time.Hour
	}
	if c.RefreshTTL == 0 {
		c.RefreshTTL = 30 * 24 * time.Hour
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	setDefault(&c.Database.Host, "localhost")
	setDefault(&c.Database.Port, "5432")
	setDefault(&c.Storage.Driver, "local")
	setDefault(&c.Storage.MediaDir, "media")
	setDefault(&c.Storage.R2.Region, "auto")
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("config: jwt secret is required")
	}
	switch c.Storage.Driver {
	case "local":
	case "r2":
		if c.Storage.R2.BucketName == "" || c.Storage.R2.PublicURL == "" {
			return errors.New("config: r2 storage needs a bucket name and a public url")
		}
	default:
		return fmt.Errorf("config: unknown storage driver %q", c.Storage.Driver)
	}
	return nil
}

func setFromEnv(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

func setDurationFromEnv(dst *time.Duration, key string) {
	if *dst != 0 {
		return
	}
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		*dst = d
	}
}

func setDefault(dst *string, value string) {
	if *dst == "" {
		*dst = value
	}
}
