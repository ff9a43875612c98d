package config

import (
	"fmt"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	"github.com/snap-point/social-api/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type DatabaseConfig struct {
	URL      string `toml:"url"`
	Host     string `toml:"host"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	Name     string `toml:"name"`
	Port     string `toml:"port"`
}

func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.Host, c.User, c.Password, c.Name, c.Port)
}

type R2Config struct {
	AccountID       string `toml:"account_id"`
	AccessKeyID     string `toml:"access_key_id"`
	SecretAccessKey string `toml:"secret_access_key"`
	BucketName      string `toml:"bucket_name"`
	PublicURL       string `toml:"public_url"`
	Region          string `toml:"region"`
}

func (c *R2Config) fromEnv() {
	setFromEnv(&c.AccountID, "CLOUDFLARE_ACCOUNT_ID")
	setFromEnv(&c.AccessKeyID, "CLOUDFLARE_ACCESS_KEY_ID")
	setFromEnv(&c.SecretAccessKey, "CLOUDFLARE_SECRET_ACCESS_KEY")
	setFromEnv(&c.BucketName, "CLOUDFLARE_BUCKET_NAME")
	setFromEnv(&c.PublicURL, "CLOUDFLARE_PUBLIC_URL")
}

// InitDB connects through lib/pq and migrates the schema.
func InitDB(cfg DatabaseConfig, log *logrus.Logger) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        cfg.DSN(),
	}), &gorm.Config{
		Logger: logger.New(log, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
	})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.User{}, &models.Profile{}, &models.Follow{}, &models.RefreshToken{}); err != nil {
		return err
	}
	// usernames are unique regardless of case
	return db.Exec("CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_lower ON users (LOWER(username))").Error
}

func NewLogger(cfg *Config) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	log.SetLevel(level)

	if cfg.LogFormat == "json" {
		log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: time.RFC3339})
	}
	return log, nil
}
