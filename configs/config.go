package configs

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// AppConfig holds the application configuration.
// It's populated once by LoadConfig.
var AppConfig Configuration
var once sync.Once

const defaultJWTSecret = "obrig-dev-secret" // used when JWT_SECRET_KEY is not set

// DatabaseOptions selects and configures the gorm dialector.
type DatabaseOptions struct {
	Type            string        `env:"DB_TYPE" envDefault:"sqlite"` // sqlite or postgres
	SQLitePath      string        `env:"SQLITE_DB_PATH" envDefault:"data/obrig.db"`
	Host            string        `env:"DB_HOST" envDefault:"localhost"`
	Port            string        `env:"DB_PORT" envDefault:"5432"`
	User            string        `env:"DB_USER" envDefault:"postgres"`
	Password        string        `env:"DB_PASSWORD" envDefault:"postgres"`
	Name            string        `env:"DB_NAME" envDefault:"obrig"`
	SSLMode         string        `env:"DB_SSLMODE" envDefault:"disable"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS" envDefault:"10"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// PostgresDSN builds a libpq style connection string.
func (d DatabaseOptions) PostgresDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// SMTPOptions configures outgoing mail.
type SMTPOptions struct {
	Host     string `env:"SMTP_HOST"`
	Port     int    `env:"SMTP_PORT" envDefault:"587"`
	Username string `env:"SMTP_USERNAME"`
	Password string `env:"SMTP_PASSWORD"`
	From     string `env:"SMTP_FROM" envDefault:"obrig@localhost"`
}

// Configuration defines the structure for application settings.
type Configuration struct {
	ServerPort     string        `env:"SERVER_PORT" envDefault:"8080"`
	GinMode        string        `env:"GIN_MODE" envDefault:"debug"`
	JWTSecret      string        `env:"JWT_SECRET_KEY"`
	JWTTTL         time.Duration `env:"JWT_TTL" envDefault:"24h"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string        `env:"LOG_FORMAT" envDefault:"text"` // text or json
	RedisURL       string        `env:"REDIS_URL"`
	LoginRateLimit string        `env:"LOGIN_RATE_LIMIT" envDefault:"10-M"`
	MetricsEnabled bool          `env:"METRICS_ENABLED" envDefault:"true"`
	MetricsPath    string        `env:"METRICS_PATH" envDefault:"/metrics"`
	MediaRoot      string        `env:"MEDIA_ROOT" envDefault:"media"`
	MaxUploadSize  int64         `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
	HRNotifyEmail  string        `env:"HR_NOTIFY_EMAIL"`
	TrustedProxies []string      `env:"TRUSTED_PROXIES" envSeparator:","` // empty: forwarding headers are ignored
	Database       DatabaseOptions
	SMTP           SMTPOptions
}

// Validate checks values env parsing cannot.
func (c *Configuration) Validate() error {
	if c.Database.Type != "sqlite" && c.Database.Type != "postgres" {
		return fmt.Errorf("DB_TYPE must be 'sqlite' or 'postgres', got '%s'", c.Database.Type)
	}
	if c.LogFormat != "text" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json', got '%s'", c.LogFormat)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

// LoadEnv loads the given dotenv files that exist and returns how many were read.
func LoadEnv(envFiles []string) (int, error) {
	existing := make([]string, 0, len(envFiles))
	for _, file := range envFiles {
		if _, err := os.Stat(file); err == nil {
			existing = append(existing, file)
		}
	}
	if len(existing) == 0 {
		return 0, nil
	}
	return len(existing), godotenv.Load(existing...)
}

// Parse reads the configuration from the process environment.
func Parse() (Configuration, error) {
	var cfg Configuration
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = defaultJWTSecret
		logrus.Warn("JWT_SECRET_KEY is not set, using the development default. Set it in production.")
	}
	return cfg, cfg.Validate()
}

// LoadConfig loads configuration from .env files and environment variables.
// It should be called once at application startup.
func LoadConfig() {
	once.Do(func() {
		if n, err := LoadEnv([]string{".env", ".env.local"}); err != nil {
			logrus.WithError(err).Fatal("failed to load .env files")
		} else if n > 0 {
			logrus.Debugf("loaded %d .env file(s)", n)
		}

		cfg, err := Parse()
		if err != nil {
			logrus.WithError(err).Fatal("invalid configuration")
		}
		AppConfig = cfg
		logrus.Info("application configuration loaded")
	})
}
