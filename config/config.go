package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env           string        `env:"ENV"             envDefault:"production"`
	ServerPort    int           `env:"PORT"            envDefault:"5000"`
	SecretKey     string        `env:"SECRET_KEY"`
	PublicBaseURL string        `env:"PUBLIC_BASE_URL"`
	OrgName       string        `env:"ORG_NAME"        envDefault:"SalimTrading"`
	CookieSecure  bool          `env:"COOKIE_SECURE"   envDefault:"false"`
	SessionTTL    time.Duration `env:"SESSION_TTL"     envDefault:"24h"`
	TokenMaxAge   time.Duration `env:"TOKEN_MAX_AGE"   envDefault:"1h"`
	BcryptCost    int           `env:"BCRYPT_COST"     envDefault:"10"`

	Log      LogConfig
	Admin    AdminConfig
	Database DatabaseConfig
	Mail     MailConfig
	MQ       MQConfig
	Storage  StorageConfig
	Redis    RedisConfig
}

type LogConfig struct {
	Level  string `env:"LOG_LEVEL"  envDefault:"info"`
	Format string `env:"LOG_FORMAT"`
}

// AdminConfig seeds the reserved ADMIN employee on first start.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL"`
	Password string `env:"ADMIN_PASSWORD" envDefault:"admin123"`
}

type DatabaseConfig struct {
	Host     string `env:"DB_HOST"     envDefault:"localhost"`
	Port     int    `env:"DB_PORT"     envDefault:"5432"`
	User     string `env:"DB_USER"     envDefault:"staffportal"`
	Password string `env:"DB_PASSWORD" envDefault:"password"`
	DBName   string `env:"DB_NAME"     envDefault:"staffportal"`
	UseSSL   bool   `env:"DB_USE_SSL"  envDefault:"false"`
}

// MailConfig selects the outbound mail transport and delivery mode.
type MailConfig struct {
	Transport string `env:"MAIL_TRANSPORT" envDefault:"smtp"`
	Delivery  string `env:"MAIL_DELIVERY"  envDefault:"direct"`
	Channel   string `env:"MAIL_CHANNEL"   envDefault:"mail.outbound"`
	Server    string `env:"MAIL_SERVER"    envDefault:"smtp.gmail.com"`
	Port      int    `env:"MAIL_PORT"      envDefault:"587"`
	Username  string `env:"MAIL_USERNAME"`
	Password  string `env:"MAIL_PASSWORD"`
	Sender    string `env:"MAIL_SENDER"`
	APIURL    string `env:"MAIL_API_URL"`
	APIKey    string `env:"MAIL_API_KEY"`
}

type MQConfig struct {
	Backend  string `env:"MQ_BACKEND" envDefault:"rabbitmq"`
	RabbitMQ RabbitMQConfig
	PubSub   PubSubConfig
}

type RabbitMQConfig struct {
	URL             string `env:"RABBITMQ_URL"`
	QueueDurable    bool   `env:"RABBITMQ_QUEUE_DURABLE"     envDefault:"true"`
	QueueAutoDelete bool   `env:"RABBITMQ_QUEUE_AUTO_DELETE" envDefault:"false"`
	PrefetchCount   int    `env:"RABBITMQ_PREFETCH"          envDefault:"4"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PUBSUB_PROJECT_ID"`
	CredentialsFile    string `env:"PUBSUB_CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"PUBSUB_SUBSCRIPTION_SUFFIX" envDefault:"-sub"`
}

// StorageConfig is optional; an empty Backend disables archiving.
type StorageConfig struct {
	Backend string `env:"STORAGE_BACKEND"`
	Minio   MinioConfig
	GCS     GCSConfig
}

type MinioConfig struct {
	Endpoint  string `env:"MINIO_ENDPOINT"`
	AccessKey string `env:"MINIO_ACCESS_KEY"`
	SecretKey string `env:"MINIO_SECRET_KEY"`
	Bucket    string `env:"MINIO_BUCKET" envDefault:"staffportal"`
	UseSSL    bool   `env:"MINIO_USE_SSL"`
}

type GCSConfig struct {
	ProjectID       string `env:"GCS_PROJECT_ID"`
	Bucket          string `env:"GCS_BUCKET"`
	CredentialsFile string `env:"GCS_CREDENTIALS_FILE"`
}

// RedisConfig is optional; without an address the redemption ledger
// falls back to PostgreSQL.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		_ = godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable default.
func (c Config) Validate() error {
	if strings.TrimSpace(c.SecretKey) == "" {
		return errors.New("SECRET_KEY is required")
	}
	if c.TokenMaxAge <= 0 {
		return errors.New("TOKEN_MAX_AGE must be positive")
	}
	switch c.Mail.Transport {
	case "smtp", "http", "log":
	default:
		return fmt.Errorf("unknown MAIL_TRANSPORT %q", c.Mail.Transport)
	}
	switch c.Mail.Delivery {
	case "direct", "queue":
	default:
		return fmt.Errorf("unknown MAIL_DELIVERY %q", c.Mail.Delivery)
	}
	switch c.Storage.Backend {
	case "", "minio", "gcs":
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", c.Storage.Backend)
	}
	return nil
}

// IsDev reports whether the process runs with developer defaults.
func (c Config) IsDev() bool {
	return c.Env == "dev"
}

// LogFormat is LOG_FORMAT when set, otherwise console output in dev and
// JSON elsewhere.
func (c Config) LogFormat() string {
	if c.Log.Format != "" {
		return c.Log.Format
	}
	if c.IsDev() {
		return "console"
	}
	return "json"
}

// MailSender is the From address for outbound mail.
func (c Config) MailSender() string {
	if c.Mail.Sender != "" {
		return c.Mail.Sender
	}
	return c.Mail.Username
}
