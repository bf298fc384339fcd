package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/caarlos0/env/v11"
)

type PostgresConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	User     string `env:"USER" envDefault:"admin"`
	Password string `env:"PASSWORD" envDefault:"password"`
	DB       string `env:"DB" envDefault:"auth_db"`
	Port     string `env:"PORT" envDefault:"5434"`
}

// DSN builds a libpq style connection string.
func (c PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		c.Host, c.User, c.Password, c.DB, c.Port,
	)
}

type MongoConfig struct {
	User     string `env:"USER" envDefault:"admin"`
	Password string `env:"PASSWORD" envDefault:"password"`
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     string `env:"PORT" envDefault:"27017"`
	DB       string `env:"DB" envDefault:"incident_db"`
	// MaxPoolSize bounds the driver's connection pool.
	MaxPoolSize    uint64        `env:"MAX_POOL_SIZE" envDefault:"20"`
	ConnectTimeout time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`
}

// URI escapes the credentials, so passwords may contain '@', ':' or '/'.
func (c MongoConfig) URI() string {
	u := url.URL{
		Scheme: "mongodb",
		User:   url.UserPassword(c.User, c.Password),
		Host:   net.JoinHostPort(c.Host, c.Port),
	}
	return u.String()
}

type RabbitMQConfig struct {
	URL   string `env:"URL"`
	User  string `env:"USER" envDefault:"guest"`
	Pass  string `env:"PASS" envDefault:"guest"`
	Host  string `env:"HOST" envDefault:"localhost"`
	Port  string `env:"PORT" envDefault:"5672"`
	Queue string `env:"QUEUE" envDefault:"incident_events"`
}

// URI prefers RABBITMQ_URL and falls back to the individual components.
func (c RabbitMQConfig) URI() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(c.User, c.Pass),
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   "/",
	}
	return u.String()
}

type SMTPConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"1025"`
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`
	From     string `env:"FROM" envDefault:"no-reply@incident.local"`
}

type MinioConfig struct {
	Endpoint      string        `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey     string        `env:"ACCESS_KEY" envDefault:"minioadmin"`
	SecretKey     string        `env:"SECRET_KEY" envDefault:"minioadmin"`
	Bucket        string        `env:"BUCKET" envDefault:"incident-evidence"`
	UseSSL        bool          `env:"USE_SSL" envDefault:"false"`
	Region        string        `env:"REGION" envDefault:"us-east-1"`
	MaxUploadSize int64         `env:"MAX_UPLOAD_SIZE" envDefault:"10485760"`
	URLExpiry     time.Duration `env:"URL_EXPIRY" envDefault:"15m"`
}

type JWTConfig struct {
	Secret          string        `env:"SECRET" envDefault:"SUPER_SECRET_KEY_CHANGE_ME"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TTL" envDefault:"5m"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TTL" envDefault:"24h"`
	ResetTokenTTL   time.Duration `env:"RESET_TTL" envDefault:"72h"`
}

type AuthServiceConfig struct {
	Port          string         `env:"AUTH_PORT" envDefault:"8081"`
	LogLevel      string         `env:"LOG_LEVEL" envDefault:"info"`
	PublicBaseURL string         `env:"PUBLIC_BASE_URL"`
	Postgres      PostgresConfig `envPrefix:"POSTGRES_"`
	SMTP          SMTPConfig     `envPrefix:"SMTP_"`
	JWT           JWTConfig      `envPrefix:"JWT_"`
}

type IncidentServiceConfig struct {
	Port     string         `env:"INCIDENT_PORT" envDefault:"8082"`
	LogLevel string         `env:"LOG_LEVEL" envDefault:"info"`
	Store    string         `env:"INCIDENT_STORE" envDefault:"mongo"`
	Postgres PostgresConfig `envPrefix:"POSTGRES_"`
	Mongo    MongoConfig    `envPrefix:"MONGO_"`
	RabbitMQ RabbitMQConfig `envPrefix:"RABBITMQ_"`
	Minio    MinioConfig    `envPrefix:"MINIO_"`
	JWT      JWTConfig      `envPrefix:"JWT_"`
}

type NotificationServiceConfig struct {
	Port     string         `env:"NOTIFICATION_PORT" envDefault:"8084"`
	LogLevel string         `env:"LOG_LEVEL" envDefault:"info"`
	RabbitMQ RabbitMQConfig `envPrefix:"RABBITMQ_"`
	SMTP     SMTPConfig     `envPrefix:"SMTP_"`
}

func LoadAuthService() (*AuthServiceConfig, error) {
	cfg, err := env.ParseAs[AuthServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse auth-service config: %w", err)
	}
	return &cfg, nil
}

func LoadIncidentService() (*IncidentServiceConfig, error) {
	cfg, err := env.ParseAs[IncidentServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse incident-service config: %w", err)
	}
	if cfg.Store != "mongo" && cfg.Store != "postgres" {
		return nil, fmt.Errorf("INCIDENT_STORE must be mongo or postgres, got %q", cfg.Store)
	}
	return &cfg, nil
}

func LoadNotificationService() (*NotificationServiceConfig, error) {
	cfg, err := env.ParseAs[NotificationServiceConfig]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse notification-service config: %w", err)
	}
	return &cfg, nil
}
