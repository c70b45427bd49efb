package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Media        MediaConfig
	SMTP         SMTPConfig
	Notification NotificationConfig
	Sell         SellConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	BaseURL               string
	RequestTimeoutSeconds int
	BodyLimitMB           int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	// Bootstrap admin account, created at startup when both are set.
	AdminName     string
	AdminEmail    string
	AdminPassword string
}

// MediaConfig selects and configures the upload backend.
type MediaConfig struct {
	Backend             string
	UploadDir           string
	MaxFileBytes        int64
	MaxFiles            int
	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string
}

// SMTPConfig holds outbound mail server settings.
type SMTPConfig struct {
	Host        string
	Port        string
	Username    string
	Password    string
	FromName    string
	ImplicitTLS bool
}

// NotificationConfig controls the mail outbox.
type NotificationConfig struct {
	AdminEmail  string
	QueueKey    string
	MaxAttempts int
}

// DuplicatePolicy decides whether a second sell request for the same
// brand and model is accepted.
type DuplicatePolicy string

const (
	DuplicateAllow      DuplicatePolicy = "allow"
	DuplicateRejectOpen DuplicatePolicy = "reject_open"
	DuplicateRejectAny  DuplicatePolicy = "reject_any"
)

// SellConfig holds sell-request workflow settings.
type SellConfig struct {
	DuplicatePolicy DuplicatePolicy
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	policy, err := ParseDuplicatePolicy(getEnv("SELL_DUPLICATE_POLICY", string(DuplicateRejectOpen)))
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnv("MEDIA_BACKEND", "local"))
	if backend != "local" && backend != "cloudinary" {
		return nil, fmt.Errorf("invalid MEDIA_BACKEND %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "car-marketplace"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			BaseURL:               strings.TrimRight(getEnv("APP_BASE_URL", "http://localhost:8080"), "/"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			BodyLimitMB:           getEnvAsInt("HTTP_BODY_LIMIT_MB", 20),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", true),
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 1440),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
			AdminName:             getEnv("AUTH_ADMIN_NAME", "Administrator"),
			AdminEmail:            os.Getenv("AUTH_ADMIN_EMAIL"),
			AdminPassword:         os.Getenv("AUTH_ADMIN_PASSWORD"),
		},
		Media: MediaConfig{
			Backend:             backend,
			UploadDir:           getEnv("MEDIA_UPLOAD_DIR", "uploads"),
			MaxFileBytes:        int64(getEnvAsInt("MEDIA_MAX_FILE_BYTES", 2*1024*1024)),
			MaxFiles:            getEnvAsInt("MEDIA_MAX_FILES", 5),
			CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
			CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
			CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
			CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "car-marketplace"),
		},
		SMTP: SMTPConfig{
			Host:        os.Getenv("SMTP_HOST"),
			Port:        getEnv("SMTP_PORT", "587"),
			Username:    os.Getenv("SMTP_USERNAME"),
			Password:    os.Getenv("SMTP_PASSWORD"),
			FromName:    getEnv("SMTP_FROM_NAME", "Car Marketplace"),
			ImplicitTLS: getEnvAsBool("SMTP_IMPLICIT_TLS", false),
		},
		Notification: NotificationConfig{
			AdminEmail:  os.Getenv("NOTIFY_ADMIN_EMAIL"),
			QueueKey:    getEnv("NOTIFY_QUEUE_KEY", "mail:outbox"),
			MaxAttempts: getEnvAsInt("NOTIFY_MAX_ATTEMPTS", 3),
		},
		Sell: SellConfig{
			DuplicatePolicy: policy,
		},
	}

	return cfg, nil
}

// ParseDuplicatePolicy validates a SELL_DUPLICATE_POLICY value.
func ParseDuplicatePolicy(raw string) (DuplicatePolicy, error) {
	switch p := DuplicatePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case DuplicateAllow, DuplicateRejectOpen, DuplicateRejectAny:
		return p, nil
	default:
		return "", fmt.Errorf("invalid SELL_DUPLICATE_POLICY %q", raw)
	}
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// IsProduction reports whether the service runs with production settings.
func (a AppConfig) IsProduction() bool {
	return strings.EqualFold(a.Env, "production")
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
