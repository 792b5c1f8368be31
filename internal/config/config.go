package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Bunt     BuntConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	Bot      BotConfig
	Blob     BlobConfig
	Watchdog WatchdogConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StoreDriver selects the row-store backend.
type StoreDriver string

const (
	StoreDriverBunt     StoreDriver = "bunt"
	StoreDriverPostgres StoreDriver = "postgres"
)

// StoreConfig picks the backend; behavior is identical either way.
type StoreConfig struct {
	Driver StoreDriver
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

// BuntConfig locates the embedded store files.
type BuntConfig struct {
	Dir string
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters and the seeded admin.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	BcryptCost            int
	AdminEmail            string
	AdminPassword         string
	LoginRateLimit        int
	LoginRateWindowSec    int
}

// BotConfig configures the chat command center.
type BotConfig struct {
	Token               string
	WebhookURL          string
	NotifyChatID        string
	PollIntervalSeconds int
	SendTimeoutSeconds  int
}

// BlobDriver selects the attachment storage backend.
type BlobDriver string

const (
	BlobDriverLocal BlobDriver = "local"
	BlobDriverMinio BlobDriver = "minio"
)

// BlobConfig configures attachment storage.
type BlobConfig struct {
	Driver         BlobDriver
	LocalDir       string
	PublicBasePath string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool
}

// WatchdogConfig controls the SLA breach scanner.
type WatchdogConfig struct {
	IntervalSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	driver := StoreDriver(getEnv("STORE_DRIVER", string(StoreDriverBunt)))
	if driver != StoreDriverBunt && driver != StoreDriverPostgres {
		return nil, fmt.Errorf("invalid STORE_DRIVER: %s", driver)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "helpdesk-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Store: StoreConfig{
			Driver: driver,
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Bunt: BuntConfig{
			Dir: getEnv("BUNT_DATA_DIR", "./data"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 720),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 10),
			AdminEmail:            getEnv("ADMIN_EMAIL", "admin@example.com"),
			AdminPassword:         getEnv("ADMIN_PASSWORD", "changeme"),
			LoginRateLimit:        getEnvAsInt("LOGIN_RATE_LIMIT", 10),
			LoginRateWindowSec:    getEnvAsInt("LOGIN_RATE_WINDOW_SECONDS", 60),
		},
		Bot: BotConfig{
			Token:               os.Getenv("TELEGRAM_BOT_TOKEN"),
			WebhookURL:          os.Getenv("TELEGRAM_WEBHOOK_URL"),
			NotifyChatID:        os.Getenv("TELEGRAM_NOTIFY_CHAT_ID"),
			PollIntervalSeconds: getEnvAsInt("TELEGRAM_POLL_INTERVAL_SECONDS", 2),
			SendTimeoutSeconds:  getEnvAsInt("TELEGRAM_SEND_TIMEOUT_SECONDS", 5),
		},
		Blob: BlobConfig{
			Driver:         BlobDriver(getEnv("BLOB_DRIVER", string(BlobDriverLocal))),
			LocalDir:       getEnv("UPLOAD_DIR", "./uploads"),
			PublicBasePath: getEnv("UPLOAD_PUBLIC_PATH", "/files"),
			MinioEndpoint:  os.Getenv("MINIO_ENDPOINT"),
			MinioAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
			MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
			MinioBucket:    getEnv("MINIO_BUCKET", "helpdesk-attachments"),
			MinioUseSSL:    getEnvAsBool("MINIO_USE_SSL", true),
		},
		Watchdog: WatchdogConfig{
			IntervalSeconds: getEnvAsInt("SLA_WATCHDOG_INTERVAL_SECONDS", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// LoginRateWindow returns the login throttle window.
func (a AuthConfig) LoginRateWindow() time.Duration {
	if a.LoginRateWindowSec <= 0 {
		return time.Minute
	}
	return time.Duration(a.LoginRateWindowSec) * time.Second
}

// PollInterval returns the bot polling cadence.
func (b BotConfig) PollInterval() time.Duration {
	if b.PollIntervalSeconds <= 0 {
		return 2 * time.Second
	}
	return time.Duration(b.PollIntervalSeconds) * time.Second
}

// SendTimeout bounds a single outbound chat delivery.
func (b BotConfig) SendTimeout() time.Duration {
	if b.SendTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(b.SendTimeoutSeconds) * time.Second
}

// Interval returns the watchdog tick cadence.
func (w WatchdogConfig) Interval() time.Duration {
	if w.IntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(w.IntervalSeconds) * time.Second
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
