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
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	AllowedOrigins        []string
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
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication and verification parameters.
type AuthConfig struct {
	JWTSecret                  string
	AccessTokenTTLMinutes      int
	PasswordResetTTLMinutes    int
	VerificationCodeTTLMinutes int
	BcryptCost                 int
	MaxCodeAttempts            int
	AttemptWindowMinutes       int
}

// NotificationConfig holds delivery gateway settings. Empty SMTP host or
// Twilio SID means the channel falls back to log-only delivery.
type NotificationConfig struct {
	EmailFrom              string
	SMTPHost               string
	SMTPPort               int
	SMTPUsername           string
	SMTPPassword           string
	SMTPUseSSL             bool
	TwilioAccountSID       string
	TwilioAuthToken        string
	TwilioFrom             string
	DeliveryTimeoutSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "talent-auth"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			AllowedOrigins:        getEnvAsList("CORS_ALLOWED_ORIGINS"),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
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
			JWTSecret:                  getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:      getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes:    getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 60),
			VerificationCodeTTLMinutes: getEnvAsInt("AUTH_VERIFICATION_CODE_TTL_MINUTES", 10),
			BcryptCost:                 getEnvAsInt("AUTH_BCRYPT_COST", 12),
			MaxCodeAttempts:            getEnvAsInt("AUTH_MAX_CODE_ATTEMPTS", 5),
			AttemptWindowMinutes:       getEnvAsInt("AUTH_ATTEMPT_WINDOW_MINUTES", 15),
		},
		Notification: NotificationConfig{
			EmailFrom:              getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			SMTPHost:               os.Getenv("NOTIFY_SMTP_HOST"),
			SMTPPort:               getEnvAsInt("NOTIFY_SMTP_PORT", 587),
			SMTPUsername:           os.Getenv("NOTIFY_SMTP_USERNAME"),
			SMTPPassword:           os.Getenv("NOTIFY_SMTP_PASSWORD"),
			SMTPUseSSL:             getEnvAsBool("NOTIFY_SMTP_SSL", false),
			TwilioAccountSID:       os.Getenv("NOTIFY_TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:        os.Getenv("NOTIFY_TWILIO_AUTH_TOKEN"),
			TwilioFrom:             os.Getenv("NOTIFY_TWILIO_FROM"),
			DeliveryTimeoutSeconds: getEnvAsInt("NOTIFY_DELIVERY_TIMEOUT_SECONDS", 10),
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

// ResetTTL returns the password reset token validity.
func (a AuthConfig) ResetTTL() time.Duration {
	if a.PasswordResetTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// CodeTTL returns the verification code validity; zero means codes never expire.
func (a AuthConfig) CodeTTL() time.Duration {
	if a.VerificationCodeTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(a.VerificationCodeTTLMinutes) * time.Minute
}

// AttemptWindow returns the window failed code attempts are counted in.
func (a AuthConfig) AttemptWindow() time.Duration {
	if a.AttemptWindowMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(a.AttemptWindowMinutes) * time.Minute
}

// DeliveryTimeout bounds a single notification delivery.
func (n NotificationConfig) DeliveryTimeout() time.Duration {
	if n.DeliveryTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(n.DeliveryTimeoutSeconds) * time.Second
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

func getEnvAsList(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
