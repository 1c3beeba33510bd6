package config

import (
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

const devJWTSecret = "dev-secret-change-in-production"

// Config holds every runtime setting, read once at startup.
type Config struct {
	Port     string
	Env      string
	LogLevel slog.Level

	DatabaseDSN    string
	MigrateOnStart bool

	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int

	GoogleClientID string
	GoogleCertsURL string

	DefaultAvatarURL string
	UploadMaxBytes   int64

	S3Endpoint  string
	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3PublicURL string

	AuthRateRPS   float64
	AuthRateBurst int
}

func Load() Config {
	cfg := Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: parseLevel(getEnv("LOG_LEVEL", "info")),

		DatabaseDSN:    getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/devcircle?parseTime=true&multiStatements=true"),
		MigrateOnStart: getEnvBool("MIGRATE_ON_START", true),

		JWTSecret:  getEnv("JWT_SECRET", devJWTSecret),
		JWTExpiry:  getEnvDuration("JWT_EXPIRY", time.Hour),
		BcryptCost: getEnvInt("BCRYPT_COST", 12),

		GoogleClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleCertsURL: getEnv("GOOGLE_CERTS_URL", "https://www.googleapis.com/oauth2/v3/certs"),

		DefaultAvatarURL: getEnv("DEFAULT_AVATAR_URL", "https://www.gravatar.com/avatar/?d=mp"),
		UploadMaxBytes:   int64(getEnvInt("UPLOAD_MAX_BYTES", 5<<20)),

		S3Endpoint:  getEnv("S3_ENDPOINT", "http://127.0.0.1:9000"),
		S3Region:    getEnv("S3_REGION", "us-east-1"),
		S3Bucket:    getEnv("S3_BUCKET", "devcircle"),
		S3AccessKey: getEnv("S3_ACCESS_KEY", "admin"),
		S3SecretKey: getEnv("S3_SECRET_KEY", "secretpassword"),

		AuthRateRPS:   getEnvFloat("AUTH_RATE_RPS", 5),
		AuthRateBurst: getEnvInt("AUTH_RATE_BURST", 10),
	}

	cfg.S3PublicURL = getEnv("S3_PUBLIC_URL", strings.TrimRight(cfg.S3Endpoint, "/")+"/"+cfg.S3Bucket)

	return cfg
}

// Validate rejects settings that must never reach production.
func (c Config) Validate() error {
	if c.Env != "production" {
		return nil
	}

	var errs []error
	if c.JWTSecret == devJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production environment"))
	}
	if c.GoogleClientID == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID must be set in production environment"))
	}
	if c.BcryptCost < 10 {
		errs = append(errs, errors.New("BCRYPT_COST must be at least 10 in production environment"))
	}
	return errors.Join(errs...)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	i, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return i
}

func getEnvFloat(key string, fallback float64) float64 {
	f, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return d
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
