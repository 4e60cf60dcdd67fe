package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Env             string
	ServerAddr      string
	FrontendOrigins []string

	DatabaseURL string

	AdminEmail    string
	AdminPassword string
	JWTSecret     string
	TokenTTLHours int

	S3Bucket          string
	S3Region          string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Endpoint        string
	S3UsePathStyle    bool
	S3PublicBaseURL   string

	BrevoAPIKey      string
	BrevoSenderEmail string
	BrevoSenderName  string
	BrevoSandbox     bool

	MaxUploadBytes     int64
	RateLimitContact   int
	RateLimitWindowSec int
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return v == "true" || v == "1"
	}
	return fallback
}

func Load() (*Config, error) {
	loadDotEnv(".env")

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		ServerAddr:         getEnv("SERVER_ADDR", ":8080"),
		FrontendOrigins:    splitOrigins(getEnv("FRONTEND_ORIGINS", "http://localhost:3000")),
		DatabaseURL:        getEnv("DATABASE_URL", "postgres://localhost:5432/portfolio"),
		AdminEmail:         getEnv("ADMIN_EMAIL", ""),
		AdminPassword:      getEnv("ADMIN_PASSWORD", ""),
		JWTSecret:          getEnv("JWT_SECRET", ""),
		TokenTTLHours:      getEnvInt("TOKEN_TTL_HOURS", 168),
		S3Bucket:           getEnv("S3_BUCKET", ""),
		S3Region:           getEnv("S3_REGION", "us-east-1"),
		S3AccessKeyID:      getEnv("S3_ACCESS_KEY_ID", ""),
		S3SecretAccessKey:  getEnv("S3_SECRET_ACCESS_KEY", ""),
		S3Endpoint:         getEnv("S3_ENDPOINT", ""),
		S3UsePathStyle:     getEnvBool("S3_USE_PATH_STYLE", false),
		S3PublicBaseURL:    getEnv("S3_PUBLIC_BASE_URL", ""),
		BrevoAPIKey:        getEnv("BREVO_API_KEY", ""),
		BrevoSenderEmail:   getEnv("BREVO_SENDER_EMAIL", ""),
		BrevoSenderName:    getEnv("BREVO_SENDER_NAME", ""),
		BrevoSandbox:       getEnvBool("BREVO_SANDBOX", false),
		MaxUploadBytes:     int64(getEnvInt("MAX_UPLOAD_BYTES", 5<<20)),
		RateLimitContact:   getEnvInt("RATE_LIMIT_CONTACT", 5),
		RateLimitWindowSec: getEnvInt("RATE_LIMIT_WINDOW_SEC", 60),
	}

	if cfg.Env == "production" && cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required in production")
	}

	return cfg, nil
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			origins = append(origins, p)
		}
	}
	return origins
}

func loadDotEnv(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	lines := strings.Split(string(data), "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		val := strings.TrimSpace(parts[1])
		if key == "" {
			continue
		}
		if _, exists := os.LookupEnv(key); exists {
			continue
		}
		_ = os.Setenv(key, val)
	}
}
