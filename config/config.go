package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Dosada05/scoreboard/storage"
	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	ServerPort     int
	DatabaseURL    string // Postgres; если пусто, SQLite или память
	SQLitePath     string
	JWTSecretKey   string
	AllowedOrigins []string

	WriteMaxAttempts int
	WriteBaseDelay   time.Duration
	WriteMinInterval time.Duration

	R2 storage.CloudflareR2Config

	// LambdaMode включается, когда процесс запущен внутри AWS Lambda.
	LambdaMode bool
}

// Load загружает конфигурацию из переменных окружения.
// Вне Lambda опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	lambdaMode := os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
	if !lambdaMode {
		// Ошибку не считаем фатальной: .env может не быть
		_ = godotenv.Load()
	}

	jwtKey := os.Getenv("JWT_SECRET_KEY")
	if jwtKey == "" {
		return nil, fmt.Errorf("JWT_SECRET_KEY environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	attempts, err := intEnv("WRITE_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	if attempts < 1 {
		return nil, fmt.Errorf("WRITE_MAX_ATTEMPTS must be at least 1, got %d", attempts)
	}

	baseDelay, err := durationEnv("WRITE_BASE_DELAY", 250*time.Millisecond)
	if err != nil {
		return nil, err
	}
	minInterval, err := durationEnv("WRITE_MIN_INTERVAL", 300*time.Millisecond)
	if err != nil {
		return nil, err
	}

	r2 := storage.CloudflareR2Config{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
		BucketName:      os.Getenv("R2_BUCKET_NAME"),
		PublicBaseURL:   os.Getenv("R2_PUBLIC_BASE_URL"),
	}
	// архив либо настроен полностью, либо выключен
	if r2.Enabled() {
		if err := r2.Validate(); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		ServerPort:       port,
		DatabaseURL:      strings.TrimSpace(os.Getenv("DATABASE_URL")),
		SQLitePath:       strings.TrimSpace(os.Getenv("SQLITE_PATH")),
		JWTSecretKey:     jwtKey,
		AllowedOrigins:   splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
		WriteMaxAttempts: attempts,
		WriteBaseDelay:   baseDelay,
		WriteMinInterval: minInterval,
		R2:               r2,
		LambdaMode:       lambdaMode,
	}

	return cfg, nil
}

func intEnv(key string, def int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return v, nil
}

func durationEnv(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s must not be negative, got %s", key, v)
	}
	return v, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
