package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/JacksonLee45/stride-sync-sub000/internal/platform/logger"
)

type Config struct {
	HTTPPort     string
	PostgresDSN  string
	AllowOrigins []string
	RedisEnabled bool
}

func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		HTTPPort:     getEnv(log, "HTTP_PORT", "8080"),
		PostgresDSN:  buildPostgresDSN(log),
		RedisEnabled: strings.TrimSpace(os.Getenv("REDIS_ADDR")) != "",
	}

	if origins := strings.TrimSpace(os.Getenv("CORS_ALLOW_ORIGINS")); origins != "" {
		for _, o := range strings.Split(origins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				cfg.AllowOrigins = append(cfg.AllowOrigins, o)
			}
		}
	}
	return cfg
}

func buildPostgresDSN(log *logger.Logger) string {
	if dsn := strings.TrimSpace(os.Getenv("DATABASE_URL")); dsn != "" {
		return dsn
	}
	host := getEnv(log, "POSTGRES_HOST", "localhost")
	port := getEnv(log, "POSTGRES_PORT", "5432")
	user := getEnv(log, "POSTGRES_USER", "postgres")
	password := getEnv(log, "POSTGRES_PASSWORD", "")
	name := getEnv(log, "POSTGRES_NAME", "stridesync")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
}

func getEnv(log *logger.Logger, key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return value
	}
	if fallback != "" {
		log.Debug("Environment variable not set; using default", "key", key, "default", fallback)
	}
	return fallback
}
