package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Конфигурация приложения из переменных окружения
type Config struct {
	AppPort     string
	DatabaseURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	BotToken   string
	JWTSecret  string
	AdminToken string

	LogLevel string
	LogJSON  bool
}

// Load читает .env (если есть) и собирает конфигурацию
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		AppPort:     getEnv("APP_PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		BotToken:   os.Getenv("BOT_TOKEN"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		AdminToken: os.Getenv("ADMIN_TOKEN"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogJSON:  os.Getenv("LOG_FORMAT") == "json",
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
