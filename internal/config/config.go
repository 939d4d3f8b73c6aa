package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var AppEnv Config

type Config struct {
	MongoURI          string
	DBName            string
	JWTSecret         string
	RedisAddr         string
	RedisPassword     string
	CheckoutRateLimit int
	CheckoutRateUnit  time.Duration
}

func Load() {
	if err := godotenv.Load(); err != nil {
		log.Println(".env not loaded:", err)
	}
	AppEnv = Config{
		MongoURI:          getEnvOrDefault("MONGO_URI", ""),
		DBName:            getEnvOrDefault("DB_NAME", "storefront"),
		JWTSecret:         getEnvOrDefault("JWT_SECRET", ""),
		RedisAddr:         getEnvOrDefault("REDIS_ADDR", ""),
		RedisPassword:     getEnvOrDefault("REDIS_PASSWORD", ""),
		CheckoutRateLimit: getIntEnv("CHECKOUT_RATE_LIMIT", 10),
		CheckoutRateUnit:  getDurationEnv("CHECKOUT_RATE_WINDOW", 1, time.Minute),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue int, unit time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			return time.Duration(parsed) * unit
		}
	}
	return time.Duration(defaultValue) * unit
}
