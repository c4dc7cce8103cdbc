package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort int
	LogLevel   string

	DatabaseURL string

	JWTSecret []byte
	Issuer    string
	Audience  string

	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// ClockSkew is the verification leeway. Zero by default; widen it only
	// when verifiers run on machines with a different clock than the issuer.
	ClockSkew time.Duration

	KafkaBrokers []string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	cfg := &Config{
		ServerPort: EnvIntDefault("SERVER_PORT", 8080),
		LogLevel:   EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret: []byte(os.Getenv("JWT_SECRET")),
		Issuer:    EnvDefault("JWT_ISSUER", "auth_service"),
		Audience:  EnvDefault("JWT_AUDIENCE", ""),

		AccessTTL:  time.Duration(EnvIntDefault("ACCESS_TTL_MINUTES", 15)) * time.Minute,
		RefreshTTL: time.Duration(EnvIntDefault("REFRESH_TTL_DAYS", 7)) * 24 * time.Hour,
		ClockSkew:  time.Duration(EnvIntDefault("CLOCK_SKEW_SECONDS", 0)) * time.Second,

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),
	}

	return cfg, nil
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
