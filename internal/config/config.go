// internal/config/config.go
//
// Environment configuration for the server binary.
// Values come from the process environment (optionally seeded from a .env
// file by main via godotenv). Unset or unparsable values fall back to the
// defaults below.

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every tunable the server reads at startup.
type Config struct {
	Port         string
	DBPath       string
	LogLevel     string
	Production   bool
	ClientOrigin string

	JWTSecret  string
	TokenTTL   time.Duration
	CookieName string

	RateLimitRPS   float64
	RateLimitBurst int

	MaxAttempts int
	SessionTTL  time.Duration

	SinkFailureThreshold uint32
	SinkOpenTimeout      time.Duration
}

const devSecret = "dev_secret_change_me"

// Load reads the environment.
func Load() Config {
	env := strings.ToLower(getEnv("APP_ENV", getEnv("NODE_ENV", "development")))
	return Config{
		Port:         getEnv("PORT", "5175"),
		DBPath:       getEnv("DB_PATH", "./data/cowsbulls.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Production:   env == "production",
		ClientOrigin: getEnv("CLIENT_ORIGIN", "http://localhost:5173"),

		JWTSecret:  getEnv("JWT_SECRET", devSecret),
		TokenTTL:   time.Duration(getInt("JWT_EXPIRES_DAYS", 14)) * 24 * time.Hour,
		CookieName: getEnv("COOKIE_NAME", "cowsbulls_token"),

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 10),

		MaxAttempts: getInt("MAX_ATTEMPTS", 0),
		SessionTTL:  getDuration("SESSION_TTL", 24*time.Hour),

		SinkFailureThreshold: uint32(getInt("SINK_FAILURE_THRESHOLD", 5)),
		SinkOpenTimeout:      getDuration("SINK_OPEN_TIMEOUT", 30*time.Second),
	}
}

// InsecureSecret reports whether the JWT secret is still the development default.
func (c Config) InsecureSecret() bool { return c.JWTSecret == devSecret }

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func getInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n >= 0 {
		return n
	}
	return def
}

func getFloat(k string, def float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(k), 64); err == nil && f > 0 {
		return f
	}
	return def
}

func getDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}
