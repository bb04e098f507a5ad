package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config centralizes runtime settings for the analytics API.
type Config struct {
	Port string

	DatabaseURL     string
	DatabaseMigrate bool
	SeedFile        string

	RedisAddr          string
	RedisPassword      string
	RedisDB            int
	RedisSessionPrefix string

	DefaultPeriodDays int
	MaxPeriodDays     int
	SourceTimeoutMS   int
	BucketTimezone    string

	PrincipalCacheTTLSeconds int
	PrincipalCacheMaxEntries int

	CORSAllowedOrigins []string
	CORSMaxAgeSeconds  int
	RateLimitRPS       float64
	RateLimitBurst     int
}

func Load() Config {
	return Config{
		Port: getEnv("PORT", "8080"),

		DatabaseURL:     getEnv("DATABASE_URL", ""),
		DatabaseMigrate: getEnvBool("DATABASE_MIGRATE", true),
		SeedFile:        getEnv("SEED_FILE", ""),

		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		RedisSessionPrefix: getEnv("REDIS_SESSION_PREFIX", "session:"),

		DefaultPeriodDays: getEnvInt("DEFAULT_PERIOD_DAYS", 30),
		MaxPeriodDays:     getEnvInt("MAX_PERIOD_DAYS", 365),
		SourceTimeoutMS:   getEnvInt("SOURCE_TIMEOUT_MS", 5000),
		BucketTimezone:    getEnv("BUCKET_TIMEZONE", "UTC"),

		PrincipalCacheTTLSeconds: getEnvInt("PRINCIPAL_CACHE_TTL_SECONDS", 60),
		PrincipalCacheMaxEntries: getEnvInt("PRINCIPAL_CACHE_MAX_ENTRIES", 1000),

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		CORSMaxAgeSeconds:  getEnvInt("CORS_MAX_AGE_SECONDS", 600),
		RateLimitRPS:       getEnvFloat("RATE_LIMIT_RPS", 20),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 40),
	}
}

func (c Config) SourceTimeout() time.Duration {
	return time.Duration(c.SourceTimeoutMS) * time.Millisecond
}

func (c Config) CORSMaxAge() time.Duration {
	return time.Duration(c.CORSMaxAgeSeconds) * time.Second
}

func (c Config) PrincipalCacheTTL() time.Duration {
	return time.Duration(c.PrincipalCacheTTLSeconds) * time.Second
}

// Location resolves BUCKET_TIMEZONE, falling back to UTC for unknown zones.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.BucketTimezone)
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC, err
	}
	return loc, nil
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvList splits a comma separated value, dropping blanks.
func getEnvList(key string, fallback []string) []string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	items := make([]string, 0)
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
