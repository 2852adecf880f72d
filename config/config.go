package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBHost        string
	DBUser        string
	DBPassword    string
	DBName        string
	DBPort        string
	RedisAddr     string
	RedisPort     string
	RedisPassword string
	JWTSecret     string
	LedgerSecret  string
	AdminUsername string

	HTTPAddr       string
	CORSOrigins    []string
	MetricsEnabled bool

	// Bundle / order configuration
	OrderTTL            time.Duration
	ResourceCacheTTL    time.Duration
	CatalogCacheTTL     time.Duration
	PopularityThreshold int64
	Timezone            string
	MaintenanceInterval time.Duration

	// Payment verification
	VerifierMode       string // "mock" or "remote"
	VerifierURL        string
	VerifierTimeout    time.Duration
	VerifierMockAmount float64

	// Log configuration
	LogLevel      string
	LogFilename   string
	LogMaxSize    int
	LogMaxBackups int
	LogMaxAge     int
	LogCompress   bool
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort)
}

func (c *Config) RedisFullAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisAddr, c.RedisPort)
}

// Location resolves Timezone, falling back to the process local zone.
func (c *Config) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		// Ignore error if .env file is not found
		if !os.IsNotExist(err) {
			return nil, err
		}
	}

	return &Config{
		DBHost:        os.Getenv("DB_HOST"),
		DBUser:        os.Getenv("DB_USER"),
		DBPassword:    os.Getenv("DB_PASSWORD"),
		DBName:        os.Getenv("DB_NAME"),
		DBPort:        getEnv("DB_PORT", "5432"),
		RedisAddr:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		LedgerSecret:  getEnv("LEDGER_SECRET", "default-secret"),
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),

		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS", []string{"http://localhost:5173", "http://localhost:8080"}),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),

		OrderTTL:            getEnvAsDuration("ORDER_TTL", 24*time.Hour),
		ResourceCacheTTL:    getEnvAsDuration("RESOURCE_CACHE_TTL", 5*time.Minute),
		CatalogCacheTTL:     getEnvAsDuration("CATALOG_CACHE_TTL", 10*time.Minute),
		PopularityThreshold: int64(getEnvAsInt("POPULARITY_THRESHOLD", 50)),
		Timezone:            getEnv("TIMEZONE", "Africa/Addis_Ababa"),
		MaintenanceInterval: getEnvAsDuration("MAINTENANCE_INTERVAL", 15*time.Minute),

		VerifierMode:       getEnv("VERIFIER_MODE", "mock"),
		VerifierURL:        os.Getenv("VERIFIER_URL"),
		VerifierTimeout:    getEnvAsDuration("VERIFIER_TIMEOUT", 30*time.Second),
		VerifierMockAmount: getEnvAsFloat("VERIFIER_MOCK_AMOUNT", 500.0),

		LogLevel:      getEnv("LOG_LEVEL", "INFO"),
		LogFilename:   getEnv("LOG_FILENAME", "logs/app.log"),
		LogMaxSize:    getEnvAsInt("LOG_MAX_SIZE", 100),
		LogMaxBackups: getEnvAsInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:     getEnvAsInt("LOG_MAX_AGE", 28),
		LogCompress:   getEnvAsBool("LOG_COMPRESS", true),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.Atoi(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := strconv.ParseBool(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if valueStr, exists := os.LookupEnv(key); exists {
		if value, err := time.ParseDuration(valueStr); err == nil {
			return value
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valueStr) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
