package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	SnapshotZIPPath string
	MSVFilePath     string
	CSVOutputPath   string

	ReferenceMonth string
	MSVStartYear   int
	MSVYearSpan    int

	StorageBackend string // "postgres", "sqlite" or "none"
	SQLitePath     string

	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	MaxConcurrency int
	RateLimitMs    int
	MaxRetries     int
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		SnapshotZIPPath: getEnv("SNAPSHOT_ZIP_PATH", "./input/monthly_exports.zip"),
		MSVFilePath:     getEnv("MSV_FILE_PATH", ""),
		CSVOutputPath:   getEnv("CSV_OUTPUT_PATH", "./output/consolidated_products.csv"),

		ReferenceMonth: getEnv("REFERENCE_MONTH", "Dec"),
		MSVStartYear:   getEnvInt("MSV_START_YEAR", 2023),
		MSVYearSpan:    getEnvInt("MSV_YEAR_SPAN", 3),

		StorageBackend: getEnv("STORAGE_BACKEND", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "./output/products.sqlite"),

		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "consolidator"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "consolidator123"),
		PostgresDB:       getEnv("POSTGRES_DB", "products_db"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 3),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 500),
		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
	}
}

// Months returns the canonical calendar month order used by every
// merge and derivation stage.
func (c *Config) Months() []string {
	return []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun",
		"Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}
}

// Years returns the MSV year window, e.g. [2023 2024 2025].
func (c *Config) Years() []int {
	years := make([]int, 0, c.MSVYearSpan)
	for i := 0; i < c.MSVYearSpan; i++ {
		years = append(years, c.MSVStartYear+i)
	}
	return years
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}
