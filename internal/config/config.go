package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

// Config holds application configuration.
type Config struct {
	AppName     string
	AppVersion  string
	Environment string
	HTTPAddr    string
	LogLevel    string

	// DataDir holds the local settings store. ReportsDir holds generated
	// PDFs and their metadata store.
	DataDir    string
	ReportsDir string

	// Optional business-database connection opened at startup so a fresh
	// deployment has a working session without the connect endpoint.
	DefaultDBDriver string
	DefaultDBDSN    string

	SessionMax int
}

// Load loads configuration from environment variables and .env file.
func Load() Config {
	_ = godotenv.Load()

	dataDir := getenv("DATA_DIR", "data")

	return Config{
		AppName:         getenv("APP_SERVICE", "standsight"),
		AppVersion:      getenv("APP_VERSION", "0.1.0"),
		Environment:     getenv("ENVIRONMENT", "development"),
		HTTPAddr:        getenv("HTTP_ADDR", ":8080"),
		LogLevel:        getenv("LOG_LEVEL", "info"),
		DataDir:         dataDir,
		ReportsDir:      getenv("REPORTS_DIR", filepath.Join(dataDir, "generated_reports")),
		DefaultDBDriver: getenv("DATABASE_DRIVER", ""),
		DefaultDBDSN:    getenv("DATABASE_DSN", ""),
		SessionMax:      getenvInt("SESSION_MAX", 32),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return def
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return def
	}
	return parsed
}

// Module provides the application configuration.
var Module = fx.Module("config",
	fx.Provide(Load),
)
