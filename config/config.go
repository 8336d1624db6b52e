package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	CrateRoot      string // Directory containing Serato .crate files
	Output         string // Destination Rekordbox XML file
	ProductName    string // Product name embedded in the XML header
	ProductVersion string // Product version embedded in the XML header
	PollInterval   int    // Watch-mode polling interval in seconds
	StatusAddr     string // Listen address for the watch-mode status server, empty disables it
	LogLevel       string
	LogPath        string // Log file path, empty logs to console only
	LogMaxSize     int    // Megabytes before log rotation
	LogMaxBackups  int
	LogMaxAge      int // Days
	LogCompress    bool
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	seratoDir := filepath.Join(home, "Music", "_Serato_")

	return &Config{
		CrateRoot:      getEnv("CRATE_ROOT", filepath.Join(seratoDir, "Subcrates")),
		Output:         getEnv("OUTPUT_PATH", filepath.Join(seratoDir, "rekordbox-export.xml")),
		ProductName:    getEnv("PRODUCT_NAME", "cratesync"),
		ProductVersion: getEnv("PRODUCT_VERSION", "0.2.0"),
		PollInterval:   getEnvInt("POLL_INTERVAL", 30),
		StatusAddr:     getEnv("STATUS_ADDR", ""),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPath:        getEnv("LOG_PATH", ""),
		LogMaxSize:     getEnvInt("LOG_MAX_SIZE", 10),
		LogMaxBackups:  getEnvInt("LOG_MAX_BACKUPS", 3),
		LogMaxAge:      getEnvInt("LOG_MAX_AGE", 28),
		LogCompress:    getEnvBool("LOG_COMPRESS", false),
	}
}
