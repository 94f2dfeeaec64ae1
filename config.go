package dl44

import (
	"os"
	"strconv"
)

// Config holds the client configuration.
type Config struct {
	Port     string
	Baud     int
	LogLevel string
}

// Load reads the configuration from environment variables.
func Load() *Config {
	port := os.Getenv("SERIAL_PORT")

	baudStr := os.Getenv("SERIAL_BAUD")
	baud, err := strconv.Atoi(baudStr)
	if err != nil || baud == 0 {
		baud = 115200
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Port:     port,
		Baud:     baud,
		LogLevel: logLevel,
	}
}
