package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// AppConfig holds the service configuration.
type AppConfig struct {
	ServerPort  string
	GinMode     string
	KafkaBroker string
	KafkaTopic  string
	Serial      SerialConfig
	Logging     LoggerConfig
}

// SerialConfig configures the device connection. Port is optional; when
// set the service connects and starts polling on startup.
type SerialConfig struct {
	Port           string
	Baud           int
	PollIntervalMs int
}

// LoggerConfig holds the logger settings.
type LoggerConfig struct {
	Enable     bool
	LogsDir    string
	Level      string
	SavingDays int
}

// LoadConfiguration reads the configuration from a .env file or the
// environment.
func LoadConfiguration() (*AppConfig, error) {
	_ = godotenv.Load()

	config := &AppConfig{
		ServerPort:  getEnv("APP_PORT", "8082"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		KafkaBroker: getEnv("KAFKA_BROKER", ""),
		KafkaTopic:  getEnv("KAFKA_TOPIC", "laser_telemetry"),
		Serial: SerialConfig{
			Port:           getEnv("SERIAL_PORT", ""),
			Baud:           getEnvAsInt("SERIAL_BAUD", 115200),
			PollIntervalMs: getEnvAsInt("POLL_INTERVAL_MS", 250),
		},
		Logging: LoggerConfig{
			Enable:     getEnvAsBool("LOGGER_ENABLE", true),
			LogsDir:    getEnv("LOGGER_LOGS_DIR", "./logs"),
			Level:      getEnv("LOGGER_LOG_LEVEL", "DEBUG"),
			SavingDays: getEnvAsInt("LOGGER_SAVING_DAYS", 7),
		},
	}

	return config, nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(name string, defaultValue int) int {
	valueStr := getEnv(name, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	val, _ := strconv.ParseBool(value)
	return val
}
