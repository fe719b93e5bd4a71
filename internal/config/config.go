package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	LedgerBackendFile   = "file"
	LedgerBackendSQLite = "sqlite"
)

type Config struct {
	Port                 int
	Password             string
	LogDirectory         string
	ImageDirectory       string
	ArchiveBufferLimit   int
	ArchiveFlushInterval int // seconds
	LedgerBackend        string
	LedgerPath           string
	DatabasePath         string
	GridCols             int
	GridRows             int
	SamplingRounds       int
	DefaultISO           int
	MaxUploadMB          int
	MaxImagePixels       int
	LabelingEnabled      bool
	ModelPath            string
	ConfigPath           string
	LabelThreshold       float64
	SessionTTLMinutes    int
}

// Load reads configuration from the environment. A .env file in the
// working directory is loaded first if present; real environment
// variables take precedence over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:                 getEnvAsInt("PORT", 8080),
		Password:             getEnv("PASSWORD", ""),
		LogDirectory:         getEnv("LOG_DIR", filepath.Join(".", "logs")),
		ImageDirectory:       getEnv("IMAGE_DIR", filepath.Join(".", "annotated")),
		ArchiveBufferLimit:   getEnvAsInt("ARCHIVE_BUFFER_LIMIT", 7),
		ArchiveFlushInterval: getEnvAsInt("ARCHIVE_FLUSH_INTERVAL", 30),
		LedgerBackend:        strings.ToLower(getEnv("LEDGER_BACKEND", LedgerBackendFile)),
		LedgerPath:           getEnv("LEDGER_PATH", filepath.Join(".", "data", "feedback.json")),
		DatabasePath:         getEnv("DATABASE_PATH", filepath.Join(".", "data", "feedback.db")),
		GridCols:             getEnvAsInt("GRID_COLS", 20),
		GridRows:             getEnvAsInt("GRID_ROWS", 20),
		SamplingRounds:       getEnvAsInt("SAMPLING_ROUNDS", 5),
		DefaultISO:           getEnvAsInt("DEFAULT_ISO", 400),
		MaxUploadMB:          getEnvAsInt("MAX_UPLOAD_MB", 32),
		MaxImagePixels:       getEnvAsInt("MAX_IMAGE_PIXELS", 40_000_000),
		LabelingEnabled:      getEnvAsBool("LABELING_ENABLED", false),
		ModelPath:            getEnv("MODEL_PATH", filepath.Join(".", "models", "frozen_inference_graph.pb")),
		ConfigPath:           getEnv("CONFIG_PATH", filepath.Join(".", "models", "ssd_mobilenet_v1_coco_2017_11_17.pbtxt")),
		LabelThreshold:       getEnvAsFloat("LABEL_THRESHOLD", 0.5),
		SessionTTLMinutes:    getEnvAsInt("SESSION_TTL_MINUTES", 60),
	}
}

// AuthEnabled reports whether the login page guards the API.
func (c *Config) AuthEnabled() bool {
	return c.Password != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
