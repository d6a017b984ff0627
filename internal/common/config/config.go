package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// Transfer modes determine how walking edges between stops are materialized.
const (
	TransferByNodeID        = "by_node_id"
	TransferByParentStation = "by_parent_station"
	TransferByTransfersTxt  = "by_transfers_txt"
	TransferNone            = "none"
)

type Config struct {
	Dataset DatasetConfig
	Search  SearchConfig
	Logging LoggingConfig
	HTTP    HTTPConfig
	Profile bool
}

// DatasetConfig controls where the GTFS files come from and how transfers
// between stops are derived.
type DatasetConfig struct {
	Path               string `validate:"required"`
	TransferMode       string `validate:"oneof=by_node_id by_parent_station by_transfers_txt none"`
	TransferNodeColumn string `validate:"required_if=TransferMode by_node_id"`
	MinTransferSeconds int    `validate:"min=0"`
}

// SearchConfig bounds the journey search.
type SearchConfig struct {
	// MaxSearchHours is the horizon in hours. Values above 24 are accepted
	// but results beyond 24 hours are not guaranteed correct.
	MaxSearchHours int `validate:"min=1"`
}

type LoggingConfig struct {
	Level    string
	FilePath string
}

// HTTPConfig enables the optional JSON API instead of the terminal UI.
type HTTPConfig struct {
	Enabled bool
	Addr    string `validate:"required"`
}

func Load() (*Config, error) {
	cfg := &Config{
		Dataset: DatasetConfig{
			Path:               getEnv("DATASET_PATH", "data"),
			TransferMode:       getEnv("TRANSFER_MODE", TransferNone),
			TransferNodeColumn: getEnv("TRANSFER_NODE_ID", "asw_node_id"),
			MinTransferSeconds: getIntEnv("MIN_TRANSFER_TIME_SECONDS", 0),
		},
		Search: SearchConfig{
			MaxSearchHours: getIntEnv("MAX_SEARCH_TIME_HOURS", 24),
		},
		Logging: LoggingConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			FilePath: getEnv("LOG_FILE_PATH", "journeyfinder.log"),
		},
		HTTP: HTTPConfig{
			Enabled: getBoolEnv("SERVE_HTTP", false),
			Addr:    getEnv("HTTP_ADDR", ":8080"),
		},
		Profile: getBoolEnv("PROFILE", false),
	}

	v := validator.New()
	if err := v.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getIntEnv(key string, defaultVal int) int {
	str := os.Getenv(key)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return defaultVal
	}
	return val
}

func getBoolEnv(key string, defaultVal bool) bool {
	str := os.Getenv(key)
	if str == "" {
		return defaultVal
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return defaultVal
	}
	return val
}
