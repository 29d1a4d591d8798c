package core

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator"
	"gopkg.in/yaml.v3"
)

// DatabaseLocationEnv overrides the configured database connection string.
const DatabaseLocationEnv = "DATABASE_CONNECTION_STRING"

type Database struct {
	Type             string `yaml:"type" validate:"required,oneof=sqlite"`
	ConnectionString string `yaml:"connectionString" validate:"required"`
}

// ImageCache configures the optional redis cache for image files. An empty address disables it.
type ImageCache struct {
	Address  string        `yaml:"address"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db" validate:"min=0"`
	TTL      time.Duration `yaml:"ttl" validate:"min=0"`
}

type ServiceConfig struct {
	Port            int        `yaml:"port" validate:"min=1,max=65535"`
	LogLevel        string     `yaml:"logLevel" validate:"omitempty,oneof=debug info warn error"`
	Database        Database   `yaml:"database"`
	ImagesDirectory string     `yaml:"imagesDirectory" validate:"required"`
	ImageCache      ImageCache `yaml:"imageCache"`
}

// DefaultConfig mirrors a plain local run: port 5000, db.sqlite and ./images next to the process.
func DefaultConfig() *ServiceConfig {
	return &ServiceConfig{
		Port:     5000,
		LogLevel: "info",
		Database: Database{
			Type:             "sqlite",
			ConnectionString: "db.sqlite",
		},
		ImagesDirectory: "images",
		ImageCache: ImageCache{
			TTL: 10 * time.Minute,
		},
	}
}

// LoadConfig loads configuration from the specified YAML file on top of DefaultConfig.
// A missing file is not an error.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	config := DefaultConfig()

	// Read the config file
	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		slog.Info("config file not found, using defaults", "path", configPath)
	case err != nil:
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	default:
		// Parse YAML
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
		}
	}

	if location := strings.TrimSpace(os.Getenv(DatabaseLocationEnv)); location != "" {
		config.Database.ConnectionString = location
	}

	if err := validator.New().Struct(config); err != nil {
		return nil, fmt.Errorf("invalid configuration in %s: %w", configPath, err)
	}

	return config, nil
}

// SlogLevel converts LogLevel to a slog.Level, defaulting to info.
func (config *ServiceConfig) SlogLevel() slog.Level {
	switch strings.ToLower(config.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
