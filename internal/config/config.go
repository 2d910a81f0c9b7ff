// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/pdf-bench/internal/logger"
)

// Config holds the bench server configuration
type Config struct {
	HTTP      HTTPConfig      `mapstructure:"http"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Staging   StagingConfig   `mapstructure:"staging"`
	OCR       OCRConfig       `mapstructure:"ocr"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// HTTPConfig holds web server settings
type HTTPConfig struct {
	Port int `mapstructure:"port"`
}

// StorageConfig holds where uploads and document metadata live
type StorageConfig struct {
	UploadDir   string `mapstructure:"upload_dir"`
	DBPath      string `mapstructure:"db_path"`
	MaxUploadMB int64  `mapstructure:"max_upload_mb"`
}

// StagingConfig holds the optional watch directory
type StagingConfig struct {
	WatchDir string `mapstructure:"watch_dir"` // empty disables the watcher
}

// OCRConfig holds OCR defaults
type OCRConfig struct {
	DPI                float64 `mapstructure:"dpi"`
	DefaultLanguage    string  `mapstructure:"default_language"`
	TesseractLanguages string  `mapstructure:"tesseract_languages"`
}

// LogConfig holds logging settings
type LogConfig struct {
	File  string `mapstructure:"file"`
	Level string `mapstructure:"level"`
}

// TelemetryConfig holds tracing settings
type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.port", 8080)
	v.SetDefault("storage.upload_dir", "./uploads")
	v.SetDefault("storage.db_path", "./bench.db")
	v.SetDefault("storage.max_upload_mb", 50)
	v.SetDefault("staging.watch_dir", "")
	v.SetDefault("ocr.dpi", 200)
	v.SetDefault("ocr.default_language", "tr")
	v.SetDefault("ocr.tesseract_languages", "eng+tur")
	v.SetDefault("log.file", "./bench.log")
	v.SetDefault("log.level", "info")
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.service_name", "pdf-bench")
}

// Load reads configuration from configPath, writing a default file there when
// it does not exist. An empty configPath uses defaults and the environment only.
// Environment variables use the BENCH_ prefix, e.g. BENCH_HTTP_PORT.
func Load(configPath string) (*Config, error) {
	// A missing .env is normal outside development
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warnf("Failed to load .env: %v", err)
	}

	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			if err := generateDefaultConfig(configPath); err != nil {
				return nil, fmt.Errorf("failed to generate default config: %w", err)
			}
			logger.Printf("Wrote default config to %s", configPath)
		}
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	v.SetEnvPrefix("BENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot start with
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("invalid http.port %d", c.HTTP.Port)
	}
	if c.Storage.UploadDir == "" {
		return fmt.Errorf("storage.upload_dir must be set")
	}
	if c.Storage.DBPath == "" {
		return fmt.Errorf("storage.db_path must be set")
	}
	if c.Storage.MaxUploadMB <= 0 {
		return fmt.Errorf("invalid storage.max_upload_mb %d", c.Storage.MaxUploadMB)
	}
	if c.OCR.DPI <= 0 {
		return fmt.Errorf("invalid ocr.dpi %v", c.OCR.DPI)
	}
	return nil
}

// MaxUploadBytes returns the upload size limit in bytes
func (c *Config) MaxUploadBytes() int64 {
	return c.Storage.MaxUploadMB << 20
}

func generateDefaultConfig(configFile string) error {
	defaultConfig := `# PDF Bench configuration
# Every key can be overridden with a BENCH_ environment variable, e.g. BENCH_HTTP_PORT=9090

http:
  port: 8080

storage:
  upload_dir: "./uploads"   # staged PDFs
  db_path: "./bench.db"     # document metadata (sqlite)
  max_upload_mb: 50

staging:
  watch_dir: ""             # PDFs dropped here are registered automatically; empty disables

ocr:
  dpi: 200
  default_language: "tr"
  tesseract_languages: "eng+tur"

log:
  file: "./bench.log"
  level: "info"

telemetry:
  enabled: false            # export traces over OTLP/HTTP (OTEL_EXPORTER_OTLP_ENDPOINT)
  service_name: "pdf-bench"
`
	if dir := filepath.Dir(configFile); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(configFile, []byte(defaultConfig), 0644)
}

// ApplyCLIFlags applies command-line flags to override config values
func ApplyCLIFlags(cfg *Config, port int, uploadDir, watchDir string) {
	if port > 0 {
		cfg.HTTP.Port = port
	}
	if uploadDir != "" {
		cfg.Storage.UploadDir = uploadDir
	}
	if watchDir != "" {
		cfg.Staging.WatchDir = watchDir
	}
}
