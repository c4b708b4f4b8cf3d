package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upload   UploadConfig   `yaml:"upload"`
	Pricing  PricingConfig  `yaml:"pricing"`
	Queue    QueueConfig    `yaml:"queue"`
	Database DatabaseConfig `yaml:"database"`
	Printers PrintersConfig `yaml:"printers"`
	Webhooks WebhooksConfig `yaml:"webhooks"`
	CORS     CORSConfig     `yaml:"cors"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port         int           `yaml:"port"`
	PublicURL    string        `yaml:"public_url"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type UploadConfig struct {
	Dir       string `yaml:"dir"`
	MaxSizeMB int64  `yaml:"max_size_mb"`
}

type PricingConfig struct {
	ColorRate     int64 `yaml:"color_rate"`
	GrayscaleRate int64 `yaml:"grayscale_rate"`
}

type QueueConfig struct {
	RequireConfirmation bool `yaml:"require_confirmation"`
	NotifyOwnerOnly     bool `yaml:"notify_owner_only"`
}

type DatabaseConfig struct {
	Path        string `yaml:"path"`
	HistoryDays int    `yaml:"history_days"`
}

type PrinterConfig struct {
	Name        string `yaml:"name"`
	IP          string `yaml:"ip"`
	Port        int    `yaml:"port"`
	Description string `yaml:"description"`
}

type PrintersConfig struct {
	ProbeInterval     time.Duration   `yaml:"probe_interval"`
	ConnectionTimeout time.Duration   `yaml:"connection_timeout"`
	Seed              []PrinterConfig `yaml:"seed"`
}

type WebhooksConfig struct {
	URLs   []string `yaml:"urls"`
	Secret string   `yaml:"secret"`
}

type CORSConfig struct {
	Origin string `yaml:"origin"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         6822,
			PublicURL:    "http://localhost:6822",
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Upload: UploadConfig{
			Dir:       "./uploads",
			MaxSizeMB: 32,
		},
		Pricing: PricingConfig{
			ColorRate:     5,
			GrayscaleRate: 2,
		},
		Queue: QueueConfig{
			RequireConfirmation: false,
			NotifyOwnerOnly:     true,
		},
		Database: DatabaseConfig{
			Path:        "./data/printdesk.db",
			HistoryDays: 30,
		},
		Printers: PrintersConfig{
			ProbeInterval:     30 * time.Second,
			ConnectionTimeout: 5 * time.Second,
		},
		CORS: CORSConfig{
			Origin: "*",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the yaml config at configPath (defaults apply if it does not
// exist), then applies PRINTDESK_* environment overrides. A .env file in the
// working directory is honored first.
func Load(configPath string) (*Config, error) {
	godotenv.Load()

	cfg := defaults()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PRINTDESK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PRINTDESK_PUBLIC_URL"); v != "" {
		cfg.Server.PublicURL = v
	}
	if v := os.Getenv("PRINTDESK_UPLOAD_DIR"); v != "" {
		cfg.Upload.Dir = v
	}
	if v := os.Getenv("PRINTDESK_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("PRINTDESK_CORS_ORIGIN"); v != "" {
		cfg.CORS.Origin = v
	}
	if v := os.Getenv("PRINTDESK_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.PublicURL == "" {
		return fmt.Errorf("server public url is required")
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Upload.Dir == "" {
		return fmt.Errorf("upload dir is required")
	}

	if c.Upload.MaxSizeMB < 1 {
		return fmt.Errorf("upload max size must be at least 1 MB")
	}

	if c.Pricing.ColorRate < 1 || c.Pricing.GrayscaleRate < 1 {
		return fmt.Errorf("per-page rates must be positive")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Database.HistoryDays < 0 {
		return fmt.Errorf("history days must be non-negative")
	}

	if c.Printers.ProbeInterval < 0 {
		return fmt.Errorf("probe interval must be non-negative")
	}

	if c.Printers.ConnectionTimeout < 0 {
		return fmt.Errorf("connection timeout must be non-negative")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	return nil
}
