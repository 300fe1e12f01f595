// Package config loads runtime configuration for the footprint engine from
// environment variables. A .env file in the working directory is honored if
// present, so local setups do not need to export anything. Missing optional
// credentials (HIBP, DeHashed, SMTP) leave the corresponding features
// disabled rather than failing startup.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the engine reads from the environment.
type Config struct {
	// DBDriver is "sqlite" (default) or "postgres".
	DBDriver string
	// DBPath is the sqlite file path, or the DSN when DBDriver is postgres.
	// Reports and scheduler.log live beside the sqlite file.
	DBPath string

	// BrokersDir is the directory of broker YAML definitions.
	BrokersDir string

	HIBPAPIKey     string
	DehashedAPIKey string
	DehashedEmail  string
	CaptchaAPIKey  string

	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string
	AlertEmail   string

	// ScreenshotDir, when set, enables pre/post-submit screenshots from the
	// web form remover.
	ScreenshotDir string
}

// Load reads configuration from the environment. A .env file is loaded first
// if one exists; real environment variables win over .env entries.
func Load() (*Config, error) {
	// Ignore the error: a missing .env file is the normal case.
	_ = godotenv.Load()

	cfg := &Config{
		DBDriver:       envOrDefault("DIGITAL_FOOTPRINT_DB_DRIVER", "sqlite"),
		DBPath:         os.Getenv("DIGITAL_FOOTPRINT_DB_PATH"),
		BrokersDir:     envOrDefault("DIGITAL_FOOTPRINT_BROKERS_DIR", "brokers"),
		HIBPAPIKey:     os.Getenv("HIBP_API_KEY"),
		DehashedAPIKey: os.Getenv("DEHASHED_API_KEY"),
		DehashedEmail:  os.Getenv("DEHASHED_EMAIL"),
		CaptchaAPIKey:  os.Getenv("CAPTCHA_API_KEY"),
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       587,
		SMTPUser:       os.Getenv("SMTP_USER"),
		SMTPPassword:   os.Getenv("SMTP_PASSWORD"),
		AlertEmail:     os.Getenv("ALERT_EMAIL"),
		ScreenshotDir:  os.Getenv("DIGITAL_FOOTPRINT_SCREENSHOT_DIR"),
	}

	if p := os.Getenv("SMTP_PORT"); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil || port < 1 || port > 65535 {
			return nil, fmt.Errorf("config: SMTP_PORT must be a valid port number, got %q", p)
		}
		cfg.SMTPPort = port
	}

	if cfg.DBPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("config: resolve home directory: %w", err)
		}
		cfg.DBPath = filepath.Join(home, ".digital-footprint", "footprint.db")
	}

	return cfg, nil
}

// DataDir returns the directory holding the database file. Reports and the
// scheduler log are written here. For postgres this falls back to the
// current directory.
func (c *Config) DataDir() string {
	if c.DBDriver != "sqlite" {
		return "."
	}
	return filepath.Dir(c.DBPath)
}

// ReportsDir returns the sibling reports/ directory.
func (c *Config) ReportsDir() string {
	return filepath.Join(c.DataDir(), "reports")
}

// SMTPConfigured reports whether outbound email can be attempted at all.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUser != ""
}

func envOrDefault(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}
