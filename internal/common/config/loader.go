// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like SHEETS_CONFIG_SPREADSHEET_ID
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile probes the usual relative locations plus the project root so
// the binary behaves the same from cmd/, test dirs and cron.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

// overrideEmptyConfig applies direct env fallbacks for values the original
// deployment provides as bare environment variables.
func overrideEmptyConfig(cfg *Config) {
	if cfg.Sheets.ConfigSpreadsheetID == "" {
		if val := os.Getenv("CONFIG_SPREADSHEET_ID"); val != "" {
			cfg.Sheets.ConfigSpreadsheetID = val
		}
	}
	if cfg.Integrations.AWS.Region == "" {
		if val := os.Getenv("AWS_REGION"); val != "" {
			cfg.Integrations.AWS.Region = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "mail-autoreply"
	}
	if cfg.App.Timezone == "" {
		cfg.App.Timezone = "Asia/Tokyo"
	}

	if cfg.Sheets.AccountSheetName == "" {
		cfg.Sheets.AccountSheetName = "ユーザ"
	}
	if cfg.Sheets.ApplicantSheetName == "" {
		cfg.Sheets.ApplicantSheetName = "応募者シート_メールテスト"
	}
	if cfg.Sheets.TemplateSheetName == "" {
		cfg.Sheets.TemplateSheetName = "メール管理"
	}
	if cfg.Sheets.CredentialsFile == "" {
		cfg.Sheets.CredentialsFile = "credentials.json"
	}
	if cfg.Sheets.MaxRetries == 0 {
		cfg.Sheets.MaxRetries = 3
	}
	if cfg.Sheets.RetryInterval == 0 {
		cfg.Sheets.RetryInterval = 5 * time.Second
	}

	if cfg.SMTP.Timeout == 0 {
		cfg.SMTP.Timeout = 30 * time.Second
	}
	if cfg.SMTP.MaxRetries == 0 {
		cfg.SMTP.MaxRetries = 3
	}
	if cfg.SMTP.RetryInterval == 0 {
		cfg.SMTP.RetryInterval = 5 * time.Second
	}
	if cfg.SMTP.DefaultHost == "" {
		cfg.SMTP.DefaultHost = "smtp.muumuu-mail.com"
	}
	if cfg.SMTP.DefaultPort == 0 {
		cfg.SMTP.DefaultPort = 587
	}

	if cfg.Pipeline.SearchDays == 0 {
		cfg.Pipeline.SearchDays = 1
	}
	if cfg.Pipeline.SendInterval == 0 {
		cfg.Pipeline.SendInterval = 2 * time.Second
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Logging.Dir == "" {
		cfg.Logging.Dir = "logs"
	}
	if cfg.Logging.RetentionDays == 0 {
		cfg.Logging.RetentionDays = 1
	}

	if cfg.Metrics.Addr == "" {
		cfg.Metrics.Addr = ":9105"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.Sheets.ConfigSpreadsheetID == "" {
		return fmt.Errorf("sheets.config_spreadsheet_id is required")
	}
	if cfg.Sheets.MaxRetries < 1 {
		return fmt.Errorf("sheets.max_retries must be at least 1")
	}
	if cfg.SMTP.MaxRetries < 1 {
		return fmt.Errorf("smtp.max_retries must be at least 1")
	}
	if cfg.Pipeline.SearchDays < 0 {
		return fmt.Errorf("pipeline.search_days must not be negative")
	}
	if cfg.Integrations.AWS.SES.Enabled && cfg.Integrations.AWS.Region == "" {
		return fmt.Errorf("integrations.aws.region is required when SES is enabled")
	}
	return nil
}
