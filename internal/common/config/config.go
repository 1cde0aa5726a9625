// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig         `mapstructure:"app"`
	Sheets       SheetsConfig      `mapstructure:"sheets"`
	SMTP         SMTPConfig        `mapstructure:"smtp"`
	Pipeline     PipelineConfig    `mapstructure:"pipeline"`
	Logging      LoggingConfig     `mapstructure:"logging"`
	Metrics      MetricsConfig     `mapstructure:"metrics"`
	Integrations IntegrationConfig `mapstructure:"integrations"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
	Timezone    string `mapstructure:"timezone"`
}

// Location resolves the configured timezone. The applicant sheets are
// maintained in JST, so that is the fallback when the zone database is
// unavailable.
func (a AppConfig) Location() *time.Location {
	if a.Timezone != "" {
		if loc, err := time.LoadLocation(a.Timezone); err == nil {
			return loc
		}
	}
	return time.FixedZone("JST", 9*60*60)
}

// SheetsConfig holds the spreadsheet layout and API retry settings.
type SheetsConfig struct {
	ConfigSpreadsheetID string `mapstructure:"config_spreadsheet_id"`
	AccountSheetName    string `mapstructure:"account_sheet_name"`
	ApplicantSheetName  string `mapstructure:"applicant_sheet_name"`
	TemplateSheetName   string `mapstructure:"template_sheet_name"`
	CredentialsFile     string `mapstructure:"credentials_file"`

	MaxRetries    int           `mapstructure:"max_retries"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
}

// SMTPConfig holds transport-level delivery settings. Host and port are
// resolved per account; only the fallback endpoint lives here.
type SMTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	DefaultHost   string        `mapstructure:"default_host"`
	DefaultPort   int           `mapstructure:"default_port"`
}

// PipelineConfig holds the candidate window and pacing settings.
type PipelineConfig struct {
	SearchDays   int           `mapstructure:"search_days"`
	SendInterval time.Duration `mapstructure:"send_interval"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level         string `mapstructure:"level"`
	Format        string `mapstructure:"format"`
	Dir           string `mapstructure:"dir"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// MetricsConfig controls the optional /metrics listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// IntegrationConfig holds settings for external relay services.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled bool `mapstructure:"enabled"`
		} `mapstructure:"ses"`
	} `mapstructure:"aws"`
}
