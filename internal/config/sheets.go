package config

import (
	"os"

	"github.com/spf13/viper"

	"github.com/Veraticus/seguros/internal/sheets"
)

// LoadSheetsConfig loads Google Sheets configuration from Viper and environment variables.
// It follows this precedence:
// 1. Viper configuration (from config file or SEGUROS_ env vars)
// 2. Direct environment variables (GOOGLE_SHEETS_*)
// 3. Default values
func LoadSheetsConfig(v *viper.Viper) (*sheets.Config, error) {
	config := sheets.DefaultConfig()

	if p := v.GetString("sheets.service_account_path"); p != "" {
		config.ServiceAccountPath = ExpandPath(p)
	}
	config.ClientID = v.GetString("sheets.client_id")
	config.ClientSecret = v.GetString("sheets.client_secret")
	config.RefreshToken = v.GetString("sheets.refresh_token")
	config.SpreadsheetID = v.GetString("sheets.spreadsheet_id")
	if name := v.GetString("sheets.spreadsheet_name"); name != "" {
		config.SpreadsheetName = name
	}
	if n := v.GetInt("sheets.batch_size"); n > 0 {
		config.BatchSize = n
	}
	if v.IsSet("sheets.retry_attempts") {
		config.RetryAttempts = v.GetInt("sheets.retry_attempts")
	}
	if v.IsSet("sheets.retry_delay") {
		config.RetryDelay = v.GetDuration("sheets.retry_delay")
	}

	// Override with direct environment variables if not set
	if config.ServiceAccountPath == "" {
		if p := os.Getenv("GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH"); p != "" {
			config.ServiceAccountPath = ExpandPath(p)
		}
	}
	fallbackEnv(&config.ClientID, "GOOGLE_SHEETS_CLIENT_ID")
	fallbackEnv(&config.ClientSecret, "GOOGLE_SHEETS_CLIENT_SECRET")
	fallbackEnv(&config.RefreshToken, "GOOGLE_SHEETS_REFRESH_TOKEN")
	fallbackEnv(&config.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")
	if config.SpreadsheetName == sheets.DefaultSpreadsheetName {
		if name := os.Getenv("GOOGLE_SHEETS_SPREADSHEET_NAME"); name != "" {
			config.SpreadsheetName = name
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func fallbackEnv(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}
