// Package sheets uploads exported policy tables to Google Sheets.
package sheets

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Defaults for a new spreadsheet.
const (
	DefaultSpreadsheetName = "Apólices Seguros"
	DefaultSheetTitle      = "Apólices"
)

// Config holds the configuration for the Google Sheets writer.
type Config struct {
	ClientID           string
	ClientSecret       string
	RefreshToken       string
	ServiceAccountPath string
	SpreadsheetID      string
	SpreadsheetName    string
	SheetTitle         string
	TimeZone           string
	BatchSize          int
	RetryAttempts      int
	RetryDelay         time.Duration
	EnableFormatting   bool
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		EnableFormatting: true,
		SpreadsheetName:  DefaultSpreadsheetName,
		SheetTitle:       DefaultSheetTitle,
		TimeZone:         "America/Sao_Paulo",
		BatchSize:        1000,
		RetryAttempts:    3,
		RetryDelay:       time.Second,
	}
}

// LoadFromEnv loads the configuration from GOOGLE_SHEETS_* environment variables.
// Variables that are unset leave the current value alone.
func (c *Config) LoadFromEnv() error {
	setFromEnv(&c.ClientID, "GOOGLE_SHEETS_CLIENT_ID")
	setFromEnv(&c.ClientSecret, "GOOGLE_SHEETS_CLIENT_SECRET")
	setFromEnv(&c.RefreshToken, "GOOGLE_SHEETS_REFRESH_TOKEN")
	setFromEnv(&c.ServiceAccountPath, "GOOGLE_SHEETS_SERVICE_ACCOUNT_PATH")
	setFromEnv(&c.SpreadsheetID, "GOOGLE_SHEETS_SPREADSHEET_ID")
	setFromEnv(&c.SpreadsheetName, "GOOGLE_SHEETS_SPREADSHEET_NAME")

	if v := os.Getenv("GOOGLE_SHEETS_BATCH_SIZE"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid GOOGLE_SHEETS_BATCH_SIZE %q: %w", v, err)
		}
		c.BatchSize = n
	}

	if c.ServiceAccountPath == "" && (c.ClientID == "" || c.ClientSecret == "" || c.RefreshToken == "") {
		return fmt.Errorf("missing Google Sheets authentication: provide either service account path or OAuth2 credentials")
	}

	if c.SpreadsheetName == "" {
		c.SpreadsheetName = DefaultSpreadsheetName
	}

	return nil
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	hasOAuth := c.ClientID != "" && c.ClientSecret != "" && c.RefreshToken != ""
	hasServiceAccount := c.ServiceAccountPath != ""

	if !hasOAuth && !hasServiceAccount {
		return fmt.Errorf("no authentication method configured")
	}

	if hasOAuth && hasServiceAccount {
		return fmt.Errorf("multiple authentication methods configured; use either OAuth2 or service account")
	}

	if c.BatchSize <= 0 {
		return fmt.Errorf("batch size must be positive")
	}

	if c.RetryAttempts < 0 {
		return fmt.Errorf("retry attempts cannot be negative")
	}

	if c.RetryDelay < 0 {
		return fmt.Errorf("retry delay cannot be negative")
	}

	return nil
}
