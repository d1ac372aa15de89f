package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/Veraticus/seguros/internal/common"
)

// DefaultClientSecret is the password given to logins created for new clients.
const DefaultClientSecret = "12345"

// Config is the resolved application configuration.
type Config struct {
	DataDir             string
	AuthDatabase        string
	User                string
	Password            string
	ClientDefaultSecret string
	LogLevel            string
	LogFormat           string
	StrictCPF           bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("data.dir", defaultDataDir())
	v.SetDefault("auth.client_default_secret", DefaultClientSecret)
	v.SetDefault("validation.strict_cpf", false)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
}

func defaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "seguros")
	}
	return filepath.Join("~", ".local", "share", "seguros")
}

// Load reads the configuration from v, expanding paths.
func Load(v *viper.Viper) (Config, error) {
	cfg := Config{
		DataDir:             ExpandPath(v.GetString("data.dir")),
		AuthDatabase:        ExpandPath(v.GetString("auth.database")),
		User:                v.GetString("auth.user"),
		Password:            v.GetString("auth.password"),
		ClientDefaultSecret: v.GetString("auth.client_default_secret"),
		StrictCPF:           v.GetBool("validation.strict_cpf"),
		LogLevel:            v.GetString("logging.level"),
		LogFormat:           v.GetString("logging.format"),
	}

	if cfg.AuthDatabase == "" && cfg.DataDir != "" {
		cfg.AuthDatabase = filepath.Join(cfg.DataDir, "usuarios.db")
	}
	if cfg.ClientDefaultSecret == "" {
		cfg.ClientDefaultSecret = DefaultClientSecret
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the required settings are present.
func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data.dir", common.ErrMissingConfig)
	}
	if c.AuthDatabase == "" {
		return fmt.Errorf("%w: auth.database", common.ErrMissingConfig)
	}
	if _, err := common.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	switch c.LogFormat {
	case "", "console", "json":
	default:
		return fmt.Errorf("%w: log format %q", common.ErrInvalidConfig, c.LogFormat)
	}
	return nil
}
