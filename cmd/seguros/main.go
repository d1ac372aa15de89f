package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/seguros/internal/cli"
	"github.com/Veraticus/seguros/internal/common"
	"github.com/Veraticus/seguros/internal/config"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "seguros",
		Short: "🛡️  Cadastro de clientes, apólices e sinistros",
		Long: `seguros: registers insurance clients, their policies (Automóvel,
Residencial, Vida) and claims, keeps them in JSON files and turns them
into reports, Excel or CSV files or Google Sheets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return initConfig(cfgFile)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/seguros/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("data-dir", "", "directory holding the JSON data files")
	flags.StringP("user", "u", "", "login name")
	flags.String("password", "", "login password (prompted when omitted)")
	flags.Bool("strict-cpf", false, "verify CPF check digits")

	_ = viper.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = viper.BindPFlag("data.dir", flags.Lookup("data-dir"))
	_ = viper.BindPFlag("auth.user", flags.Lookup("user"))
	_ = viper.BindPFlag("auth.password", flags.Lookup("password"))
	_ = viper.BindPFlag("validation.strict_cpf", flags.Lookup("strict-cpf"))

	rootCmd.AddCommand(clientsCmd())
	rootCmd.AddCommand(policiesCmd())
	rootCmd.AddCommand(claimsCmd())
	rootCmd.AddCommand(reportsCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(usersCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	ctx, cancel := context.WithCancel(context.Background())

	handler := cli.NewInterruptHandler(os.Stderr)
	ctx = handler.HandleInterrupts(ctx, "Os dados já gravados foram preservados.")

	err := newRootCmd().ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(userMessage(err))) //nolint:forbidigo // User-facing output
		os.Exit(1)
	}
}

// userMessage prefers the message a command attached for the operator.
func userMessage(err error) string {
	var userErr *common.UserError
	if errors.As(err, &userErr) {
		return userErr.UserMessage
	}
	return err.Error()
}

func initConfig(cfgFile string) error {
	config.SetDefaults(viper.GetViper())

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/seguros", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// SEGUROS_DATA_DIR maps to data.dir.
	viper.SetEnvPrefix("SEGUROS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging() error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	return common.SetupLogger(level, viper.GetString("logging.format"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "seguros %s\n", version) //nolint:forbidigo // User-facing output
		},
	}
}
