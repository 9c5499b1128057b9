// Package mediaproof is the mediaproof command line: it serves the ledger and
// drives the hosted programs from the provider's wallet.
package mediaproof

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const envPrefix = "MEDIAPROOF"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:          "mediaproof",
	Short:        "Ledger and client for the media provenance programs",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := viper.BindPFlags(cmd.Flags()); err != nil {
			return fmt.Errorf("failed to bind flags: %w", err)
		}
		return setLogLevel(viper.GetString("logLevel"))
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: none)")
	rootCmd.PersistentFlags().StringP("logLevel", "l", "info", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		initializeCmd(),
		deepfakeCmd(),
		originalityCmd(),
		postCmd(),
		extractCmd(),
		statusCmd(),
		keygenCmd(),
	)
}

func initConfig() {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if cfgFile == "" {
		return
	}
	viper.SetConfigFile(cfgFile)
	if err := viper.ReadInConfig(); err != nil {
		slog.Error("Failed to read config file", "file", cfgFile, "error", err)
		os.Exit(1)
	}
	slog.Debug("Using config file", "file", viper.ConfigFileUsed())
}

func setLogLevel(level string) error {
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
	return nil
}
