package main

import (
	"fmt"
	"os"

	"github.com/ReyCannavaro/urbangrow/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	cfg    *config.Config
	logger *zap.Logger

	apiBaseURL string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "urbangrow",
	Short: "UrbanGrow aquaponics monitoring server and dashboard client",
	Long: `UrbanGrow stores water temperature, pH and light readings from the
aquaponics rig, switches the pump and grow light, and mirrors the
dashboard's live view from the terminal.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load()
		if err != nil {
			return err
		}
		if apiBaseURL != "" {
			conf.APIBaseURL = apiBaseURL
		}
		if verbose {
			conf.LogLevel = "debug"
		}

		logger, err = config.NewLogger(conf.LogLevel, conf.LogDevelopment)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = conf
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiBaseURL, "api", "", "API base URL for client commands (overrides API_BASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(serveCmd, watchCmd, toggleCmd, ingestCmd, chatCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
