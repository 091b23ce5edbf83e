package cmd

import (
	"fmt"
	"os"

	"deepscan/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Version is the application version.
const Version = "0.1.0"

var configPath string

var rootCmd = &cobra.Command{
	Use:     "deepscan",
	Short:   "Two-branch deepfake detector for face-track frame directories",
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Optional .env for CONFIG_PATH, LOG_DIR and DB_PATH defaults.
		_ = godotenv.Load()
		if configPath == "" {
			configPath = config.DefaultPath()
		}
	},
}

// Execute runs the CLI.
func Execute() {
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to the configuration document (default: CONFIG_PATH or ./config/infer_config.json)")
}
