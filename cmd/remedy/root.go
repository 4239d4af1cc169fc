package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/remedyhq/remedy/internal/cli"
	"github.com/remedyhq/remedy/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "remedy",
	Short: "Remedy is an incident-response orchestration engine",
	Long: `Remedy drives incidents from alert to report through classification,
diagnosis, planning, execution, and reporting, suspending for operator
input whenever information or approval is missing.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to the configuration file")
}

// loadConfig reads the configured YAML file, or the defaults when none is given.
func loadConfig(cmd *cobra.Command) config.Config {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

func newLogger(cfg config.Config) *slog.Logger {
	return cli.NewLogger(cfg.Log)
}
