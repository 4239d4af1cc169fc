package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remedyhq/remedy/internal/cli"
)

// runCmd handles one incident interactively on the terminal.
var runCmd = &cobra.Command{
	Use:   "run <description...>",
	Short: "Handle an incident interactively",
	Long: `Starts a session from a free-text incident description and drives it on
the terminal: suspension prompts are answered from stdin, and the final
incident report is rendered when the session completes.`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		sessionID, _ := cmd.Flags().GetString("session")

		eng, closeStore, err := cli.BuildEngine(cfg, newLogger(cfg))
		if err != nil {
			fmt.Printf("Error initializing engine: %v\n", err)
			os.Exit(1)
		}
		defer closeStore()

		text := strings.Join(args, " ")
		if _, err := cli.RunInteractive(cmd.Context(), eng, sessionID, text, os.Stdin, os.Stdout); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("session", "s", "", "Session ID (generated when empty)")
}
