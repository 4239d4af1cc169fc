package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remedyhq/remedy"
	"github.com/remedyhq/remedy/internal/cli"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage stored sessions",
	Long:  `List, inspect, resume, cancel, and remove sessions in the configured store.`,
}

// withEngine builds the engine from config, runs fn, and exits on error.
func withEngine(cmd *cobra.Command, fn func(eng *remedy.Engine) error) {
	cfg := loadConfig(cmd)
	eng, closeStore, err := cli.BuildEngine(cfg, newLogger(cfg))
	if err != nil {
		fmt.Printf("Error initializing engine: %v\n", err)
		os.Exit(1)
	}
	defer closeStore()

	if err := fn(eng); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

var sessionLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List all stored sessions",
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(cmd, func(eng *remedy.Engine) error {
			summaries, err := eng.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("No sessions found.")
				return nil
			}
			for _, s := range summaries {
				fmt.Printf("- %s  status=%s  pending=%v  errors=%v\n",
					s["session_id"], s["status"], s["pending_requests"], s["error_count"])
			}
			return nil
		})
	},
}

var sessionInspectCmd = &cobra.Command{
	Use:   "inspect <session-id>",
	Short: "Print the full record of a session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(cmd, func(eng *remedy.Engine) error {
			st, err := eng.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := json.MarshalIndent(st, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		})
	},
}

var sessionResumeCmd = &cobra.Command{
	Use:   "resume <token> <input...>",
	Short: "Resume a suspended session by token",
	Args:  cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(cmd, func(eng *remedy.Engine) error {
			res, err := eng.Resume(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			if res.Waiting != nil {
				fmt.Printf("Session %s suspended again, token: %s\n",
					res.State.SessionID, res.Waiting.Token)
				return nil
			}
			fmt.Printf("Session %s finished: %s\n", res.State.SessionID, res.State.TerminalReason)
			return nil
		})
	},
}

var sessionCancelCmd = &cobra.Command{
	Use:   "cancel <session-id>",
	Short: "Terminate a session without completing it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(cmd, func(eng *remedy.Engine) error {
			st, err := eng.Cancel(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("Session %s cancelled (status %s)\n", st.SessionID, st.Status)
			return nil
		})
	},
}

var sessionRmCmd = &cobra.Command{
	Use:   "rm <session-id>",
	Short: "Remove a session from the store",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(cmd, func(eng *remedy.Engine) error {
			if err := eng.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Printf("Session %s removed\n", args[0])
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionLsCmd)
	sessionCmd.AddCommand(sessionInspectCmd)
	sessionCmd.AddCommand(sessionResumeCmd)
	sessionCmd.AddCommand(sessionCancelCmd)
	sessionCmd.AddCommand(sessionRmCmd)
}
