package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/remedyhq/remedy"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of remedy",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("remedy version %s\n", strings.TrimSpace(remedy.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
