package main

import (
	"fmt"
	"strings"

	"github.com/skillgate/skillgate"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of skillgate",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("skillgate version %s\n", strings.TrimSpace(skillgate.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
