package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/flowstory"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of flowstory",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("flowstory version %s\n", strings.TrimSpace(flowstory.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
