package main

import (
	"os"

	"github.com/aretw0/flowstory/internal/cli"
	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <node-id>",
	Short: "Extract the prototype flow starting at a frame",
	Long: `Walks the prototype flow reachable from the given frame and lists its screens
and connections. Use --json for a machine readable summary.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		app, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		x, err := app.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return cli.WriteFlow(os.Stdout, x, asJSON)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().Bool("json", false, "Print the flow as JSON")
}
