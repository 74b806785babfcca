package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowstory/internal/cli"
	"github.com/aretw0/flowstory/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "flowstory",
	Short: "Flowstory turns prototype flows into user stories",
	Long: `Flowstory walks the prototype flow reachable from a frame, renders its screens
and asks a vision model to write the user stories the flow implements.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("config", config.DefaultFile, "Path to the configuration file")
	rootCmd.PersistentFlags().String("env", config.DefaultEnvFile, "Path to a .env file")
	rootCmd.PersistentFlags().String("graph", "", "Scene document to read instead of the configured source")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

// bootstrap builds the application from the persistent flags.
func bootstrap(cmd *cobra.Command) (*cli.App, error) {
	flags := cmd.Flags()
	configPath, _ := flags.GetString("config")
	envFile, _ := flags.GetString("env")
	graphFile, _ := flags.GetString("graph")
	debug, _ := flags.GetBool("debug")

	return cli.Bootstrap(cli.Options{
		ConfigPath: configPath,
		EnvFile:    envFile,
		GraphFile:  graphFile,
		Debug:      debug,
	})
}
