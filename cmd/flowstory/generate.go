package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowstory/internal/cli"
	"github.com/aretw0/flowstory/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var generateCmd = &cobra.Command{
	Use:   "generate <node-id>",
	Short: "Generate user stories for the flow starting at a frame",
	Long: `Extracts the prototype flow reachable from the given frame, renders its screens
and asks the configured model for user stories. The result is printed as Markdown.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		apiKey, _ := flags.GetString("api-key")
		output, _ := flags.GetString("output")
		asJSON, _ := flags.GetBool("json")
		title, _ := flags.GetString("title")

		app, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		if apiKey == "" {
			apiKey = app.Config.OpenAI.APIKey
		}

		x, err := app.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		for _, n := range x.Notices {
			fmt.Fprintf(os.Stderr, ">>> %s\n", n)
		}
		app.Logger.Info("generating user stories", "flow", x.Root.Name, "frames", len(x.Result.Frames))

		doc, err := app.Engine.Generate(cmd.Context(), x.Result, apiKey)
		if err != nil {
			return err
		}
		if title == "" {
			title = x.Root.Name
		}

		if output == "" {
			return cli.WriteStories(os.Stdout, tui.ForFile(os.Stdout), title, doc, asJSON)
		}
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", output, err)
		}
		defer f.Close()
		if err := cli.WriteStories(f, tui.Plain, title, doc, asJSON); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, ">>> Wrote %d user stories to %s\n", len(doc.UserStories), output)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().String("api-key", "", "OpenAI API key (defaults to OPENAI_API_KEY)")
	generateCmd.Flags().StringP("output", "o", "", "Write the stories to a file instead of stdout")
	generateCmd.Flags().Bool("json", false, "Print the story document as JSON")
	generateCmd.Flags().String("title", "", "Heading of the Markdown document (defaults to the flow name)")
}
