package main

import (
	"fmt"
	"os"

	"github.com/aretw0/flowstory/internal/presentation/graph"
	"github.com/aretw0/flowstory/internal/stories"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/spf13/cobra"
)

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph <node-id>",
	Short: "Export the flow graph visualization",
	Long: `Extracts the flow starting at the given frame and outputs a Mermaid diagram (graph TD).
With --stories, the screens referenced by a story document are highlighted.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		storiesPath, _ := cmd.Flags().GetString("stories")

		var doc *domain.StoryDocument
		if storiesPath != "" {
			data, err := os.ReadFile(storiesPath)
			if err != nil {
				return fmt.Errorf("failed to read stories: %w", err)
			}
			if doc, err = stories.Parse(string(data)); err != nil {
				return fmt.Errorf("%s: %w", storiesPath, err)
			}
		}

		app, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		x, err := app.Extract(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		fmt.Print(graph.GenerateMermaid(x.Result, graph.Overlay(doc, x.Root.ID)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	graphCmd.Flags().String("stories", "", "Story document (JSON) whose related screens are highlighted")
}
