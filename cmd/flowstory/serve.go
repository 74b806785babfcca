package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/aretw0/flowstory"
	"github.com/aretw0/flowstory/internal/cli"
	"github.com/aretw0/flowstory/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Starts a session exposed over HTTP. Messages are streamed to /events (SSE) and,
when a Redis address is configured, published on the bus as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")
		selection, _ := cmd.Flags().GetString("select")

		app, err := bootstrap(cmd)
		if err != nil {
			return err
		}
		tui.PrintBanner(os.Stderr, flowstory.Version)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if err := cli.RunServe(ctx, app, cli.ServeOptions{Addr: addr, Selection: selection}); err != nil {
			return err
		}
		app.Logger.Info("flowstory server stopped gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (defaults to server.addr)")
	serveCmd.Flags().String("select", "", "Frame analysed when the session starts")
}
