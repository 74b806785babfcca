package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	httpadapter "github.com/aretw0/flowstory/pkg/adapters/http"
	"github.com/aretw0/flowstory/pkg/adapters/redis"
	"github.com/aretw0/flowstory/pkg/ports"
	"github.com/aretw0/flowstory/pkg/session"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// ServeOptions configure RunServe.
type ServeOptions struct {
	// Addr overrides the configured listen address.
	Addr string
	// Selection is analysed as soon as the session starts.
	Selection string
}

// NewSession wires a session whose messages reach the SSE streams, the Redis
// bus when one is configured, and the message counters.
func (a *App) NewSession(streams *httpadapter.StreamManager, bus *redis.Bus, selection string) *session.Session {
	pubs := []ports.Publisher{streams}
	if bus != nil {
		pubs = append(pubs, bus)
	}
	return session.New(a.Engine, a.Metrics.Publisher(ports.Fanout(pubs...)),
		session.WithAPIKey(a.Config.OpenAI.APIKey),
		session.WithSelection(selection),
		session.WithLogger(a.Logger),
	)
}

// RunServe serves the HTTP API until ctx is done, then shuts down gracefully.
// With a Redis address configured, inbound messages are also read from the bus.
func RunServe(ctx context.Context, app *App, opts ServeOptions) error {
	addr := opts.Addr
	if addr == "" {
		addr = app.Config.Server.Addr
	}

	var bus *redis.Bus
	if app.Config.Redis.Addr != "" {
		bus = redis.New(app.Config.Redis.Addr, "", 0,
			redis.WithPrefix(app.Config.Redis.Prefix),
			redis.WithLogger(app.Logger),
		)
		defer bus.Close()
	}

	streams := httpadapter.NewStreamManager(app.Logger)
	sess := app.NewSession(streams, bus, opts.Selection)
	srv := &http.Server{
		Addr: addr,
		Handler: httpadapter.NewHandler(sess, streams,
			httpadapter.WithMetrics(app.Metrics.Handler()),
			httpadapter.WithBaseContext(ctx),
			httpadapter.WithLogger(app.Logger),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		app.Logger.Info("starting flowstory server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		app.Logger.Info("shutting down server")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
			return fmt.Errorf("graceful shutdown did not complete in %v: %w", shutdownTimeout, err)
		}
		return nil
	})
	g.Go(func() error {
		if err := sess.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			app.Logger.Warn("initial selection failed", "err", err)
		}
		return nil
	})
	if bus != nil {
		g.Go(func() error {
			app.Logger.Info("listening for messages", "channel", bus.InChannel())
			return sess.Serve(gctx, bus)
		})
	}

	return g.Wait()
}
