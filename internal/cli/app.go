package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/flowstory"
	"github.com/aretw0/flowstory/internal/config"
	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/internal/metrics"
	"github.com/aretw0/flowstory/internal/stories"
	"github.com/aretw0/flowstory/pkg/adapters/figma"
	"github.com/aretw0/flowstory/pkg/adapters/memory"
	"github.com/aretw0/flowstory/pkg/ports"
)

// Options are the flags shared by every command.
type Options struct {
	ConfigPath string
	EnvFile    string
	// GraphFile overrides the configured graph and forces the file source.
	GraphFile string
	Debug     bool
}

// App is a fully wired engine with its ambient services.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Graph   ports.SceneGraph
	Engine  *flowstory.Engine
}

// Bootstrap loads the configuration and builds the engine with standard CLI conventions.
func Bootstrap(opts Options) (*App, error) {
	cfg, err := config.Load(opts.ConfigPath, opts.EnvFile)
	if err != nil {
		return nil, err
	}
	if opts.GraphFile != "" {
		cfg.Graph.Source = config.SourceFile
		cfg.Graph.File = opts.GraphFile
	}
	return NewApp(cfg, createLogger(cfg, opts.Debug))
}

// NewApp builds an App from an already loaded configuration.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	graph, err := newGraph(cfg, logger)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	generator := stories.NewGenerator(
		stories.WithBaseURL(cfg.OpenAI.BaseURL),
		stories.WithModel(cfg.OpenAI.Model),
		stories.WithTimeout(cfg.OpenAI.Timeout),
		stories.WithHooks(m.Hooks()),
		stories.WithLogger(logger),
	)

	engine, err := flowstory.New(graph,
		flowstory.WithLogger(logger),
		flowstory.WithMaxFrames(cfg.MaxFrames),
		flowstory.WithLinkHost(cfg.LinkHost),
		flowstory.WithGenerator(generator),
		flowstory.WithLifecycleHooks(m.Hooks()),
	)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	return &App{Config: cfg, Logger: logger, Metrics: m, Graph: graph, Engine: engine}, nil
}

func newGraph(cfg *config.Config, logger *slog.Logger) (ports.SceneGraph, error) {
	switch cfg.Graph.Source {
	case config.SourceFigma:
		logger.Debug("using figma scene graph", "file_key", cfg.Graph.FileKey)
		return figma.New(cfg.Graph.FileKey, cfg.Graph.Token,
			figma.WithBaseURL(cfg.Graph.BaseURL),
			figma.WithLogger(logger),
		), nil
	default:
		if cfg.Graph.File == "" {
			return nil, fmt.Errorf("no scene document configured (set graph.file or FLOWSTORY_GRAPH_FILE)")
		}
		logger.Debug("using scene document", "path", cfg.Graph.File)
		graph, err := memory.Load(cfg.Graph.File)
		if err != nil {
			return nil, err
		}
		return graph, nil
	}
}

// createLogger writes to Stderr so Stdout stays free for command output and JSON-RPC.
func createLogger(cfg *config.Config, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(logging.ParseLevel(cfg.LogLevel))
}
