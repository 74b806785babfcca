package flowstory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aretw0/flowstory/internal/flow"
	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/internal/stories"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/ports"
)

// Notifier receives informational notices raised while a flow is extracted,
// such as the frame cap being reached.
type Notifier func(ctx context.Context, notice string)

// Engine is the high-level entry point of the library.
// It composes flow extraction, image export and story generation over one scene graph.
type Engine struct {
	graph     ports.SceneGraph
	generator ports.StoryGenerator
	maxFrames int
	linkHost  string
	notify    Notifier
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithMaxFrames caps the number of frames collected per extraction.
func WithMaxFrames(n int) Option {
	return func(e *Engine) {
		e.maxFrames = n
	}
}

// WithLinkHost sets the host used in frame links.
func WithLinkHost(host string) Option {
	return func(e *Engine) {
		e.linkHost = host
	}
}

// WithGenerator injects the story generator. Defaults to the OpenAI-backed generator.
func WithGenerator(g ports.StoryGenerator) Option {
	return func(e *Engine) {
		e.generator = g
	}
}

// WithNotifier sets the default receiver of extraction notices.
func WithNotifier(fn Notifier) Option {
	return func(e *Engine) {
		e.notify = fn
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// New initializes an Engine reading from graph.
func New(graph ports.SceneGraph, opts ...Option) (*Engine, error) {
	if graph == nil {
		return nil, fmt.Errorf("scene graph is required")
	}
	eng := &Engine{
		graph:     graph,
		maxFrames: domain.DefaultMaxFrames,
		linkHost:  flow.DefaultLinkHost,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.generator == nil {
		eng.generator = stories.NewGenerator(
			stories.WithLogger(eng.logger),
			stories.WithHooks(eng.hooks),
		)
	}
	return eng, nil
}

// Graph returns the scene graph the engine reads from.
func (e *Engine) Graph() ports.SceneGraph {
	return e.graph
}

// MaxFrames returns the frame cap.
func (e *Engine) MaxFrames() int {
	return e.maxFrames
}

// ExtractOption adjusts a single extraction.
type ExtractOption func(*extractCall)

type extractCall struct {
	notify Notifier
}

// Notify routes the notices of one extraction to fn instead of the engine default.
func Notify(fn Notifier) ExtractOption {
	return func(c *extractCall) {
		c.notify = fn
	}
}

// Resolve looks up a node by id. It returns domain.ErrNoSelection when the node
// does not exist or is not a frame.
func (e *Engine) Resolve(ctx context.Context, nodeID string) (*domain.SceneNode, error) {
	if nodeID == "" {
		return nil, domain.ErrNoSelection
	}
	node, err := e.graph.ResolveNode(ctx, nodeID)
	if errors.Is(err, domain.ErrNodeNotFound) {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoSelection, err)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}
	if !node.IsFrame() {
		return nil, fmt.Errorf("%w: node %s is a %s", domain.ErrNoSelection, node.ID, node.Type)
	}
	return node, nil
}

// Extract walks the flow starting at root and renders every collected frame.
func (e *Engine) Extract(ctx context.Context, root *domain.SceneNode, opts ...ExtractOption) (*domain.FlowExtractionResult, error) {
	call := extractCall{notify: e.notify}
	for _, opt := range opts {
		opt(&call)
	}

	exOpts := []flow.ExtractorOption{
		flow.WithMaxFrames(e.maxFrames),
		flow.WithHooks(e.hooks),
		flow.WithLogger(e.logger),
	}
	if call.notify != nil {
		exOpts = append(exOpts, flow.WithNotifier(flow.Notifier(call.notify)))
	}

	t, err := flow.NewExtractor(e.graph, exOpts...).Extract(ctx, root)
	if err != nil {
		return nil, err
	}

	images, flowImage, err := flow.NewExporter(e.graph,
		flow.WithLinkHost(e.linkHost),
		flow.WithExportLogger(e.logger),
	).Export(ctx, t.Frames, t.Root)
	if err != nil {
		return nil, err
	}

	res := flow.Assemble(t, images, flowImage)
	e.logger.Info(fmt.Sprintf("Found %d frames and %d connections", len(res.Frames), len(res.Connections)),
		"root", root.ID, "truncated", res.Truncated)
	for _, c := range res.Connections {
		e.logger.Debug("connection", "from", c.From, "to", c.To, "action", c.Action)
	}
	return res, nil
}

// ExtractByID resolves nodeID and extracts the flow rooted at it.
func (e *Engine) ExtractByID(ctx context.Context, nodeID string, opts ...ExtractOption) (*domain.FlowExtractionResult, error) {
	root, err := e.Resolve(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	return e.Extract(ctx, root, opts...)
}

// Generate synthesizes user stories for an extracted flow.
func (e *Engine) Generate(ctx context.Context, res *domain.FlowExtractionResult, apiKey string) (*domain.StoryDocument, error) {
	if res == nil {
		return nil, domain.ErrNoSelection
	}
	return e.generator.Generate(ctx, res, apiKey)
}
