package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/ports"
)

// Notifier receives informational notices raised during an extraction.
type Notifier func(ctx context.Context, notice string)

// Traversal is the raw outcome of walking a flow, before images are exported.
type Traversal struct {
	Root        *domain.SceneNode
	Frames      []*domain.SceneNode
	Connections []domain.Edge
	Truncated   bool
}

// Extractor walks the prototype flow reachable from a root frame.
type Extractor struct {
	graph     ports.SceneGraph
	maxFrames int
	notify    Notifier
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
}

// ExtractorOption configures the Extractor.
type ExtractorOption func(*Extractor)

// WithMaxFrames sets the frame cap (default domain.DefaultMaxFrames).
func WithMaxFrames(n int) ExtractorOption {
	return func(e *Extractor) {
		if n > 0 {
			e.maxFrames = n
		}
	}
}

// WithNotifier sets the receiver of the truncation notice.
func WithNotifier(fn Notifier) ExtractorOption {
	return func(e *Extractor) {
		e.notify = fn
	}
}

// WithHooks registers observability hooks.
func WithHooks(hooks domain.LifecycleHooks) ExtractorOption {
	return func(e *Extractor) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) ExtractorOption {
	return func(e *Extractor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewExtractor creates an Extractor reading from graph.
func NewExtractor(graph ports.SceneGraph, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		graph:     graph,
		maxFrames: domain.DefaultMaxFrames,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// MaxFrames returns the configured frame cap.
func (e *Extractor) MaxFrames() int {
	return e.maxFrames
}

// Extract walks the flow depth-first in pre-order, starting at root.
//
// Frames are visited at most once and at most MaxFrames are kept. Edges are
// collected for every visited frame and are not capped. A failing graph
// lookup aborts the walk; destinations that do not exist are skipped.
func (e *Extractor) Extract(ctx context.Context, root *domain.SceneNode) (*Traversal, error) {
	if root == nil {
		return nil, domain.ErrNoSelection
	}
	start := time.Now()
	w := &walk{
		ex:      e,
		t:       &Traversal{Root: root},
		visited: make(map[string]struct{}),
	}

	err := w.run(ctx, root)
	if e.hooks.OnExtracted != nil {
		e.hooks.OnExtracted(ctx, &domain.FlowEvent{
			EventBase:   domain.EventBase{Timestamp: time.Now(), Type: domain.EventExtracted, RootID: root.ID},
			Frames:      len(w.t.Frames),
			Connections: len(w.t.Connections),
			Duration:    time.Since(start),
			Err:         err,
		})
	}
	if err != nil {
		return nil, err
	}
	return w.t, nil
}

// cursor tracks the outgoing edges of a visited frame still to be followed.
type cursor struct {
	edges []domain.Edge
	next  int
	depth int
}

// walk holds the state of one extraction.
type walk struct {
	ex       *Extractor
	t        *Traversal
	visited  map[string]struct{}
	stack    []cursor
	notified bool
}

func (w *walk) run(ctx context.Context, root *domain.SceneNode) error {
	w.visit(ctx, root, 0)

	for len(w.stack) > 0 {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrExtraction, err)
		}

		top := &w.stack[len(w.stack)-1]
		if top.next >= len(top.edges) {
			w.stack = w.stack[:len(w.stack)-1]
			continue
		}
		edge := top.edges[top.next]
		top.next++
		depth := top.depth + 1

		dest, err := w.ex.graph.ResolveNode(ctx, edge.To)
		if errors.Is(err, domain.ErrNodeNotFound) {
			w.ex.logger.Debug("destination not found", "from", edge.From, "to", edge.To)
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: failed to resolve node %s: %w", domain.ErrExtraction, edge.To, err)
		}
		if dest.IsFrame() {
			w.visit(ctx, dest, depth)
		}
	}
	return nil
}

// visit adds node to the flow and schedules its edges.
func (w *walk) visit(ctx context.Context, node *domain.SceneNode, depth int) {
	if len(w.t.Frames) >= w.ex.maxFrames {
		w.truncate(ctx)
		return
	}
	if !node.IsFrame() {
		return
	}
	if _, seen := w.visited[node.ID]; seen {
		return
	}

	w.t.Frames = append(w.t.Frames, node)
	w.visited[node.ID] = struct{}{}
	if w.ex.hooks.OnFrameVisit != nil {
		w.ex.hooks.OnFrameVisit(ctx, &domain.FrameEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventFrameVisit, RootID: w.t.Root.ID},
			FrameID:   node.ID,
			Depth:     depth,
		})
	}

	edges := Connections(node)
	w.t.Connections = append(w.t.Connections, edges...)
	if len(edges) > 0 {
		w.stack = append(w.stack, cursor{edges: edges, depth: depth})
	}
}

// truncate records that the cap was hit. The notice is raised once per extraction.
func (w *walk) truncate(ctx context.Context) {
	w.t.Truncated = true
	if w.notified {
		return
	}
	w.notified = true

	notice := fmt.Sprintf("Maximum of %d frames reached. Some frames may be omitted.", w.ex.maxFrames)
	w.ex.logger.Info("frame cap reached", "max_frames", w.ex.maxFrames, "root", w.t.Root.ID)
	if w.ex.notify != nil {
		w.ex.notify(ctx, notice)
	}
	if w.ex.hooks.OnTruncated != nil {
		w.ex.hooks.OnTruncated(ctx, &domain.FlowEvent{
			EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventTruncated, RootID: w.t.Root.ID},
			Frames:    len(w.t.Frames),
		})
	}
}

// Connections returns the outgoing edges of a frame: its own reactions first,
// then the reactions of each direct child in child order.
func Connections(frame *domain.SceneNode) []domain.Edge {
	var edges []domain.Edge
	edges = appendEdges(edges, frame.ID, frame.Reactions)
	for i := range frame.Children {
		edges = appendEdges(edges, frame.ID, frame.Children[i].Reactions)
	}
	return edges
}

func appendEdges(edges []domain.Edge, from string, reactions []domain.Reaction) []domain.Edge {
	for _, r := range reactions {
		to, ok := r.Navigates()
		if !ok {
			continue
		}
		edges = append(edges, domain.Edge{From: from, To: to, Action: r.Label()})
	}
	return edges
}
