package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/ports"
	"gopkg.in/yaml.v3"
)

// ExportFunc renders a node. It replaces the placeholder renderer.
type ExportFunc func(ctx context.Context, node *domain.SceneNode, settings ports.ExportSettings) ([]byte, error)

// SceneGraph implements ports.SceneGraph over an in-memory document.
// Nodes are read-only after construction; safe for concurrent use.
type SceneGraph struct {
	fileKey string
	nodes   []domain.SceneNode
	index   map[string]*domain.SceneNode
	images  map[string][]byte
	export  ExportFunc
	ready   chan struct{}

	mu       sync.Mutex
	resolved []string
	exported []string
}

// Option configures the SceneGraph.
type Option func(*SceneGraph)

// WithImage serves fixed bytes when the node is exported.
func WithImage(nodeID string, data []byte) Option {
	return func(g *SceneGraph) {
		g.images[nodeID] = data
	}
}

// WithExporter overrides how nodes are rendered.
func WithExporter(fn ExportFunc) Option {
	return func(g *SceneGraph) {
		g.export = fn
	}
}

// NewSceneGraph indexes the given node trees. Every node, at any depth, can be resolved by id.
func NewSceneGraph(fileKey string, nodes []domain.SceneNode, opts ...Option) (*SceneGraph, error) {
	g := &SceneGraph{
		fileKey: fileKey,
		nodes:   nodes,
		index:   make(map[string]*domain.SceneNode),
		images:  make(map[string][]byte),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(g)
	}

	for i := range g.nodes {
		if err := g.add(&g.nodes[i]); err != nil {
			return nil, err
		}
	}
	close(g.ready)
	return g, nil
}

func (g *SceneGraph) add(n *domain.SceneNode) error {
	if n.ID == "" {
		return fmt.Errorf("node missing ID (name %q)", n.Name)
	}
	if _, dup := g.index[n.ID]; dup {
		return fmt.Errorf("duplicate node ID: %s", n.ID)
	}
	g.index[n.ID] = n
	for i := range n.Children {
		if err := g.add(&n.Children[i]); err != nil {
			return err
		}
	}
	return nil
}

// FromDocument builds a SceneGraph from a decoded document.
func FromDocument(doc domain.Document, opts ...Option) (*SceneGraph, error) {
	if doc.FileKey == "" {
		return nil, fmt.Errorf("document missing fileKey")
	}
	return NewSceneGraph(doc.FileKey, doc.Nodes, opts...)
}

// Load reads a document file (YAML or JSON) and builds a SceneGraph.
func Load(path string, opts ...Option) (*SceneGraph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scene document: %w", err)
	}

	var doc domain.Document
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	} else {
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(path), err)
		}
	}

	return FromDocument(doc, opts...)
}

// ResolveNode returns the node with the given id. The returned node must not be modified.
func (g *SceneGraph) ResolveNode(ctx context.Context, id string) (*domain.SceneNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.resolved = append(g.resolved, id)
	g.mu.Unlock()

	n, ok := g.index[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrNodeNotFound, id)
	}
	return n, nil
}

// ExportImage renders the node. Without a custom exporter or fixed image,
// it produces a flat placeholder PNG whose size follows the scale.
func (g *SceneGraph) ExportImage(ctx context.Context, node *domain.SceneNode, settings ports.ExportSettings) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	g.exported = append(g.exported, node.ID)
	g.mu.Unlock()

	if g.export != nil {
		return g.export(ctx, node, settings)
	}
	if data, ok := g.images[node.ID]; ok {
		return data, nil
	}
	if settings.Format != "" && settings.Format != ports.FormatPNG {
		return nil, fmt.Errorf("unsupported export format: %s", settings.Format)
	}
	return placeholder(node.ID, settings.Scale)
}

// FileKey returns the document key.
func (g *SceneGraph) FileKey() string {
	return g.fileKey
}

// Ready is closed once the document is indexed.
func (g *SceneGraph) Ready() <-chan struct{} {
	return g.ready
}

// Resolved returns the ids passed to ResolveNode, in call order.
func (g *SceneGraph) Resolved() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.resolved...)
}

// Exported returns the ids passed to ExportImage, in call order.
func (g *SceneGraph) Exported() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]string(nil), g.exported...)
}

const placeholderSize = 16

func placeholder(id string, scale float64) ([]byte, error) {
	if scale <= 0 {
		scale = 1
	}
	side := int(math.Round(placeholderSize * scale))

	h := fnv.New32a()
	h.Write([]byte(id))
	sum := h.Sum32()
	fill := color.RGBA{R: uint8(sum), G: uint8(sum >> 8), B: uint8(sum >> 16), A: 0xff}

	img := image.NewRGBA(image.Rect(0, 0, side, side))
	for y := 0; y < side; y++ {
		for x := 0; x < side; x++ {
			img.SetRGBA(x, y, fill)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode placeholder: %w", err)
	}
	return buf.Bytes(), nil
}
