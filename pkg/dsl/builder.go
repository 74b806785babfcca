package dsl

import (
	"fmt"

	"github.com/aretw0/flowstory/pkg/adapters/memory"
	"github.com/aretw0/flowstory/pkg/domain"
)

// Builder manages the scene graph construction.
type Builder struct {
	fileKey string
	roots   []*NodeBuilder
	nodes   map[string]*NodeBuilder
}

// New creates a new scene graph builder for the given file key.
func New(fileKey string) *Builder {
	return &Builder{
		fileKey: fileKey,
		nodes:   make(map[string]*NodeBuilder),
	}
}

// Frame adds a top-level frame.
// If the node already exists, it returns the existing builder.
func (b *Builder) Frame(id string) *NodeBuilder {
	return b.Node(id, domain.NodeTypeFrame)
}

// Node adds a top-level node of any type.
// If the node already exists, it returns the existing builder.
func (b *Builder) Node(id, nodeType string) *NodeBuilder {
	if nb, ok := b.nodes[id]; ok {
		return nb
	}
	nb := b.newNode(id, nodeType)
	b.roots = append(b.roots, nb)
	return nb
}

func (b *Builder) newNode(id, nodeType string) *NodeBuilder {
	nb := &NodeBuilder{
		node:    domain.SceneNode{ID: id, Name: id, Type: nodeType},
		builder: b,
	}
	b.nodes[id] = nb
	return nb
}

// Document returns the built tree without indexing it.
func (b *Builder) Document() domain.Document {
	nodes := make([]domain.SceneNode, 0, len(b.roots))
	for _, nb := range b.roots {
		nodes = append(nodes, nb.Build())
	}
	return domain.Document{FileKey: b.fileKey, Nodes: nodes}
}

// Build compiles the graph into an in-memory SceneGraph.
func (b *Builder) Build(opts ...memory.Option) (*memory.SceneGraph, error) {
	graph, err := memory.FromDocument(b.Document(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build scene graph: %w", err)
	}
	return graph, nil
}

// MustBuild is like Build but panics on error. Intended for tests.
func (b *Builder) MustBuild(opts ...memory.Option) *memory.SceneGraph {
	graph, err := b.Build(opts...)
	if err != nil {
		panic(err)
	}
	return graph
}
