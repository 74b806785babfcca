package ports

import (
	"context"

	"github.com/aretw0/flowstory/pkg/domain"
)

// Image formats accepted by ExportImage.
const (
	FormatPNG = "PNG"
	FormatJPG = "JPG"
	FormatSVG = "SVG"
)

// ExportSettings describes how a node should be rendered.
type ExportSettings struct {
	Format string
	Scale  float64
}

// SceneGraph is the host document as seen by the extractor.
// Implementations must be safe for concurrent ExportImage calls.
type SceneGraph interface {
	// ResolveNode returns the node with the given id.
	// It returns domain.ErrNodeNotFound if the id does not exist.
	ResolveNode(ctx context.Context, id string) (*domain.SceneNode, error)

	// ExportImage renders a node and returns the encoded image bytes.
	ExportImage(ctx context.Context, node *domain.SceneNode, settings ExportSettings) ([]byte, error)

	// FileKey identifies the document; it is embedded in frame links.
	FileKey() string
}

// Readier is implemented by graph sources that load asynchronously.
// The returned channel is closed once the scene graph can be queried.
type Readier interface {
	Ready() <-chan struct{}
}
