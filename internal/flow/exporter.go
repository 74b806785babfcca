package flow

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/ports"
	"golang.org/x/sync/errgroup"
)

// Export scales.
const (
	FrameScale = 2
	FlowScale  = 1
)

// FrameImage is the rendered image and share link of one frame.
type FrameImage struct {
	Image string // base64 PNG
	Link  string
}

// Exporter renders the frames of a flow through the scene graph.
type Exporter struct {
	graph    ports.SceneGraph
	linkHost string
	logger   *slog.Logger
}

// ExporterOption configures the Exporter.
type ExporterOption func(*Exporter)

// WithLinkHost sets the host used in frame links (default DefaultLinkHost).
func WithLinkHost(host string) ExporterOption {
	return func(x *Exporter) {
		if host != "" {
			x.linkHost = host
		}
	}
}

// WithExportLogger sets the structured logger.
func WithExportLogger(logger *slog.Logger) ExporterOption {
	return func(x *Exporter) {
		if logger != nil {
			x.logger = logger
		}
	}
}

// NewExporter creates an Exporter for graph.
func NewExporter(graph ports.SceneGraph, opts ...ExporterOption) *Exporter {
	x := &Exporter{
		graph:    graph,
		linkHost: DefaultLinkHost,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Export renders every frame at FrameScale and the root at FlowScale, concurrently.
// The first failure cancels the remaining requests and fails the whole batch.
func (x *Exporter) Export(ctx context.Context, frames []*domain.SceneNode, root *domain.SceneNode) (map[string]FrameImage, string, error) {
	g, gctx := errgroup.WithContext(ctx)

	encoded := make([]string, len(frames))
	for i, frame := range frames {
		g.Go(func() error {
			data, err := x.graph.ExportImage(gctx, frame, ports.ExportSettings{Format: ports.FormatPNG, Scale: FrameScale})
			if err != nil {
				return fmt.Errorf("failed to export frame %s: %w", frame.ID, err)
			}
			encoded[i] = base64.StdEncoding.EncodeToString(data)
			return nil
		})
	}

	var flowImage string
	g.Go(func() error {
		data, err := x.graph.ExportImage(gctx, root, ports.ExportSettings{Format: ports.FormatPNG, Scale: FlowScale})
		if err != nil {
			return fmt.Errorf("failed to export flow %s: %w", root.ID, err)
		}
		flowImage = base64.StdEncoding.EncodeToString(data)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, "", fmt.Errorf("%w: %w", domain.ErrExtraction, err)
	}

	fileKey := x.graph.FileKey()
	images := make(map[string]FrameImage, len(frames))
	for i, frame := range frames {
		images[frame.ID] = FrameImage{
			Image: encoded[i],
			Link:  Link(x.linkHost, fileKey, frame.ID),
		}
	}
	x.logger.Debug("exported images", "frames", len(frames), "root", root.ID)
	return images, flowImage, nil
}

// Assemble merges a traversal and its exported images into the final result.
func Assemble(t *Traversal, images map[string]FrameImage, flowImage string) *domain.FlowExtractionResult {
	res := &domain.FlowExtractionResult{
		Frames:      make([]domain.FrameRecord, 0, len(t.Frames)),
		Connections: t.Connections,
		FlowImage:   flowImage,
		Truncated:   t.Truncated,
	}
	if res.Connections == nil {
		res.Connections = []domain.Edge{}
	}
	for _, f := range t.Frames {
		img := images[f.ID]
		res.Frames = append(res.Frames, domain.FrameRecord{
			ID:    f.ID,
			Name:  f.Name,
			Image: img.Image,
			Link:  img.Link,
		})
	}
	return res
}
