package tests

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SceneGraphContractTest is a reusable suite that verifies an adapter complies with ports.SceneGraph.
// frameID must identify a frame known to the graph.
func SceneGraphContractTest(t *testing.T, graph ports.SceneGraph, frameID string) {
	t.Helper()
	ctx := context.Background()

	t.Run("ResolveNode_Success", func(t *testing.T) {
		node, err := graph.ResolveNode(ctx, frameID)
		require.NoError(t, err)
		require.NotNil(t, node)
		assert.Equal(t, frameID, node.ID)
		assert.True(t, node.IsFrame())
	})

	t.Run("ResolveNode_NotFound", func(t *testing.T) {
		_, err := graph.ResolveNode(ctx, "non-existent-node")
		assert.True(t, errors.Is(err, domain.ErrNodeNotFound), "expected ErrNodeNotFound, got %v", err)
	})

	t.Run("ExportImage_PNG", func(t *testing.T) {
		node, err := graph.ResolveNode(ctx, frameID)
		require.NoError(t, err)

		data, err := graph.ExportImage(ctx, node, ports.ExportSettings{Format: ports.FormatPNG, Scale: 2})
		require.NoError(t, err)
		require.NotEmpty(t, data)

		_, err = png.DecodeConfig(bytes.NewReader(data))
		assert.NoError(t, err, "export should be a valid PNG")
	})

	t.Run("FileKey", func(t *testing.T) {
		assert.NotEmpty(t, graph.FileKey())
	})
}
