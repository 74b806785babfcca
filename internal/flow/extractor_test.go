package flow_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/aretw0/flowstory/internal/flow"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/dsl"
	"github.com/aretw0/flowstory/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func frameIDs(t *flow.Traversal) []string {
	ids := make([]string, len(t.Frames))
	for i, f := range t.Frames {
		ids[i] = f.ID
	}
	return ids
}

func root(t *testing.T, g ports.SceneGraph, id string) *domain.SceneNode {
	t.Helper()
	n, err := g.ResolveNode(context.Background(), id)
	require.NoError(t, err)
	return n
}

func TestExtract_PreOrder(t *testing.T) {
	b := dsl.New("ABC123")
	b.Frame("F1").OnClick("F2").OnClick("F3")
	b.Frame("F2").OnClick("F4")
	b.Frame("F3")
	b.Frame("F4")
	g := b.MustBuild()

	tr, err := flow.NewExtractor(g).Extract(context.Background(), root(t, g, "F1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"F1", "F2", "F4", "F3"}, frameIDs(tr))
	assert.Equal(t, []domain.Edge{
		{From: "F1", To: "F2", Action: domain.TriggerOnClick},
		{From: "F1", To: "F3", Action: domain.TriggerOnClick},
		{From: "F2", To: "F4", Action: domain.TriggerOnClick},
	}, tr.Connections)
	assert.False(t, tr.Truncated)
}

func TestExtract_Cycle(t *testing.T) {
	b := dsl.New("ABC123")
	b.Frame("F1").OnClick("F2")
	b.Frame("F2").OnClick("F1")
	g := b.MustBuild()

	tr, err := flow.NewExtractor(g).Extract(context.Background(), root(t, g, "F1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"F1", "F2"}, frameIDs(tr))
	assert.Equal(t, []domain.Edge{
		{From: "F1", To: "F2", Action: domain.TriggerOnClick},
		{From: "F2", To: "F1", Action: domain.TriggerOnClick},
	}, tr.Connections)
}

func TestExtract_Diamond(t *testing.T) {
	b := dsl.New("ABC123")
	b.Frame("A").OnClick("B").OnClick("C")
	b.Frame("B").OnClick("D")
	b.Frame("C").OnClick("D")
	b.Frame("D").OnClick("A")
	g := b.MustBuild()

	tr, err := flow.NewExtractor(g).Extract(context.Background(), root(t, g, "A"))
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B", "D", "C"}, frameIDs(tr))
	// Every visited frame contributes its edges once, including those into visited frames.
	assert.Len(t, tr.Connections, 5)
}

func TestExtract_CapAndSingleNotice(t *testing.T) {
	b := dsl.New("ABC123")
	hub := b.Frame("hub")
	for i := 0; i < 14; i++ {
		id := fmt.Sprintf("S%02d", i)
		hub.OnClick(id)
		b.Frame(id).OnClick("hub")
	}
	g := b.MustBuild()

	var notices []string
	ex := flow.NewExtractor(g, flow.WithNotifier(func(ctx context.Context, notice string) {
		notices = append(notices, notice)
	}))

	tr, err := ex.Extract(context.Background(), root(t, g, "hub"))
	require.NoError(t, err)

	assert.Len(t, tr.Frames, domain.DefaultMaxFrames)
	assert.True(t, tr.Truncated)
	require.Len(t, notices, 1)
	assert.Equal(t, "Maximum of 10 frames reached. Some frames may be omitted.", notices[0])

	// Edges are not capped: 14 from the hub plus one back-edge per visited spoke.
	assert.Len(t, tr.Connections, 14+9)
}

func TestExtract_LongChainIsCapped(t *testing.T) {
	b := dsl.New("ABC123")
	for i := 0; i < 12; i++ {
		b.Frame(fmt.Sprintf("N%d", i)).OnClick(fmt.Sprintf("N%d", i+1))
	}
	b.Frame("N12")
	g := b.MustBuild()

	tr, err := flow.NewExtractor(g, flow.WithMaxFrames(4)).Extract(context.Background(), root(t, g, "N0"))
	require.NoError(t, err)

	assert.Equal(t, []string{"N0", "N1", "N2", "N3"}, frameIDs(tr))
	assert.True(t, tr.Truncated)
}

func TestExtract_EdgeOrder(t *testing.T) {
	b := dsl.New("ABC123")
	f := b.Frame("F").OnClick("R1").On(domain.TriggerOnHover, "R2")
	f.Child("C1", domain.NodeTypeInstance).OnClick("C1a").OnClick("C1b")
	f.Child("C2", domain.NodeTypeGroup)
	f.Child("C3", domain.NodeTypeText).On(domain.TriggerOnDrag, "C3a")
	g := b.MustBuild()

	edges := flow.Connections(root(t, g, "F"))

	tos := make([]string, len(edges))
	for i, e := range edges {
		tos[i] = e.To
		assert.Equal(t, "F", e.From, "child edges originate from the frame")
	}
	assert.Equal(t, []string{"R1", "R2", "C1a", "C1b", "C3a"}, tos)
	assert.Equal(t, domain.TriggerOnHover, edges[1].Action)
	assert.Equal(t, domain.TriggerOnDrag, edges[4].Action)
}

func TestConnections_IgnoresNonNavigation(t *testing.T) {
	b := dsl.New("ABC123")
	b.Frame("F").
		React(domain.Reaction{Trigger: &domain.Trigger{Type: domain.TriggerOnClick}, Action: &domain.Action{Type: "BACK"}}).
		React(domain.Reaction{Trigger: &domain.Trigger{Type: domain.TriggerOnClick}, Action: &domain.Action{Type: domain.ActionTypeNode}}).
		React(domain.Reaction{Trigger: &domain.Trigger{Type: domain.TriggerOnClick}}).
		On("", "G")
	g := b.MustBuild()

	edges := flow.Connections(root(t, g, "F"))

	assert.Equal(t, []domain.Edge{{From: "F", To: "G", Action: domain.UnknownAction}}, edges)
}

func TestExtract_SkipsMissingAndNonFrameDestinations(t *testing.T) {
	b := dsl.New("ABC123")
	b.Frame("F1").OnClick("ghost").OnClick("group").OnClick("F2")
	b.Node("group", domain.NodeTypeGroup).OnClick("F3")
	b.Frame("F2")
	b.Frame("F3")
	g := b.MustBuild()

	tr, err := flow.NewExtractor(g).Extract(context.Background(), root(t, g, "F1"))
	require.NoError(t, err)

	assert.Equal(t, []string{"F1", "F2"}, frameIDs(tr))
	assert.Len(t, tr.Connections, 3, "edges to missing and non-frame nodes are kept")
}

func TestExtract_NonFrameRoot(t *testing.T) {
	b := dsl.New("ABC123")
	b.Node("T", domain.NodeTypeText).OnClick("F")
	b.Frame("F")
	g := b.MustBuild()

	tr, err := flow.NewExtractor(g).Extract(context.Background(), root(t, g, "T"))
	require.NoError(t, err)
	assert.Empty(t, tr.Frames)
	assert.Empty(t, tr.Connections)
}

func TestExtract_ResolutionOrderFollowsPreOrder(t *testing.T) {
	b := dsl.New("ABC123")
	b.Frame("F1").OnClick("F2").OnClick("F3")
	b.Frame("F2").OnClick("F4")
	b.Frame("F3")
	b.Frame("F4")
	g := b.MustBuild()
	start := root(t, g, "F1")

	_, err := flow.NewExtractor(g).Extract(context.Background(), start)
	require.NoError(t, err)

	// First entry is the lookup made by the test itself.
	assert.Equal(t, []string{"F1", "F2", "F4", "F3"}, g.Resolved())
}

type failingGraph struct {
	ports.SceneGraph
	failID string
}

func (f failingGraph) ResolveNode(ctx context.Context, id string) (*domain.SceneNode, error) {
	if id == f.failID {
		return nil, errors.New("host unavailable")
	}
	return f.SceneGraph.ResolveNode(ctx, id)
}

func TestExtract_ResolveFailureAborts(t *testing.T) {
	b := dsl.New("ABC123")
	b.Frame("F1").OnClick("F2")
	b.Frame("F2")
	g := b.MustBuild()

	ex := flow.NewExtractor(failingGraph{SceneGraph: g, failID: "F2"})
	tr, err := ex.Extract(context.Background(), root(t, g, "F1"))

	assert.Nil(t, tr)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.Contains(t, err.Error(), "host unavailable")
}

func TestExtract_NilRoot(t *testing.T) {
	g := dsl.New("ABC123").MustBuild()
	_, err := flow.NewExtractor(g).Extract(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrNoSelection)
}

func TestExtract_Hooks(t *testing.T) {
	b := dsl.New("ABC123")
	b.Frame("F1").OnClick("F2")
	b.Frame("F2").OnClick("F3")
	b.Frame("F3")
	g := b.MustBuild()

	var visits []*domain.FrameEvent
	var done *domain.FlowEvent
	truncated := 0
	hooks := domain.LifecycleHooks{
		OnFrameVisit: func(ctx context.Context, e *domain.FrameEvent) { visits = append(visits, e) },
		OnExtracted:  func(ctx context.Context, e *domain.FlowEvent) { done = e },
		OnTruncated:  func(ctx context.Context, e *domain.FlowEvent) { truncated++ },
	}

	_, err := flow.NewExtractor(g, flow.WithHooks(hooks), flow.WithMaxFrames(2)).Extract(context.Background(), root(t, g, "F1"))
	require.NoError(t, err)

	require.Len(t, visits, 2)
	assert.Equal(t, 0, visits[0].Depth)
	assert.Equal(t, "F2", visits[1].FrameID)
	assert.Equal(t, 1, visits[1].Depth)
	assert.Equal(t, 1, truncated)
	require.NotNil(t, done)
	assert.Equal(t, 2, done.Frames)
	assert.Equal(t, "F1", done.RootID)
}

func TestExtract_CancelledContext(t *testing.T) {
	b := dsl.New("ABC123")
	b.Frame("F1").OnClick("F2")
	b.Frame("F2")
	g := b.MustBuild()
	start := root(t, g, "F1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := flow.NewExtractor(g).Extract(ctx, start)
	assert.ErrorIs(t, err, domain.ErrExtraction)
	assert.ErrorIs(t, err, context.Canceled)
}
