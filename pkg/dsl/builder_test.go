package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/flowstory"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/dsl"
	"github.com/aretw0/flowstory/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilder_Document(t *testing.T) {
	b := dsl.New("ABC")
	b.Frame("1:1").Named("Login").
		Button("1:2", "2:1").
		On("", "3:1")
	b.Frame("2:1")
	b.Node("9:9", domain.NodeTypeGroup).Named("Decor")

	doc := b.Document()
	assert.Equal(t, "ABC", doc.FileKey)
	require.Len(t, doc.Nodes, 3)

	login := doc.Nodes[0]
	assert.Equal(t, "Login", login.Name)
	require.Len(t, login.Children, 1)
	assert.Equal(t, domain.NodeTypeInstance, login.Children[0].Type)
	assert.Equal(t, domain.TriggerOnClick, login.Children[0].Reactions[0].Label())

	require.Len(t, login.Reactions, 1)
	assert.Nil(t, login.Reactions[0].Trigger)
	assert.Equal(t, domain.UnknownAction, login.Reactions[0].Label())

	// Names default to ids.
	assert.Equal(t, "2:1", doc.Nodes[1].Name)
}

func TestBuilder_FrameIsIdempotent(t *testing.T) {
	b := dsl.New("ABC")
	b.Frame("1:1").Named("First")
	b.Frame("1:1").OnClick("2:1")

	doc := b.Document()
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "First", doc.Nodes[0].Name)
	assert.Len(t, doc.Nodes[0].Reactions, 1)
}

func TestBuilder_React(t *testing.T) {
	b := dsl.New("ABC")
	b.Frame("1:1").React(domain.Reaction{
		Trigger: &domain.Trigger{Type: domain.TriggerOnClick},
		Action:  &domain.Action{Type: "BACK"},
	})

	node := b.Document().Nodes[0]
	_, ok := node.Reactions[0].Navigates()
	assert.False(t, ok)
}

func TestBuilder_Build(t *testing.T) {
	b := dsl.New("ABC")
	b.Frame("1:1").Button("1:2", "2:1")
	b.Frame("2:1")

	graph, err := b.Build()
	require.NoError(t, err)
	tests.SceneGraphContractTest(t, graph, "1:1")
}

func TestBuilder_ReusesChildren(t *testing.T) {
	b := dsl.New("ABC")
	b.Frame("1:1").Child("2:1", domain.NodeTypeText)
	b.Frame("2:1").Named("Label")

	doc := b.Document()
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "Label", doc.Nodes[0].Children[0].Name)
}

func TestBuilder_BuildError(t *testing.T) {
	b := dsl.New("")
	b.Frame("1:1")

	_, err := b.Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to build scene graph")
	assert.Panics(t, func() { b.MustBuild() })
}

func TestBuilder_Extract(t *testing.T) {
	b := dsl.New("ABC")
	b.Frame("1:1").Named("A").Button("1:2", "2:1")
	b.Frame("2:1").Named("B").On(domain.TriggerOnDrag, "1:1")

	eng, err := flowstory.New(b.MustBuild())
	require.NoError(t, err)
	res, err := eng.ExtractByID(context.Background(), "1:1")
	require.NoError(t, err)

	assert.Equal(t, []domain.Edge{
		{From: "1:1", To: "2:1", Action: domain.TriggerOnClick},
		{From: "2:1", To: "1:1", Action: domain.TriggerOnDrag},
	}, res.Connections)
}
