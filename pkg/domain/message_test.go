package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_MarshalFlowSelected(t *testing.T) {
	data, err := json.Marshal(domain.Message{Type: domain.MessageFlowSelected, Name: "Home", FrameCount: 1})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"flow-selected","name":"Home","frameCount":1,"connectionCount":0,"connections":[]}`, string(data))

	var back domain.Message
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 1, back.FrameCount)
	assert.Equal(t, []domain.Edge{}, back.Connections)
}

func TestMessage_MarshalOtherTypes(t *testing.T) {
	data, err := json.Marshal(domain.Message{Type: domain.MessageInfo, Message: "hello", Seq: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"info","message":"hello","seq":3}`, string(data))
}
