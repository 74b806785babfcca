package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/flowstory/pkg/adapters/memory"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	r := memory.NewRecorder()
	ctx := context.Background()

	require.NoError(t, r.Publish(ctx, domain.Message{Type: domain.MessageProcessing, Message: "a"}))
	require.NoError(t, r.Publish(ctx, domain.Message{Type: domain.MessageInfo}))
	require.NoError(t, r.Publish(ctx, domain.Message{Type: domain.MessageProcessing, Message: "b"}))

	assert.Equal(t, []string{domain.MessageProcessing, domain.MessageInfo, domain.MessageProcessing}, r.Types())
	last, ok := r.Last(domain.MessageProcessing)
	require.True(t, ok)
	assert.Equal(t, "b", last.Message)

	_, ok = r.Last(domain.MessageError)
	assert.False(t, ok)

	msgs := r.Messages()
	msgs[0].Message = "changed"
	assert.Equal(t, "a", r.Messages()[0].Message)
}

func TestRecorder_Wait(t *testing.T) {
	r := memory.NewRecorder()
	go func() {
		time.Sleep(10 * time.Millisecond)
		_ = r.Publish(context.Background(), domain.Message{Type: domain.MessageInfo})
		_ = r.Publish(context.Background(), domain.Message{Type: domain.MessageUserStories})
	}()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	msg, ok := r.Wait(ctx, domain.MessageUserStories)
	assert.True(t, ok)
	assert.Equal(t, domain.MessageUserStories, msg.Type)

	short, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel2()
	_, ok = r.Wait(short, domain.MessageError)
	assert.False(t, ok)
}
