package ports_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/ports"
	"github.com/stretchr/testify/assert"
)

func TestFanout(t *testing.T) {
	var got []string
	record := func(name string, err error) ports.Publisher {
		return ports.PublisherFunc(func(ctx context.Context, msg domain.Message) error {
			got = append(got, name+":"+msg.Type)
			return err
		})
	}
	boom := errors.New("boom")

	pub := ports.Fanout(record("a", nil), nil, record("b", boom), record("c", nil))
	err := pub.Publish(context.Background(), domain.Message{Type: domain.MessageInfo})

	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"a:info", "b:info", "c:info"}, got)
}

func TestFanout_Empty(t *testing.T) {
	assert.NoError(t, ports.Fanout().Publish(context.Background(), domain.Message{}))
}
