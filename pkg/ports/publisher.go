package ports

import (
	"context"
	"errors"

	"github.com/aretw0/flowstory/pkg/domain"
)

// Publisher posts messages to the presentation layer.
type Publisher interface {
	Publish(ctx context.Context, msg domain.Message) error
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, msg domain.Message) error

// Publish calls f(ctx, msg).
func (f PublisherFunc) Publish(ctx context.Context, msg domain.Message) error {
	return f(ctx, msg)
}

// MessageSource delivers inbound presentation messages.
// The channel is closed when ctx is done or the source shuts down.
type MessageSource interface {
	Messages(ctx context.Context) (<-chan domain.InboundMessage, error)
}

// Fanout returns a Publisher that posts every message to each of pubs in order.
// All publishers are attempted; their errors are joined.
func Fanout(pubs ...Publisher) Publisher {
	return PublisherFunc(func(ctx context.Context, msg domain.Message) error {
		var errs []error
		for _, p := range pubs {
			if p == nil {
				continue
			}
			if err := p.Publish(ctx, msg); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
