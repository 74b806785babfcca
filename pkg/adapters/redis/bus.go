package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/aretw0/flowstory/pkg/session"
	backend "github.com/redis/go-redis/v9"
)

// DefaultPrefix namespaces the channels and keys of the bus.
const DefaultPrefix = "flowstory:"

// Bus implements ports.Publisher and ports.MessageSource over Redis pub/sub.
// Outbound messages go to <prefix>out, inbound messages are read from <prefix>in.
// The last message of each type is also kept under <prefix>last:<type> so late
// clients can catch up.
type Bus struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
	logger *slog.Logger
}

type Option func(*Bus)

// WithTTL sets the expiration of the last-message keys.
func WithTTL(ttl time.Duration) Option {
	return func(b *Bus) {
		b.ttl = ttl
	}
}

// WithPrefix sets the channel and key prefix.
func WithPrefix(prefix string) Option {
	return func(b *Bus) {
		b.prefix = prefix
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

// New creates a new Redis bus with options.
func New(address, password string, db int, opts ...Option) *Bus {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis bus from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Bus {
	b := &Bus{
		client: client,
		prefix: DefaultPrefix,
		ttl:    0, // No expiration by default
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OutChannel is the channel outbound messages are published to.
func (b *Bus) OutChannel() string {
	return b.prefix + "out"
}

// InChannel is the channel inbound messages are read from.
func (b *Bus) InChannel() string {
	return b.prefix + "in"
}

func (b *Bus) lastKey(msgType string) string {
	return b.prefix + "last:" + msgType
}

// Publish sends msg to the out channel and records it as the last of its type.
func (b *Bus) Publish(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	pipe := b.client.Pipeline()
	pipe.Set(ctx, b.lastKey(msg.Type), data, b.ttl)
	pipe.Publish(ctx, b.OutChannel(), data)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Last returns the most recent published message of the given type.
func (b *Bus) Last(ctx context.Context, msgType string) (domain.Message, bool, error) {
	data, err := b.client.Get(ctx, b.lastKey(msgType)).Bytes()
	if errors.Is(err, backend.Nil) {
		return domain.Message{}, false, nil
	}
	if err != nil {
		return domain.Message{}, false, fmt.Errorf("failed to read last message: %w", err)
	}

	var msg domain.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return domain.Message{}, false, fmt.Errorf("failed to decode last message: %w", err)
	}
	return msg, true, nil
}

// Messages subscribes to the in channel. Malformed messages are logged and skipped.
// The channel is closed when ctx is done.
func (b *Bus) Messages(ctx context.Context) (<-chan domain.InboundMessage, error) {
	sub := b.client.Subscribe(ctx, b.InChannel())
	// Wait for the subscription to be confirmed so no message published afterwards is lost.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", b.InChannel(), err)
	}

	out := make(chan domain.InboundMessage)
	go func() {
		defer close(out)
		defer sub.Close()

		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				msg, err := session.DecodeMessage([]byte(m.Payload))
				if err != nil {
					b.logger.Warn("redis: dropping inbound message", "channel", m.Channel, "err", err)
					continue
				}
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close closes the underlying client.
func (b *Bus) Close() error {
	return b.client.Close()
}
