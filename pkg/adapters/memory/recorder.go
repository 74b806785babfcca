package memory

import (
	"context"
	"sync"

	"github.com/aretw0/flowstory/pkg/domain"
)

// Recorder implements ports.Publisher by keeping every message in memory.
// Safe for concurrent use.
type Recorder struct {
	mu       sync.RWMutex
	messages []domain.Message
	notify   chan struct{}
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{notify: make(chan struct{}, 1)}
}

// Publish appends the message.
func (r *Recorder) Publish(ctx context.Context, msg domain.Message) error {
	r.mu.Lock()
	r.messages = append(r.messages, msg)
	r.mu.Unlock()

	select {
	case r.notify <- struct{}{}:
	default:
	}
	return nil
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []domain.Message {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Message(nil), r.messages...)
}

// Types returns the type of every recorded message, in order.
func (r *Recorder) Types() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	types := make([]string, len(r.messages))
	for i, m := range r.messages {
		types[i] = m.Type
	}
	return types
}

// Last returns the most recent message of the given type.
func (r *Recorder) Last(msgType string) (domain.Message, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := len(r.messages) - 1; i >= 0; i-- {
		if r.messages[i].Type == msgType {
			return r.messages[i], true
		}
	}
	return domain.Message{}, false
}

// Wait blocks until a message of the given type is recorded or ctx is done.
func (r *Recorder) Wait(ctx context.Context, msgType string) (domain.Message, bool) {
	for {
		if m, ok := r.Last(msgType); ok {
			return m, true
		}
		select {
		case <-ctx.Done():
			return domain.Message{}, false
		case <-r.notify:
		}
	}
}
