package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/flowstory/internal/logging"
	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/google/uuid"
)

// StreamManager handles active SSE connections and implements ports.Publisher.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]chan string // client id -> channel
	logger      *slog.Logger
}

// NewStreamManager creates a StreamManager with no subscribers.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]chan string),
		logger:      logger,
	}
}

// Subscribe registers a new client. The returned cancel function unregisters it
// and closes the channel.
func (sm *StreamManager) Subscribe() (string, <-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	id := uuid.NewString()
	ch := make(chan string, 16)
	sm.subscribers[id] = ch

	return id, ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if ch, ok := sm.subscribers[id]; ok {
			delete(sm.subscribers, id)
			close(ch)
		}
	}
}

// Subscribers returns the number of connected clients.
func (sm *StreamManager) Subscribers() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers)
}

// Broadcast sends a raw payload to every client.
func (sm *StreamManager) Broadcast(msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sm.logger.Debug("StreamManager: Broadcasting", "subscribers", len(sm.subscribers), "payload_size", len(msg))
	for id, ch := range sm.subscribers {
		select {
		case ch <- msg:
		default:
			// Drop message if channel is full (slow client)
			sm.logger.Warn("SSE: Client buffer full, dropping message", "client_id", id)
		}
	}
}

// Publish broadcasts msg as JSON.
func (sm *StreamManager) Publish(ctx context.Context, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}
	sm.Broadcast(string(data))
	return nil
}
