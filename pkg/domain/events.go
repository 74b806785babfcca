package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFrameVisit EventType = "frame_visit"
	EventTruncated  EventType = "truncated"
	EventExtracted  EventType = "extracted"
	EventGenerated  EventType = "generated"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RootID    string    `json:"root_id"`
}

// FrameEvent is emitted when a frame is added to the flow.
type FrameEvent struct {
	EventBase
	FrameID string `json:"frame_id"`
	Depth   int    `json:"depth"`
}

// FlowEvent summarizes an extraction.
type FlowEvent struct {
	EventBase
	Frames      int           `json:"frames"`
	Connections int           `json:"connections"`
	Duration    time.Duration `json:"duration"`
	Err         error         `json:"-"`
}

// GenerationEvent summarizes a story generation call.
type GenerationEvent struct {
	EventBase
	Stories  int           `json:"stories"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnFrameVisit func(context.Context, *FrameEvent)
	OnTruncated  func(context.Context, *FlowEvent)
	OnExtracted  func(context.Context, *FlowEvent)
	OnGenerated  func(context.Context, *GenerationEvent)
}
