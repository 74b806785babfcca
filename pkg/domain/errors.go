package domain

import "errors"

// ErrNoSelection is returned when no frame is selected.
var ErrNoSelection = errors.New("no frame selected")

// ErrNodeNotFound is returned by graph sources for unknown node ids.
var ErrNodeNotFound = errors.New("node not found")

// ErrExtraction wraps graph source failures during traversal or export.
var ErrExtraction = errors.New("flow extraction failed")

// ErrGeneration wraps failures of the story generation API.
var ErrGeneration = errors.New("failed to generate user stories")

// ErrUnknownMessage is returned for inbound messages with an unsupported type.
var ErrUnknownMessage = errors.New("unknown message type")
