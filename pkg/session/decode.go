package session

import (
	"encoding/json"
	"fmt"

	"github.com/aretw0/flowstory/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

// DecodeMessage decodes an inbound JSON message. Scalar fields are weakly typed,
// so a numeric node id is accepted. Unknown types are rejected with domain.ErrUnknownMessage.
func DecodeMessage(raw []byte) (domain.InboundMessage, error) {
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return domain.InboundMessage{}, fmt.Errorf("invalid message: %w", err)
	}
	return DecodeMap(payload)
}

// DecodeMap decodes an already parsed inbound message.
func DecodeMap(payload map[string]any) (domain.InboundMessage, error) {
	var msg domain.InboundMessage
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &msg,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return msg, err
	}
	if err := dec.Decode(payload); err != nil {
		return msg, fmt.Errorf("invalid message: %w", err)
	}

	switch msg.Type {
	case domain.MessageGenerateStories, domain.MessageExportStories, domain.MessageSelectionChange:
		return msg, nil
	default:
		return msg, fmt.Errorf("%w: %q", domain.ErrUnknownMessage, msg.Type)
	}
}
