package domain

import "encoding/json"

// Outbound message types posted to the presentation layer.
const (
	MessageNoSelection  = "no-selection"
	MessageProcessing   = "processing"
	MessageFlowSelected = "flow-selected"
	MessageError        = "error"
	MessageInfo         = "info"
	MessageUserStories  = "user-stories"
)

// Inbound message types received from the presentation layer.
const (
	MessageGenerateStories = "generate-stories"
	MessageExportStories   = "export-stories"
	// MessageSelectionChange carries host selection events over transports
	// that have no direct access to the host.
	MessageSelectionChange = "selection-change"
)

// Message is the tagged union posted to the presentation layer.
type Message struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Seq     uint64 `json:"seq,omitempty"`

	// flow-selected
	Name            string `json:"name,omitempty"`
	FrameCount      int    `json:"frameCount,omitempty"`
	ConnectionCount int    `json:"connectionCount,omitempty"`
	Connections     []Edge `json:"connections,omitempty"`

	// user-stories
	Data *StoryDocument `json:"data,omitempty"`
}

// MarshalJSON writes the flow-selected payload in full, including zero counts
// and an empty connection list.
func (m Message) MarshalJSON() ([]byte, error) {
	type plain Message
	if m.Type != MessageFlowSelected {
		return json.Marshal(plain(m))
	}
	connections := m.Connections
	if connections == nil {
		connections = []Edge{}
	}
	return json.Marshal(struct {
		plain
		Name            string `json:"name"`
		FrameCount      int    `json:"frameCount"`
		ConnectionCount int    `json:"connectionCount"`
		Connections     []Edge `json:"connections"`
	}{plain(m), m.Name, m.FrameCount, m.ConnectionCount, connections})
}

// InboundMessage is a request from the presentation layer.
type InboundMessage struct {
	Type   string `json:"type" mapstructure:"type"`
	APIKey string `json:"apiKey,omitempty" mapstructure:"apiKey"`
	NodeID string `json:"nodeId,omitempty" mapstructure:"nodeId"`
}
