package domain

// ActionTypeNode is the "navigate to node" action. Other action types
// (back, close, open URL, ...) never produce edges.
const ActionTypeNode = "NODE"

// Trigger types most commonly found in prototype flows.
const (
	TriggerOnClick      = "ON_CLICK"
	TriggerOnHover      = "ON_HOVER"
	TriggerOnDrag       = "ON_DRAG"
	TriggerAfterTimeout = "AFTER_TIMEOUT"
)

// UnknownAction labels an edge whose reaction has no trigger.
const UnknownAction = "unknown"

// Reaction binds a trigger to an action on a node.
type Reaction struct {
	Trigger *Trigger `json:"trigger,omitempty" yaml:"trigger,omitempty"`
	Action  *Action  `json:"action,omitempty" yaml:"action,omitempty"`
}

// Trigger is the event that activates a reaction.
type Trigger struct {
	Type string `json:"type" yaml:"type"`
}

// Action is what happens when a reaction fires.
type Action struct {
	Type          string `json:"type" yaml:"type"`
	DestinationID string `json:"destinationId,omitempty" yaml:"destinationId,omitempty"`
}

// Navigates reports whether the reaction navigates to another node,
// returning the destination id.
func (r Reaction) Navigates() (string, bool) {
	if r.Action == nil || r.Action.Type != ActionTypeNode || r.Action.DestinationID == "" {
		return "", false
	}
	return r.Action.DestinationID, true
}

// Label returns the trigger type, or UnknownAction when absent.
func (r Reaction) Label() string {
	if r.Trigger == nil || r.Trigger.Type == "" {
		return UnknownAction
	}
	return r.Trigger.Type
}
