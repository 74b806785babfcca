package domain

// DefaultMaxFrames bounds the number of frames visited per extraction.
const DefaultMaxFrames = 10

// Edge is a directed, labeled connection between two frames.
type Edge struct {
	From   string `json:"from" mapstructure:"from"`
	To     string `json:"to" mapstructure:"to"`
	Action string `json:"action" mapstructure:"action"`
}

// FrameRecord is a visited frame with its rendered image and share link.
type FrameRecord struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"` // base64 PNG
	Link  string `json:"link"`
}

// FlowExtractionResult is the outcome of one extraction.
// Frames are in pre-order visitation order.
type FlowExtractionResult struct {
	Frames      []FrameRecord `json:"frames"`
	Connections []Edge        `json:"connections"`
	FlowImage   string        `json:"flowImage"`
	Truncated   bool          `json:"truncated,omitempty"`
}

// Frame returns the record with the given id.
func (r *FlowExtractionResult) Frame(id string) (FrameRecord, bool) {
	for _, f := range r.Frames {
		if f.ID == id {
			return f, true
		}
	}
	return FrameRecord{}, false
}
