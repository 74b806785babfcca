package domain

// Node type constants reported by the design document.
const (
	// NodeTypeFrame is the container type that can serve as a screen in a flow.
	NodeTypeFrame = "FRAME"
	// NodeTypeGroup, NodeTypeInstance and NodeTypeText are common non-frame kinds.
	NodeTypeGroup    = "GROUP"
	NodeTypeInstance = "INSTANCE"
	NodeTypeText     = "TEXT"
)

// SceneNode is a node of the host scene graph.
// Field names follow the document format so payloads decode without mapping.
type SceneNode struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name,omitempty" yaml:"name,omitempty"`
	Type string `json:"type" yaml:"type"`

	// Children is only populated on container types.
	Children []SceneNode `json:"children,omitempty" yaml:"children,omitempty"`

	// Reactions is only populated on interactive types.
	Reactions []Reaction `json:"reactions,omitempty" yaml:"reactions,omitempty"`
}

// IsFrame reports whether the node can be visited as a screen.
func (n *SceneNode) IsFrame() bool {
	return n != nil && n.Type == NodeTypeFrame
}

// Document is a self-contained scene graph, as stored in fixture files.
type Document struct {
	FileKey string      `json:"fileKey" yaml:"fileKey"`
	Name    string      `json:"name,omitempty" yaml:"name,omitempty"`
	Nodes   []SceneNode `json:"nodes" yaml:"nodes"`
}
