package dsl

import "github.com/aretw0/flowstory/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node     domain.SceneNode
	children []*NodeBuilder
	builder  *Builder
}

// Named sets the display name of the node (defaults to its id).
func (n *NodeBuilder) Named(name string) *NodeBuilder {
	n.node.Name = name
	return n
}

// On adds a "navigate to node" reaction fired by the given trigger.
// An empty trigger produces a reaction without trigger.
func (n *NodeBuilder) On(trigger, destination string) *NodeBuilder {
	r := domain.Reaction{
		Action: &domain.Action{Type: domain.ActionTypeNode, DestinationID: destination},
	}
	if trigger != "" {
		r.Trigger = &domain.Trigger{Type: trigger}
	}
	n.node.Reactions = append(n.node.Reactions, r)
	return n
}

// OnClick adds a click navigation to the destination.
func (n *NodeBuilder) OnClick(destination string) *NodeBuilder {
	return n.On(domain.TriggerOnClick, destination)
}

// React adds a raw reaction (e.g. non-navigation actions).
func (n *NodeBuilder) React(r domain.Reaction) *NodeBuilder {
	n.node.Reactions = append(n.node.Reactions, r)
	return n
}

// Child adds a direct child and returns its builder.
func (n *NodeBuilder) Child(id, nodeType string) *NodeBuilder {
	child := n.builder.newNode(id, nodeType)
	n.children = append(n.children, child)
	return child
}

// Button adds an instance child that navigates to the destination on click.
// It returns the parent builder for chaining.
func (n *NodeBuilder) Button(id, destination string) *NodeBuilder {
	n.Child(id, domain.NodeTypeInstance).OnClick(destination)
	return n
}

// Build returns the node with its children.
func (n *NodeBuilder) Build() domain.SceneNode {
	node := n.node
	node.Reactions = append([]domain.Reaction(nil), n.node.Reactions...)
	node.Children = nil
	for _, c := range n.children {
		node.Children = append(node.Children, c.Build())
	}
	return node
}
