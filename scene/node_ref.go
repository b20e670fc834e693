package scene

// NodeRef is a stable reference to an attached node. The graph keeps at most one
// ref per node and clears it when the node is detached, so holders can tell a
// node that never loaded or was removed apart from a live one.
type NodeRef struct {
	id   NodeId
	node *Node
}

// Id returns the referenced node's id, or 0 once the ref has been invalidated.
func (r *NodeRef) Id() NodeId {
	if r == nil {
		return 0
	}
	return r.id
}

// Valid reports whether the ref still points at an attached node.
func (r *NodeRef) Valid() bool {
	return r != nil && r.node != nil
}
