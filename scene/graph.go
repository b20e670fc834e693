// Package scene provides a retained scene graph and the single-threaded frame
// runtime (scheduler, systems, deferred commands) that mutates it.
package scene

import (
	"errors"
	"weak"

	"github.com/kamstrup/intmap"
)

var (
	ErrNilNode         = errors.New("scene: nil node")
	ErrParentDetached  = errors.New("scene: parent is not attached to this graph")
	ErrAlreadyParented = errors.New("scene: node already has a parent")
	ErrCycle           = errors.New("scene: attach would create a cycle")
)

// RootName is the name of every graph's root node.
const RootName = "scene"

// Graph is a retained scene graph. All mutation is expected to happen on a single
// goroutine (the frame thread); Graph performs no locking.
type Graph struct {
	root    *Node
	nodes   *intmap.Map[NodeId, *Node]
	refs    *intmap.Map[NodeId, weak.Pointer[NodeRef]]
	nextId  NodeId
	count   int
	version uint64
}

// GraphStats summarises the contents of a graph.
type GraphStats struct {
	NodeCount     int
	MeshCount     int
	LightCount    int
	TriangleCount int
	MaxDepth      int
}

// NewGraph creates a graph containing only its root node.
func NewGraph() *Graph {
	g := &Graph{
		nodes: intmap.New[NodeId, *Node](256),
		refs:  intmap.New[NodeId, weak.Pointer[NodeRef]](64),
	}
	g.root = NewNode(RootName)
	g.index(g.root)
	return g
}

func (g *Graph) Root() *Node {
	return g.root
}

// Len returns the number of attached nodes, including the root.
func (g *Graph) Len() int {
	return g.count
}

// Version increases on every structural change.
func (g *Graph) Version() uint64 {
	return g.version
}

// Attach appends child, with its whole subtree, to an attached parent.
func (g *Graph) Attach(parent, child *Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if parent.graph != g {
		return ErrParentDetached
	}
	if err := link(parent, child); err != nil {
		return err
	}

	child.Traverse(func(n *Node) bool {
		g.index(n)
		return true
	})
	g.version++
	return nil
}

// Detach removes node and its subtree from the graph. Refs into the subtree are
// invalidated. The root cannot be detached.
func (g *Graph) Detach(node *Node) bool {
	if node == nil || node.graph != g || node == g.root {
		return false
	}

	unlink(node)
	node.Traverse(func(n *Node) bool {
		g.unindex(n)
		return true
	})
	g.version++
	return true
}

// Lookup returns the attached node with the given id.
func (g *Graph) Lookup(id NodeId) *Node {
	n, ok := g.nodes.Get(id)
	if !ok {
		return nil
	}
	return n
}

// FindByName returns the first attached node in pre-order with the given name.
func (g *Graph) FindByName(name string) *Node {
	return g.root.Find(name)
}

// Walk visits every attached node depth-first in pre-order with its depth below the root.
// Returning false skips the node's children.
func (g *Graph) Walk(fn func(n *Node, depth int) bool) {
	walk(g.root, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	for _, child := range n.children {
		walk(child, depth+1, fn)
	}
}

func (g *Graph) Stats() GraphStats {
	var stats GraphStats
	g.Walk(func(n *Node, depth int) bool {
		stats.NodeCount++
		if n.Mesh != nil {
			stats.MeshCount++
			stats.TriangleCount += n.Mesh.TriangleCount()
		}
		if n.Light != nil {
			stats.LightCount++
		}
		if depth > stats.MaxDepth {
			stats.MaxDepth = depth
		}
		return true
	})
	return stats
}

// Ref returns the stable reference for an attached node, creating it on first use.
// Returns nil if node is not attached to g.
func (g *Graph) Ref(node *Node) *NodeRef {
	if node == nil || node.graph != g {
		return nil
	}

	if weakPtr, ok := g.refs.Get(node.id); ok {
		if ref := weakPtr.Value(); ref != nil {
			return ref
		}
		g.refs.Del(node.id)
	}

	ref := &NodeRef{id: node.id, node: node}
	g.refs.Put(node.id, weak.Make(ref))
	return ref
}

// Resolve returns the node behind ref if it is still attached.
func (g *Graph) Resolve(ref *NodeRef) (*Node, bool) {
	if ref == nil || ref.node == nil {
		return nil, false
	}
	if ref.node.graph != g {
		return nil, false
	}
	return ref.node, true
}

func (g *Graph) index(n *Node) {
	g.nextId++
	n.id = g.nextId
	n.graph = g
	g.nodes.Put(n.id, n)
	g.count++
}

func (g *Graph) unindex(n *Node) {
	if weakPtr, ok := g.refs.Get(n.id); ok {
		if ref := weakPtr.Value(); ref != nil {
			ref.id = 0
			ref.node = nil
		}
		g.refs.Del(n.id)
	}
	g.nodes.Del(n.id)
	g.count--
	n.id = 0
	n.graph = nil
}
