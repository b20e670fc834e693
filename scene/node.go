package scene

import (
	"fmt"
	"slices"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

// NodeId identifies a node attached to a Graph. Ids are assigned on attach and are
// never reused within a graph. Detached nodes have id 0.
type NodeId uint32

// Node is an element of the scene graph. It owns a local transform and an ordered
// list of children; its world transform is the composition of its ancestors'.
type Node struct {
	Name      string
	Transform Transform

	Mesh     *Mesh
	Material *Material
	Light    *Light

	CastShadow    bool
	ReceiveShadow bool
	Visible       bool

	id       NodeId
	graph    *Graph
	parent   *Node
	children []*Node
}

// NewNode creates a detached, visible node with an identity transform.
func NewNode(name string) *Node {
	return &Node{
		Name:      name,
		Transform: NewTransform(),
		Visible:   true,
	}
}

// NewMeshNode creates a detached node carrying mesh geometry.
func NewMeshNode(name string, mesh *Mesh, material *Material) *Node {
	n := NewNode(name)
	n.Mesh = mesh
	n.Material = material
	return n
}

// NewLightNode creates a detached node carrying a light.
func NewLightNode(name string, light *Light) *Node {
	n := NewNode(name)
	n.Light = light
	return n
}

func (n *Node) Id() NodeId {
	return n.id
}

func (n *Node) Parent() *Node {
	return n.parent
}

// Graph returns the graph the node is attached to, or nil.
func (n *Node) Graph() *Graph {
	return n.graph
}

// Attached reports whether the node is reachable from a graph root.
func (n *Node) Attached() bool {
	return n.graph != nil
}

// Children returns a copy of the node's children in order.
func (n *Node) Children() []*Node {
	return slices.Clone(n.children)
}

func (n *Node) ChildCount() int {
	return len(n.children)
}

// IsMesh reports whether the node carries geometry.
func (n *Node) IsMesh() bool {
	return n.Mesh != nil
}

// Add appends child to n. On an attached node this goes through Graph.Attach so the
// subtree gets indexed; on a detached node it only links the two.
func (n *Node) Add(child *Node) error {
	if n.graph != nil {
		return n.graph.Attach(n, child)
	}
	return link(n, child)
}

// IsAncestorOf reports whether n is a strict ancestor of other.
func (n *Node) IsAncestorOf(other *Node) bool {
	for p := other.parent; p != nil; p = p.parent {
		if p == n {
			return true
		}
	}
	return false
}

// Traverse visits n and its descendants depth-first in pre-order.
// Returning false from fn skips the visited node's children.
func (n *Node) Traverse(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, child := range n.children {
		child.Traverse(fn)
	}
}

// Find returns the first node in pre-order (including n) with the given name.
func (n *Node) Find(name string) *Node {
	var found *Node
	n.Traverse(func(c *Node) bool {
		if found != nil {
			return false
		}
		if c.Name == name {
			found = c
			return false
		}
		return true
	})
	return found
}

// Depth is the number of ancestors of n.
func (n *Node) Depth() int {
	depth := 0
	for p := n.parent; p != nil; p = p.parent {
		depth++
	}
	return depth
}

// Path returns the slash-separated names from the topmost ancestor to n.
func (n *Node) Path() string {
	var names []string
	for c := n; c != nil; c = c.parent {
		names = append(names, c.Name)
	}
	slices.Reverse(names)
	return strings.Join(names, "/")
}

func (n *Node) LocalMatrix() mgl32.Mat4 {
	return n.Transform.Matrix()
}

// WorldMatrix composes the local matrices of n and all of its ancestors.
func (n *Node) WorldMatrix() mgl32.Mat4 {
	m := n.Transform.Matrix()
	for p := n.parent; p != nil; p = p.parent {
		m = p.Transform.Matrix().Mul4(m)
	}
	return m
}

func (n *Node) WorldPosition() mgl32.Vec3 {
	return n.WorldMatrix().Col(3).Vec3()
}

// TreeString renders the subtree rooted at n, one node per line.
func (n *Node) TreeString() string {
	var sb strings.Builder
	n.writeTree(&sb, 0)
	return sb.String()
}

func (n *Node) writeTree(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(n.Name)
	switch {
	case n.Mesh != nil:
		fmt.Fprintf(sb, " [mesh %d tris]", n.Mesh.TriangleCount())
	case n.Light != nil:
		fmt.Fprintf(sb, " [%s light]", n.Light.Kind)
	}
	sb.WriteByte('\n')
	for _, child := range n.children {
		child.writeTree(sb, depth+1)
	}
}

func link(parent, child *Node) error {
	if parent == nil || child == nil {
		return ErrNilNode
	}
	if child.parent != nil || child.graph != nil {
		return ErrAlreadyParented
	}
	if child == parent || child.IsAncestorOf(parent) {
		return ErrCycle
	}
	parent.children = append(parent.children, child)
	child.parent = parent
	return nil
}

func unlink(child *Node) {
	parent := child.parent
	if parent == nil {
		return
	}
	if i := slices.Index(parent.children, child); i >= 0 {
		parent.children = slices.Delete(parent.children, i, i+1)
	}
	child.parent = nil
}
