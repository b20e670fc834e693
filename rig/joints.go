package rig

import (
	"slices"

	"github.com/plus3/lamprig/scene"
)

// Joints maps part names onto loose references into the graph. A joint whose subtree
// was detached resolves to nothing, exactly like one that never loaded.
type Joints struct {
	graph *scene.Graph
	refs  map[string]*scene.NodeRef
}

func NewJoints(graph *scene.Graph) *Joints {
	return &Joints{
		graph: graph,
		refs:  make(map[string]*scene.NodeRef),
	}
}

// Set records node under name. Detached nodes are ignored.
func (j *Joints) Set(name string, node *scene.Node) bool {
	ref := j.graph.Ref(node)
	if ref == nil {
		return false
	}
	j.refs[name] = ref
	return true
}

func (j *Joints) Get(name string) (*scene.Node, bool) {
	return j.graph.Resolve(j.refs[name])
}

// Names returns every recorded joint, attached or not, sorted.
func (j *Joints) Names() []string {
	names := make([]string, 0, len(j.refs))
	for name := range j.refs {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
