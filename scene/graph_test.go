package scene_test

import (
	"runtime"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/plus3/lamprig/scene"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGraph(t *testing.T) {
	g := scene.NewGraph()

	root := g.Root()
	require.NotNil(t, root)
	assert.Equal(t, scene.RootName, root.Name)
	assert.True(t, root.Attached())
	assert.NotEqual(t, scene.NodeId(0), root.Id())
	assert.Equal(t, 1, g.Len())
	assert.Same(t, root, g.Lookup(root.Id()))
}

func TestAttachIndexesSubtree(t *testing.T) {
	g := scene.NewGraph()

	base := scene.NewNode("base")
	pivot := scene.NewNode("lowerArmPivot")
	arm := scene.NewNode("lowerArm")
	require.NoError(t, pivot.Add(arm))
	require.NoError(t, base.Add(pivot))

	assert.False(t, arm.Attached())
	assert.Equal(t, scene.NodeId(0), arm.Id())

	before := g.Version()
	require.NoError(t, g.Attach(g.Root(), base))

	assert.Equal(t, 4, g.Len())
	assert.Greater(t, g.Version(), before)
	for _, n := range []*scene.Node{base, pivot, arm} {
		assert.True(t, n.Attached(), n.Name)
		assert.NotEqual(t, scene.NodeId(0), n.Id(), n.Name)
		assert.Same(t, n, g.Lookup(n.Id()))
		assert.Same(t, g, n.Graph())
	}
	assert.Equal(t, "scene/base/lowerArmPivot/lowerArm", arm.Path())
	assert.Equal(t, 3, arm.Depth())
	assert.Same(t, arm, g.FindByName("lowerArm"))
}

func TestAttachErrors(t *testing.T) {
	g := scene.NewGraph()

	t.Run("nil nodes", func(t *testing.T) {
		assert.ErrorIs(t, g.Attach(nil, scene.NewNode("a")), scene.ErrNilNode)
		assert.ErrorIs(t, g.Attach(g.Root(), nil), scene.ErrNilNode)
	})

	t.Run("detached parent", func(t *testing.T) {
		parent := scene.NewNode("parent")
		err := g.Attach(parent, scene.NewNode("child"))
		assert.ErrorIs(t, err, scene.ErrParentDetached)
	})

	t.Run("parent from another graph", func(t *testing.T) {
		other := scene.NewGraph()
		err := g.Attach(other.Root(), scene.NewNode("child"))
		assert.ErrorIs(t, err, scene.ErrParentDetached)
	})

	t.Run("child already parented", func(t *testing.T) {
		holder := scene.NewNode("holder")
		child := scene.NewNode("child")
		require.NoError(t, holder.Add(child))

		assert.ErrorIs(t, g.Attach(g.Root(), child), scene.ErrAlreadyParented)
	})

	t.Run("root cannot be re-attached", func(t *testing.T) {
		parent := scene.NewNode("parent")
		require.NoError(t, g.Attach(g.Root(), parent))
		assert.ErrorIs(t, g.Attach(parent, g.Root()), scene.ErrAlreadyParented)
	})

	t.Run("cycle between detached nodes", func(t *testing.T) {
		a := scene.NewNode("a")
		b := scene.NewNode("b")
		require.NoError(t, a.Add(b))
		assert.ErrorIs(t, b.Add(a), scene.ErrCycle)

		c := scene.NewNode("c")
		assert.ErrorIs(t, c.Add(c), scene.ErrCycle)
	})
}

func TestDetach(t *testing.T) {
	g := scene.NewGraph()
	base := scene.NewNode("base")
	head := scene.NewNode("head")
	require.NoError(t, g.Attach(g.Root(), base))
	require.NoError(t, base.Add(head))
	require.Equal(t, 3, g.Len())

	headId := head.Id()
	assert.True(t, g.Detach(base))

	assert.Equal(t, 1, g.Len())
	assert.False(t, base.Attached())
	assert.False(t, head.Attached())
	assert.Nil(t, base.Parent())
	assert.Nil(t, g.Lookup(headId))
	assert.Equal(t, 0, g.Root().ChildCount())

	// the subtree stays linked and can be attached again with fresh ids
	assert.Same(t, base, head.Parent())
	require.NoError(t, g.Attach(g.Root(), base))
	assert.NotEqual(t, headId, head.Id())

	assert.False(t, g.Detach(g.Root()))
	assert.False(t, g.Detach(nil))
	assert.False(t, g.Detach(scene.NewNode("loose")))
}

func TestNodeRef(t *testing.T) {
	g := scene.NewGraph()
	head := scene.NewNode("head")

	assert.Nil(t, g.Ref(head), "detached nodes have no ref")

	require.NoError(t, g.Attach(g.Root(), head))
	ref := g.Ref(head)
	require.NotNil(t, ref)
	assert.True(t, ref.Valid())
	assert.Equal(t, head.Id(), ref.Id())
	assert.Same(t, ref, g.Ref(head), "one ref per node")

	resolved, ok := g.Resolve(ref)
	assert.True(t, ok)
	assert.Same(t, head, resolved)

	g.Detach(head)
	assert.False(t, ref.Valid())
	assert.Equal(t, scene.NodeId(0), ref.Id())
	_, ok = g.Resolve(ref)
	assert.False(t, ok)

	_, ok = g.Resolve(nil)
	assert.False(t, ok)
}

func TestNodeRefRecreatedAfterCollection(t *testing.T) {
	g := scene.NewGraph()
	node := scene.NewNode("lamp")
	require.NoError(t, g.Attach(g.Root(), node))

	_ = g.Ref(node)
	runtime.GC()

	ref := g.Ref(node)
	require.NotNil(t, ref)
	resolved, ok := g.Resolve(ref)
	assert.True(t, ok)
	assert.Same(t, node, resolved)
}

func TestWorldMatrixComposesAncestors(t *testing.T) {
	g := scene.NewGraph()

	desk := scene.NewNode("desk")
	desk.Transform.Position = mgl32.Vec3{0, -1, 0}
	desk.Transform.Scale = mgl32.Vec3{2, 2, 2}

	pivot := scene.NewNode("pivot")
	pivot.Transform.Position = mgl32.Vec3{0, 1, 0}

	arm := scene.NewNode("arm")
	arm.Transform.Rotation = mgl32.Vec3{0, mgl32.DegToRad(90), 0}

	tip := scene.NewNode("tip")
	tip.Transform.Position = mgl32.Vec3{0, 0, 1}

	require.NoError(t, g.Attach(g.Root(), desk))
	require.NoError(t, desk.Add(pivot))
	require.NoError(t, pivot.Add(arm))
	require.NoError(t, arm.Add(tip))

	// tip (0,0,1) rotated 90° about Y -> (1,0,0), +pivot (0,1,0), scaled 2, +desk (0,-1,0)
	pos := tip.WorldPosition()
	assert.InDelta(t, 2.0, pos.X(), 1e-5)
	assert.InDelta(t, 1.0, pos.Y(), 1e-5)
	assert.InDelta(t, 0.0, pos.Z(), 1e-5)

	// rotating an ancestor carries its descendants
	arm.Transform.Rotation = mgl32.Vec3{}
	pos = tip.WorldPosition()
	assert.InDelta(t, 0.0, pos.X(), 1e-5)
	assert.InDelta(t, 2.0, pos.Z(), 1e-5)
}

func TestStatsAndWalk(t *testing.T) {
	g := scene.NewGraph()
	mesh := &scene.Mesh{
		Positions: []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
		Indices:   []uint32{0, 1, 2, 1, 3, 2},
	}
	group := scene.NewNode("group")
	require.NoError(t, g.Attach(g.Root(), group))
	require.NoError(t, group.Add(scene.NewMeshNode("quad", mesh, nil)))
	require.NoError(t, group.Add(scene.NewLightNode("sun", &scene.Light{Kind: scene.LightDirectional})))

	stats := g.Stats()
	assert.Equal(t, 4, stats.NodeCount)
	assert.Equal(t, 1, stats.MeshCount)
	assert.Equal(t, 1, stats.LightCount)
	assert.Equal(t, 2, stats.TriangleCount)
	assert.Equal(t, 2, stats.MaxDepth)

	var names []string
	g.Walk(func(n *scene.Node, depth int) bool {
		names = append(names, n.Name)
		return n.Name != "group"
	})
	assert.Equal(t, []string{"scene", "group"}, names)

	tree := g.Root().TreeString()
	assert.Contains(t, tree, "  group\n")
	assert.Contains(t, tree, "    quad [mesh 2 tris]\n")
	assert.Contains(t, tree, "    sun [directional light]\n")
}

func TestChildrenIsACopy(t *testing.T) {
	parent := scene.NewNode("parent")
	require.NoError(t, parent.Add(scene.NewNode("a")))

	children := parent.Children()
	children[0] = scene.NewNode("b")

	assert.Equal(t, "a", parent.Children()[0].Name)
}
