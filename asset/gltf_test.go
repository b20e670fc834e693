package asset_test

import (
	"image/color"
	"math"
	"path/filepath"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/lamprig/asset"
)

// triangleDoc builds a two-node document: a "Base" group rotated 90° about Y with a
// textured, single-triangle "Stem" child.
func triangleDoc() *gltf.Document {
	doc := gltf.NewDocument()

	pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	uv := modeler.WriteTextureCoord(doc, [][2]float32{{0, 0}, {1, 0}, {0, 1}})
	idx := modeler.WriteIndices(doc, []uint32{0, 1, 2})

	metal := float32(0.25)
	rough := float32(0.75)
	doc.Materials = append(doc.Materials, &gltf.Material{
		Name: "Metal",
		PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
			BaseColorFactor: &[4]float32{1, 0, 0, 1},
			MetallicFactor:  &metal,
			RoughnessFactor: &rough,
		},
	})

	doc.Meshes = append(doc.Meshes, &gltf.Mesh{
		Name: "stem",
		Primitives: []*gltf.Primitive{{
			Indices:    gltf.Index(idx),
			Attributes: map[string]uint32{"POSITION": pos, "TEXCOORD_0": uv},
			Material:   gltf.Index(0),
		}},
	})

	s := float32(math.Sin(math.Pi / 4))
	doc.Nodes = append(doc.Nodes,
		&gltf.Node{
			Name:        "Base",
			Translation: [3]float32{0, 1, 0},
			Rotation:    [4]float32{0, s, 0, s},
			Scale:       [3]float32{1, 1, 1},
			Children:    []uint32{1},
		},
		&gltf.Node{
			Name:     "Stem",
			Mesh:     gltf.Index(0),
			Rotation: [4]float32{0, 0, 0, 1},
			Scale:    [3]float32{1, 1, 1},
		},
	)
	doc.Scenes[0].Nodes = []uint32{0}
	return doc
}

func writeGLB(t *testing.T, dir, name string, doc *gltf.Document) {
	t.Helper()
	require.NoError(t, gltf.SaveBinary(doc, filepath.Join(dir, name)))
}

func TestGLTFSourceOpen(t *testing.T) {
	dir := t.TempDir()
	writeGLB(t, dir, "base1.glb", triangleDoc())

	src := &asset.GLTFSource{Dir: dir}
	root, err := src.Open("base1.glb")
	require.NoError(t, err)

	assert.Equal(t, "base1.glb", root.Name)
	assert.False(t, root.Attached())
	require.Equal(t, 1, root.ChildCount())

	base := root.Children()[0]
	assert.Equal(t, "Base", base.Name)
	assert.InDelta(t, 1.0, base.Transform.Position.Y(), 1e-6)
	assert.InDelta(t, math.Pi/2, base.Transform.Rotation.Y(), 1e-5)
	assert.Nil(t, base.Mesh)

	stem := root.Find("Stem")
	require.NotNil(t, stem)
	require.True(t, stem.IsMesh())
	assert.Equal(t, 1, stem.Mesh.TriangleCount())
	assert.Len(t, stem.Mesh.UVs, 3)
	assert.Len(t, stem.Mesh.Normals, 3, "missing normals are computed")
	assert.InDelta(t, 1.0, stem.Mesh.Normals[0].Z(), 1e-6)

	require.NotNil(t, stem.Material)
	assert.Equal(t, "Metal", stem.Material.Name)
	assert.Equal(t, color.RGBA{R: 255, A: 255}, stem.Material.Color)
	assert.InDelta(t, 0.25, stem.Material.Metalness, 1e-6)
	assert.InDelta(t, 0.75, stem.Material.Roughness, 1e-6)

	// the stem tip (0,1,0) sits one unit above the base origin
	tip := base.WorldMatrix().Mul4x1(mgl32.Vec4{0, 1, 0, 1}).Vec3()
	assert.InDelta(t, 2.0, tip.Y(), 1e-5)
}

func TestGLTFSourceMissingFile(t *testing.T) {
	src := &asset.GLTFSource{Dir: t.TempDir()}

	root, err := src.Open("missing.glb")
	assert.Nil(t, root)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.glb")
}

func TestImportDocument(t *testing.T) {
	t.Run("multi primitive mesh", func(t *testing.T) {
		doc := gltf.NewDocument()
		pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name: "head",
			Primitives: []*gltf.Primitive{
				{Attributes: map[string]uint32{"POSITION": pos}},
				{Attributes: map[string]uint32{"POSITION": pos}},
			},
		})
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "Head", Mesh: gltf.Index(0)})
		doc.Scenes[0].Nodes = []uint32{0}

		root, err := asset.ImportDocument(doc, "head.glb")
		require.NoError(t, err)

		head := root.Find("Head")
		require.NotNil(t, head)
		assert.Nil(t, head.Mesh)
		require.Equal(t, 2, head.ChildCount())
		assert.Equal(t, "Head_0", head.Children()[0].Name)
		assert.Equal(t, "Head_1", head.Children()[1].Name)
		assert.Equal(t, "default", head.Children()[0].Material.Name)
		assert.Equal(t, 1, head.Children()[1].Mesh.TriangleCount())
	})

	t.Run("matrix transform", func(t *testing.T) {
		doc := gltf.NewDocument()
		m := mgl32.Translate3D(1, 2, 3).Mul4(mgl32.Scale3D(2, 2, 2))
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "Table", Matrix: [16]float32(m)})
		doc.Scenes[0].Nodes = []uint32{0}

		root, err := asset.ImportDocument(doc, "table.glb")
		require.NoError(t, err)

		table := root.Find("Table")
		require.NotNil(t, table)
		assert.True(t, table.Transform.Position.ApproxEqual(mgl32.Vec3{1, 2, 3}))
		assert.True(t, table.Transform.Scale.ApproxEqual(mgl32.Vec3{2, 2, 2}))
		assert.True(t, table.Transform.Rotation.ApproxEqual(mgl32.Vec3{}))
	})

	t.Run("matrix with quarter yaw", func(t *testing.T) {
		doc := gltf.NewDocument()
		m := mgl32.Translate3D(1, 0, 0).Mul4(mgl32.HomogRotate3DY(math.Pi / 2))
		doc.Nodes = append(doc.Nodes, &gltf.Node{Name: "Arm", Matrix: [16]float32(m)})
		doc.Scenes[0].Nodes = []uint32{0}

		root, err := asset.ImportDocument(doc, "arm.glb")
		require.NoError(t, err)

		arm := root.Find("Arm")
		require.NotNil(t, arm)
		assert.InDelta(t, math.Pi/2, arm.Transform.Rotation.Y(), 1e-6)
		assert.InDelta(t, 0, arm.Transform.Rotation.X(), 1e-6)
		assert.InDelta(t, 0, arm.Transform.Rotation.Z(), 1e-6)

		p := arm.Transform.Matrix().Mul4x1(mgl32.Vec4{10, 0, 0, 1}).Vec3()
		want := m.Mul4x1(mgl32.Vec4{10, 0, 0, 1}).Vec3()
		assert.True(t, p.ApproxEqualThreshold(want, 1e-4), "got %v want %v", p, want)
	})

	t.Run("no scenes imports top level nodes", func(t *testing.T) {
		doc := &gltf.Document{
			Nodes: []*gltf.Node{
				{Name: "a", Children: []uint32{1}},
				{Name: "b"},
				{Name: "c"},
			},
		}

		root, err := asset.ImportDocument(doc, "loose")
		require.NoError(t, err)
		require.Equal(t, 2, root.ChildCount())
		assert.Equal(t, "a", root.Children()[0].Name)
		assert.Equal(t, "c", root.Children()[1].Name)
		assert.NotNil(t, root.Find("b"))
	})

	t.Run("errors", func(t *testing.T) {
		tests := []struct {
			name string
			doc  func() *gltf.Document
			want string
		}{
			{
				name: "index past vertices",
				doc: func() *gltf.Document {
					doc := gltf.NewDocument()
					pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
					idx := modeler.WriteIndices(doc, []uint32{0, 1, 5})
					doc.Meshes = append(doc.Meshes, &gltf.Mesh{Primitives: []*gltf.Primitive{{
						Indices:    gltf.Index(idx),
						Attributes: map[string]uint32{"POSITION": pos},
					}}})
					doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(0)})
					doc.Scenes[0].Nodes = []uint32{0}
					return doc
				},
				want: "index 5 out of range",
			},
			{
				name: "missing positions",
				doc: func() *gltf.Document {
					doc := gltf.NewDocument()
					doc.Meshes = append(doc.Meshes, &gltf.Mesh{Primitives: []*gltf.Primitive{{
						Attributes: map[string]uint32{},
					}}})
					doc.Nodes = append(doc.Nodes, &gltf.Node{Mesh: gltf.Index(0)})
					doc.Scenes[0].Nodes = []uint32{0}
					return doc
				},
				want: "no POSITION",
			},
			{
				name: "child cycle",
				doc: func() *gltf.Document {
					doc := gltf.NewDocument()
					doc.Nodes = append(doc.Nodes,
						&gltf.Node{Name: "a", Children: []uint32{1}},
						&gltf.Node{Name: "b", Children: []uint32{0}},
					)
					doc.Scenes[0].Nodes = []uint32{0}
					return doc
				},
				want: "its own ancestor",
			},
			{
				name: "dangling scene node",
				doc: func() *gltf.Document {
					doc := gltf.NewDocument()
					doc.Scenes[0].Nodes = []uint32{3}
					return doc
				},
				want: "node 3 out of range",
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				root, err := asset.ImportDocument(tt.doc(), "broken.glb")
				assert.Nil(t, root)
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.want)
			})
		}
	})
}
