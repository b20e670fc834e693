package asset

import (
	"fmt"
	"image/color"
	"path/filepath"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"github.com/plus3/lamprig/scene"
)

// Source produces detached scene subtrees by name. Implementations must be safe to
// call from worker goroutines: they may not touch any attached graph.
type Source interface {
	Open(name string) (*scene.Node, error)
}

// GLTFSource reads .glb and .gltf files relative to Dir.
type GLTFSource struct {
	Dir string
}

func (s *GLTFSource) Open(name string) (*scene.Node, error) {
	path := filepath.Join(s.Dir, filepath.FromSlash(name))
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}
	root, err := ImportDocument(doc, name)
	if err != nil {
		return nil, errors.Wrapf(err, "import %s", name)
	}
	return root, nil
}

// ImportDocument converts the default scene of doc into a detached node tree rooted at
// a group node called name. A document without scenes imports every top-level node.
func ImportDocument(doc *gltf.Document, name string) (*scene.Node, error) {
	imp := &importer{
		doc:       doc,
		materials: make(map[uint32]*scene.Material),
		visiting:  make(map[uint32]bool),
	}

	roots, err := imp.sceneRoots()
	if err != nil {
		return nil, err
	}

	root := scene.NewNode(name)
	for _, idx := range roots {
		n, err := imp.node(idx)
		if err != nil {
			return nil, err
		}
		if err := root.Add(n); err != nil {
			return nil, errors.Wrapf(err, "node %d", idx)
		}
	}
	return root, nil
}

type importer struct {
	doc       *gltf.Document
	materials map[uint32]*scene.Material
	visiting  map[uint32]bool
}

func (imp *importer) sceneRoots() ([]uint32, error) {
	doc := imp.doc
	if len(doc.Scenes) > 0 {
		idx := uint32(0)
		if doc.Scene != nil {
			idx = *doc.Scene
		}
		if int(idx) >= len(doc.Scenes) {
			return nil, errors.Errorf("scene %d out of range", idx)
		}
		return doc.Scenes[idx].Nodes, nil
	}

	child := make(map[uint32]bool)
	for _, n := range doc.Nodes {
		for _, c := range n.Children {
			child[c] = true
		}
	}
	var roots []uint32
	for i := range doc.Nodes {
		if !child[uint32(i)] {
			roots = append(roots, uint32(i))
		}
	}
	return roots, nil
}

func (imp *importer) node(idx uint32) (*scene.Node, error) {
	if int(idx) >= len(imp.doc.Nodes) {
		return nil, errors.Errorf("node %d out of range", idx)
	}
	if imp.visiting[idx] {
		return nil, errors.Errorf("node %d is its own ancestor", idx)
	}
	imp.visiting[idx] = true
	defer delete(imp.visiting, idx)

	gn := imp.doc.Nodes[idx]
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node%d", idx)
	}
	n := scene.NewNode(name)
	n.Transform = nodeTransform(gn)

	if gn.Mesh != nil {
		if err := imp.mesh(n, *gn.Mesh); err != nil {
			return nil, errors.Wrapf(err, "node %q", name)
		}
	}

	for _, c := range gn.Children {
		child, err := imp.node(c)
		if err != nil {
			return nil, err
		}
		if err := n.Add(child); err != nil {
			return nil, errors.Wrapf(err, "node %q", name)
		}
	}
	return n, nil
}

// mesh puts a single-primitive mesh on n itself; multi-primitive meshes become one child
// node per primitive.
func (imp *importer) mesh(n *scene.Node, idx uint32) error {
	if int(idx) >= len(imp.doc.Meshes) {
		return errors.Errorf("mesh %d out of range", idx)
	}
	gm := imp.doc.Meshes[idx]

	var prims []*scene.Node
	for i, p := range gm.Primitives {
		if p.Mode != gltf.PrimitiveTriangles {
			continue
		}
		m, err := imp.primitive(p)
		if err != nil {
			return errors.Wrapf(err, "mesh %q primitive %d", gm.Name, i)
		}
		m.Name = gm.Name
		prims = append(prims, scene.NewMeshNode(fmt.Sprintf("%s_%d", n.Name, i), m, imp.material(p.Material)))
	}

	switch len(prims) {
	case 0:
	case 1:
		n.Mesh = prims[0].Mesh
		n.Material = prims[0].Material
	default:
		for _, p := range prims {
			if err := n.Add(p); err != nil {
				return err
			}
		}
	}
	return nil
}

func (imp *importer) primitive(p *gltf.Primitive) (*scene.Mesh, error) {
	doc := imp.doc
	accessor := func(idx uint32) (*gltf.Accessor, error) {
		if int(idx) >= len(doc.Accessors) {
			return nil, errors.Errorf("accessor %d out of range", idx)
		}
		return doc.Accessors[idx], nil
	}

	posIdx, ok := p.Attributes["POSITION"]
	if !ok {
		return nil, errors.New("primitive has no POSITION attribute")
	}
	acc, err := accessor(posIdx)
	if err != nil {
		return nil, err
	}
	positions, err := modeler.ReadPosition(doc, acc, nil)
	if err != nil {
		return nil, errors.Wrap(err, "read positions")
	}

	m := &scene.Mesh{Positions: make([]mgl32.Vec3, len(positions))}
	for i, v := range positions {
		m.Positions[i] = mgl32.Vec3(v)
	}

	if idx, ok := p.Attributes["NORMAL"]; ok {
		acc, err := accessor(idx)
		if err != nil {
			return nil, err
		}
		normals, err := modeler.ReadNormal(doc, acc, nil)
		if err != nil {
			return nil, errors.Wrap(err, "read normals")
		}
		m.Normals = make([]mgl32.Vec3, len(normals))
		for i, v := range normals {
			m.Normals[i] = mgl32.Vec3(v)
		}
	}

	if idx, ok := p.Attributes["TEXCOORD_0"]; ok {
		acc, err := accessor(idx)
		if err != nil {
			return nil, err
		}
		uvs, err := modeler.ReadTextureCoord(doc, acc, nil)
		if err != nil {
			return nil, errors.Wrap(err, "read texture coordinates")
		}
		m.UVs = make([]mgl32.Vec2, len(uvs))
		for i, v := range uvs {
			m.UVs[i] = mgl32.Vec2(v)
		}
	}

	if p.Indices != nil {
		acc, err := accessor(*p.Indices)
		if err != nil {
			return nil, err
		}
		if m.Indices, err = modeler.ReadIndices(doc, acc, nil); err != nil {
			return nil, errors.Wrap(err, "read indices")
		}
		for _, i := range m.Indices {
			if int(i) >= len(m.Positions) {
				return nil, errors.Errorf("index %d out of range for %d vertices", i, len(m.Positions))
			}
		}
	}

	m.ComputeNormals()
	return m, nil
}

// DefaultMaterial mirrors the glTF defaults: opaque white, fully metallic and rough.
func DefaultMaterial() *scene.Material {
	return &scene.Material{
		Name:      "default",
		Color:     color.RGBA{R: 255, G: 255, B: 255, A: 255},
		Metalness: 1,
		Roughness: 1,
	}
}

func (imp *importer) material(idx *uint32) *scene.Material {
	if idx == nil || int(*idx) >= len(imp.doc.Materials) {
		return DefaultMaterial()
	}
	if m, ok := imp.materials[*idx]; ok {
		return m
	}

	gm := imp.doc.Materials[*idx]
	m := DefaultMaterial()
	m.Name = gm.Name
	if pbr := gm.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			m.Color = rgba(*pbr.BaseColorFactor)
		}
		if pbr.MetallicFactor != nil {
			m.Metalness = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			m.Roughness = *pbr.RoughnessFactor
		}
	}
	imp.materials[*idx] = m
	return m
}

func rgba(f [4]float32) color.RGBA {
	var c [4]uint8
	for i, v := range f {
		c[i] = uint8(mgl32.Clamp(v, 0, 1)*255 + 0.5)
	}
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: c[3]}
}

// nodeTransform reads TRS, falling back to decomposing the matrix when one is authored.
// Zero-valued rotation and scale (documents built in memory) mean identity.
func nodeTransform(gn *gltf.Node) scene.Transform {
	tr := scene.NewTransform()

	mat := mgl32.Mat4(gn.Matrix)
	if mat != (mgl32.Mat4{}) && !mat.ApproxEqual(mgl32.Ident4()) {
		return decompose(mat)
	}

	tr.Position = mgl32.Vec3(gn.Translation)
	if gn.Scale != ([3]float32{}) {
		tr.Scale = mgl32.Vec3(gn.Scale)
	}
	if r := gn.Rotation; r != ([4]float32{}) {
		q := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize()
		tr.Rotation = scene.EulerFromQuat(q)
	}
	return tr
}

func decompose(m mgl32.Mat4) scene.Transform {
	tr := scene.NewTransform()
	tr.Position = m.Col(3).Vec3()

	sx := m.Col(0).Vec3().Len()
	sy := m.Col(1).Vec3().Len()
	sz := m.Col(2).Vec3().Len()
	if m.Mat3().Det() < 0 {
		sx = -sx
	}
	tr.Scale = mgl32.Vec3{sx, sy, sz}

	var rot mgl32.Mat4
	if sx != 0 && sy != 0 && sz != 0 {
		rot = mgl32.Mat4FromCols(
			m.Col(0).Mul(1/sx),
			m.Col(1).Mul(1/sy),
			m.Col(2).Mul(1/sz),
			mgl32.Vec4{0, 0, 0, 1},
		)
		tr.Rotation = scene.EulerFromMatrix(rot)
	}
	return tr
}
