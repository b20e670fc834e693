package scene

import (
	"image"
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Mesh holds indexed triangle geometry in the owning node's local space.
type Mesh struct {
	Name      string
	Positions []mgl32.Vec3
	Normals   []mgl32.Vec3
	UVs       []mgl32.Vec2
	Indices   []uint32
}

// TriangleCount returns the number of triangles, treating unindexed meshes as triangle lists.
func (m *Mesh) TriangleCount() int {
	if len(m.Indices) > 0 {
		return len(m.Indices) / 3
	}
	return len(m.Positions) / 3
}

// Triangle returns the vertex indices of triangle i.
func (m *Mesh) Triangle(i int) (a, b, c uint32) {
	if len(m.Indices) > 0 {
		return m.Indices[i*3], m.Indices[i*3+1], m.Indices[i*3+2]
	}
	base := uint32(i * 3)
	return base, base + 1, base + 2
}

// Bounds returns the axis-aligned bounding box of the positions.
func (m *Mesh) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Positions) == 0 {
		return lo, hi
	}
	lo, hi = m.Positions[0], m.Positions[0]
	for _, p := range m.Positions[1:] {
		for i := 0; i < 3; i++ {
			lo[i] = float32(math.Min(float64(lo[i]), float64(p[i])))
			hi[i] = float32(math.Max(float64(hi[i]), float64(p[i])))
		}
	}
	return lo, hi
}

// ComputeNormals fills Normals with area-weighted vertex normals when they are missing.
func (m *Mesh) ComputeNormals() {
	if len(m.Normals) == len(m.Positions) {
		return
	}
	m.Normals = make([]mgl32.Vec3, len(m.Positions))
	for i := 0; i < m.TriangleCount(); i++ {
		a, b, c := m.Triangle(i)
		if int(a) >= len(m.Positions) || int(b) >= len(m.Positions) || int(c) >= len(m.Positions) {
			continue
		}
		pa, pb, pc := m.Positions[a], m.Positions[b], m.Positions[c]
		n := pb.Sub(pa).Cross(pc.Sub(pa))
		m.Normals[a] = m.Normals[a].Add(n)
		m.Normals[b] = m.Normals[b].Add(n)
		m.Normals[c] = m.Normals[c].Add(n)
	}
	for i, n := range m.Normals {
		if n.Len() > 0 {
			m.Normals[i] = n.Normalize()
		}
	}
}

// Material describes how a mesh node is shaded.
type Material struct {
	Name        string
	Color       color.RGBA
	Texture     image.Image
	TextureName string
	Metalness   float32
	Roughness   float32
}

// LightKind selects the lighting model of a Light.
type LightKind int

const (
	LightAmbient LightKind = iota
	LightDirectional
	LightSpot
)

func (k LightKind) String() string {
	switch k {
	case LightAmbient:
		return "ambient"
	case LightDirectional:
		return "directional"
	case LightSpot:
		return "spot"
	default:
		return "unknown"
	}
}

// Light is attached to a node and shines from the node's world position.
// Directional and spot lights aim at Target, or at the world origin when Target is nil.
type Light struct {
	Kind      LightKind
	Color     color.RGBA
	Intensity float32

	// Spot only. A zero Distance means no attenuation.
	Distance float32
	Angle    float32
	Penumbra float32

	Target *Node

	CastShadow    bool
	ShadowMapSize int
}
