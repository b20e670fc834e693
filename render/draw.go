package render

import (
	"image/color"
	"slices"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/lamprig/scene"
)

// Vertex is a screen-space vertex. X and Y are pixels with the origin top-left; U and V
// are normalized texture coordinates; R, G, B, A is the shaded color in [0,1].
type Vertex struct {
	X, Y       float32
	U, V       float32
	R, G, B, A float32
}

// Triangle is one shaded triangle. Material is nil for untextured fallback geometry.
type Triangle struct {
	V        [3]Vertex
	Depth    float32
	Material *scene.Material
}

// DrawList holds the triangles of one frame ordered back to front.
type DrawList struct {
	Triangles []Triangle
	Meshes    int
	Culled    int
}

// Textured reports whether the triangle samples a texture.
func (t *Triangle) Textured() bool {
	return t.Material != nil && t.Material.Texture != nil
}

// Builder projects a graph through a camera into a DrawList.
type Builder struct {
	Camera        *Camera
	Width, Height int
	CullBackFaces bool

	list DrawList
}

func NewBuilder(cam *Camera, width, height int) *Builder {
	return &Builder{Camera: cam, Width: width, Height: height, CullBackFaces: true}
}

var fallbackColor = color.RGBA{R: 200, G: 200, B: 200, A: 255}

// Build walks every visible mesh in the graph. The returned list is reused by the next
// call to Build.
func (b *Builder) Build(g *scene.Graph) *DrawList {
	b.list.Triangles = b.list.Triangles[:0]
	b.list.Meshes = 0
	b.list.Culled = 0
	if b.Width <= 0 || b.Height <= 0 {
		return &b.list
	}

	lights := CollectLights(g)
	vp := b.Camera.ViewProjection(float32(b.Width) / float32(b.Height))
	b.visit(g.Root(), mgl32.Ident4(), vp, lights)

	slices.SortStableFunc(b.list.Triangles, func(x, y Triangle) int {
		switch {
		case x.Depth > y.Depth:
			return -1
		case x.Depth < y.Depth:
			return 1
		}
		return 0
	})
	return &b.list
}

func (b *Builder) visit(n *scene.Node, parent mgl32.Mat4, vp mgl32.Mat4, lights *Lights) {
	if !n.Visible {
		return
	}
	world := parent.Mul4(n.LocalMatrix())
	if n.Mesh != nil {
		b.list.Meshes++
		b.mesh(n, world, vp, lights)
	}
	for _, child := range n.Children() {
		b.visit(child, world, vp, lights)
	}
}

type projected struct {
	ndc   mgl32.Vec3
	w     float32
	color mgl32.Vec4
	uv    mgl32.Vec2
}

func (b *Builder) mesh(n *scene.Node, world, vp mgl32.Mat4, lights *Lights) {
	m := n.Mesh
	mat := n.Material
	base := fallbackColor
	if mat != nil {
		base = mat.Color
	}
	baseRGB := rgb(base)
	alpha := float32(base.A) / 255
	normalMat := world.Mat3().Inv().Transpose()
	mvp := vp.Mul4(world)

	verts := make([]projected, len(m.Positions))
	for i, p := range m.Positions {
		clip := mvp.Mul4x1(p.Vec4(1))
		v := projected{w: clip.W()}
		if v.w > 0 {
			v.ndc = clip.Vec3().Mul(1 / v.w)
		}
		var normal mgl32.Vec3
		if i < len(m.Normals) {
			normal = normalMat.Mul3x1(m.Normals[i])
			if normal.Len() > 0 {
				normal = normal.Normalize()
			}
		}
		light := lights.Irradiance(world.Mul4x1(p.Vec4(1)).Vec3(), normal)
		c := mgl32.Vec3{baseRGB[0] * light[0], baseRGB[1] * light[1], baseRGB[2] * light[2]}
		v.color = mgl32.Vec4{clamp01(c[0]), clamp01(c[1]), clamp01(c[2]), alpha}
		if i < len(m.UVs) {
			v.uv = m.UVs[i]
		}
		verts[i] = v
	}

	near := b.Camera.Near
	for t := 0; t < m.TriangleCount(); t++ {
		ia, ib, ic := m.Triangle(t)
		if int(ia) >= len(verts) || int(ib) >= len(verts) || int(ic) >= len(verts) {
			b.list.Culled++
			continue
		}
		pa, pb, pc := verts[ia], verts[ib], verts[ic]
		if pa.w <= near || pb.w <= near || pc.w <= near || outside(pa, pb, pc) {
			b.list.Culled++
			continue
		}
		if b.CullBackFaces {
			area := (pb.ndc.X()-pa.ndc.X())*(pc.ndc.Y()-pa.ndc.Y()) -
				(pc.ndc.X()-pa.ndc.X())*(pb.ndc.Y()-pa.ndc.Y())
			if area <= 0 {
				b.list.Culled++
				continue
			}
		}
		b.list.Triangles = append(b.list.Triangles, Triangle{
			V:        [3]Vertex{b.vertex(pa), b.vertex(pb), b.vertex(pc)},
			Depth:    (pa.w + pb.w + pc.w) / 3,
			Material: mat,
		})
	}
}

// outside reports whether all three vertices lie beyond the same clip plane.
func outside(a, b, c projected) bool {
	for axis := 0; axis < 3; axis++ {
		if a.ndc[axis] > 1 && b.ndc[axis] > 1 && c.ndc[axis] > 1 {
			return true
		}
		if a.ndc[axis] < -1 && b.ndc[axis] < -1 && c.ndc[axis] < -1 {
			return true
		}
	}
	return false
}

func (b *Builder) vertex(p projected) Vertex {
	return Vertex{
		X: (p.ndc.X() + 1) / 2 * float32(b.Width),
		Y: (1 - p.ndc.Y()) / 2 * float32(b.Height),
		U: p.uv.X(),
		V: p.uv.Y(),
		R: p.color[0],
		G: p.color[1],
		B: p.color[2],
		A: p.color[3],
	}
}

func clamp01(v float32) float32 {
	return mgl32.Clamp(v, 0, 1)
}
