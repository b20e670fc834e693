// Package ebiten rasterises render draw lists with the Ebitengine triangle API and reads
// orbit input from the Ebitengine mouse state.
package ebiten

import (
	"image"
	"image/color"
	"math"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/plus3/lamprig/render"
)

// maxBatchVertices keeps indices within uint16.
const maxBatchVertices = math.MaxUint16 - 2

// Renderer draws a render.DrawList onto an Ebitengine image. Consecutive triangles that
// share a source image are drawn in one DrawTriangles call; the back-to-front order of the
// list is preserved across batches.
type Renderer struct {
	Background color.Color

	white    *ebiten.Image
	textures map[image.Image]*ebiten.Image

	vertices []ebiten.Vertex
	indices  []uint16
	source   *ebiten.Image
	batches  int
}

func NewRenderer() *Renderer {
	white := ebiten.NewImage(3, 3)
	white.Fill(color.White)
	return &Renderer{
		Background: color.White,
		white:      white.SubImage(image.Rect(1, 1, 2, 2)).(*ebiten.Image),
		textures:   make(map[image.Image]*ebiten.Image),
	}
}

// Batches returns the number of DrawTriangles calls made by the last Draw.
func (r *Renderer) Batches() int {
	return r.batches
}

// Textures returns the number of uploaded textures.
func (r *Renderer) Textures() int {
	return len(r.textures)
}

func (r *Renderer) Draw(screen *ebiten.Image, list *render.DrawList) {
	screen.Fill(r.Background)
	r.batches = 0
	r.source = nil
	for i := range list.Triangles {
		tri := &list.Triangles[i]
		src := r.white
		if tri.Textured() {
			src = r.texture(tri.Material.Texture)
		}
		if src != r.source || len(r.vertices)+3 > maxBatchVertices {
			r.flush(screen)
			r.source = src
		}
		base := uint16(len(r.vertices))
		for _, v := range tri.V {
			r.vertices = append(r.vertices, r.vertex(v, src))
		}
		r.indices = append(r.indices, base, base+1, base+2)
	}
	r.flush(screen)
}

func (r *Renderer) texture(img image.Image) *ebiten.Image {
	if tex, ok := r.textures[img]; ok {
		return tex
	}
	tex := ebiten.NewImageFromImage(img)
	r.textures[img] = tex
	return tex
}

func (r *Renderer) vertex(v render.Vertex, src *ebiten.Image) ebiten.Vertex {
	out := ebiten.Vertex{
		DstX:   v.X,
		DstY:   v.Y,
		ColorR: v.R,
		ColorG: v.G,
		ColorB: v.B,
		ColorA: v.A,
	}
	b := src.Bounds()
	if src == r.white {
		out.SrcX, out.SrcY = float32(b.Min.X), float32(b.Min.Y)
	} else {
		out.SrcX = float32(b.Min.X) + v.U*float32(b.Dx())
		out.SrcY = float32(b.Min.Y) + v.V*float32(b.Dy())
	}
	return out
}

func (r *Renderer) flush(screen *ebiten.Image) {
	if len(r.indices) == 0 {
		return
	}
	opts := &ebiten.DrawTrianglesOptions{}
	if r.source != r.white {
		opts.Address = ebiten.AddressRepeat
	}
	screen.DrawTriangles(r.vertices, r.indices, r.source, opts)
	r.batches++
	r.vertices = r.vertices[:0]
	r.indices = r.indices[:0]
}
