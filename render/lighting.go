package render

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/lamprig/scene"
)

// worldLight is a light resolved into world space for one frame.
type worldLight struct {
	kind      scene.LightKind
	radiance  mgl32.Vec3 // color * intensity
	position  mgl32.Vec3
	direction mgl32.Vec3 // unit, from the light towards its target
	distance  float32
	cosOuter  float32
	cosInner  float32
}

// Lights is the set of lights shading one frame.
type Lights struct {
	lights []worldLight
}

// CollectLights gathers every visible light in the graph.
func CollectLights(g *scene.Graph) *Lights {
	ls := &Lights{}
	g.Walk(func(n *scene.Node, _ int) bool {
		if !n.Visible {
			return false
		}
		if n.Light != nil {
			ls.add(n)
		}
		return true
	})
	return ls
}

func (ls *Lights) Len() int {
	return len(ls.lights)
}

func (ls *Lights) add(n *scene.Node) {
	l := n.Light
	wl := worldLight{
		kind:     l.Kind,
		radiance: rgb(l.Color).Mul(l.Intensity),
		position: n.WorldPosition(),
		distance: l.Distance,
	}
	if l.Kind != scene.LightAmbient {
		var target mgl32.Vec3
		if l.Target != nil {
			target = l.Target.WorldPosition()
		}
		dir := target.Sub(wl.position)
		if dir.Len() < 1e-6 {
			dir = mgl32.Vec3{0, -1, 0}
		}
		wl.direction = dir.Normalize()
	}
	if l.Kind == scene.LightSpot {
		wl.cosOuter = float32(math.Cos(float64(l.Angle)))
		wl.cosInner = float32(math.Cos(float64(l.Angle * (1 - l.Penumbra))))
	}
	ls.lights = append(ls.lights, wl)
}

// Irradiance returns the light arriving at a world-space point with the given unit normal,
// already divided by pi so a Lambertian surface reflects base*Irradiance.
func (ls *Lights) Irradiance(p, n mgl32.Vec3) mgl32.Vec3 {
	var sum mgl32.Vec3
	for i := range ls.lights {
		l := &ls.lights[i]
		switch l.kind {
		case scene.LightAmbient:
			sum = sum.Add(l.radiance)
		case scene.LightDirectional:
			ndl := n.Dot(l.direction.Mul(-1))
			if ndl > 0 {
				sum = sum.Add(l.radiance.Mul(ndl))
			}
		case scene.LightSpot:
			toLight := l.position.Sub(p)
			d := toLight.Len()
			if d < 1e-6 {
				continue
			}
			dir := toLight.Mul(1 / d)
			ndl := n.Dot(dir)
			if ndl <= 0 {
				continue
			}
			cone := smoothstep(l.cosOuter, l.cosInner, dir.Mul(-1).Dot(l.direction))
			if cone <= 0 {
				continue
			}
			sum = sum.Add(l.radiance.Mul(ndl * cone * falloff(d, l.distance)))
		}
	}
	return sum.Mul(1 / math.Pi)
}

// falloff is inverse-square attenuation windowed to zero at cutoff.
func falloff(d, cutoff float32) float32 {
	f := 1 / max(d*d, 0.01)
	if cutoff > 0 {
		r := d / cutoff
		w := mgl32.Clamp(1-r*r*r*r, 0, 1)
		f *= w * w
	}
	return f
}

func smoothstep(lo, hi, x float32) float32 {
	if hi <= lo {
		if x >= hi {
			return 1
		}
		return 0
	}
	t := mgl32.Clamp((x-lo)/(hi-lo), 0, 1)
	return t * t * (3 - 2*t)
}

func rgb(c color.RGBA) mgl32.Vec3 {
	return mgl32.Vec3{float32(c.R) / 255, float32(c.G) / 255, float32(c.B) / 255}
}
