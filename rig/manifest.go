package rig

import (
	_ "embed"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/plus3/lamprig/render"
	"github.com/plus3/lamprig/scene"
)

//go:embed default.yaml
var defaultManifest []byte

// Vec3 is a manifest triple. It decodes from a three element list.
type Vec3 [3]float32

func (v Vec3) Vec() mgl32.Vec3 {
	return mgl32.Vec3(v)
}

// Manifest describes the parts of a rig, how they hang together and which controls
// drive them.
type Manifest struct {
	Name     string                  `yaml:"name" toml:"name"`
	Camera   CameraSpec              `yaml:"camera" toml:"camera"`
	Lights   []LightSpec             `yaml:"lights" toml:"lights"`
	Presets  map[string]MaterialRule `yaml:"presets" toml:"presets"`
	Parts    []PartSpec              `yaml:"parts" toml:"parts"`
	Controls []ControlSpec           `yaml:"controls" toml:"controls"`
}

type CameraSpec struct {
	Fov      float32 `yaml:"fov" toml:"fov"`
	Near     float32 `yaml:"near" toml:"near"`
	Far      float32 `yaml:"far" toml:"far"`
	Position Vec3    `yaml:"position" toml:"position"`
	Target   Vec3    `yaml:"target" toml:"target"`
}

// Camera builds the viewing camera. A spec without a field of view yields the default.
func (c CameraSpec) Camera() *render.Camera {
	if c.Fov <= 0 {
		return render.DefaultCamera()
	}
	near, far := c.Near, c.Far
	if near <= 0 {
		near = 0.1
	}
	if far <= near {
		far = 1000
	}
	return render.NewCamera(c.Fov, near, far, c.Position.Vec(), c.Target.Vec())
}

// PartSpec is one node of the rig. A part without a file is a plain group node.
// Parent names another part; empty means the scene root.
type PartSpec struct {
	Name          string        `yaml:"name" toml:"name"`
	File          string        `yaml:"file" toml:"file"`
	Parent        string        `yaml:"parent" toml:"parent"`
	Pivot         Vec3          `yaml:"pivot" toml:"pivot"`
	Transform     TransformSpec `yaml:"transform" toml:"transform"`
	Materials     *MaterialSpec `yaml:"materials" toml:"materials"`
	CastShadow    bool          `yaml:"castShadow" toml:"castShadow"`
	ReceiveShadow bool          `yaml:"receiveShadow" toml:"receiveShadow"`
	Lights        []LightSpec   `yaml:"lights" toml:"lights"`
}

func (p *PartSpec) IsGroup() bool {
	return p.File == ""
}

// TransformSpec is applied to the loaded root. Rotation is in degrees; an all-zero
// scale means unit scale.
type TransformSpec struct {
	Position Vec3 `yaml:"position" toml:"position"`
	Rotation Vec3 `yaml:"rotation" toml:"rotation"`
	Scale    Vec3 `yaml:"scale" toml:"scale"`
}

func (t TransformSpec) Transform() scene.Transform {
	tr := scene.NewTransform()
	tr.Position = t.Position.Vec()
	tr.SetRotationDegrees(t.Rotation[0], t.Rotation[1], t.Rotation[2])
	if t.Scale != (Vec3{}) {
		tr.Scale = t.Scale.Vec()
	}
	return tr
}

// MaterialSpec overrides authored materials. Each mesh node gets the first rule whose
// Match occurs in its name, otherwise Default.
type MaterialSpec struct {
	Rules   []MaterialRule `yaml:"rules" toml:"rules"`
	Default MaterialRule   `yaml:"default" toml:"default"`
}

// Match returns the rule for a mesh node name.
func (s *MaterialSpec) Match(name string) MaterialRule {
	for _, r := range s.Rules {
		if r.Match != "" && strings.Contains(name, r.Match) {
			return r
		}
	}
	return s.Default
}

func (s *MaterialSpec) all() []MaterialRule {
	return append(slices.Clone(s.Rules), s.Default)
}

type MaterialRule struct {
	Match     string  `yaml:"match" toml:"match"`
	Preset    string  `yaml:"preset" toml:"preset"`
	Color     string  `yaml:"color" toml:"color"`
	Texture   string  `yaml:"texture" toml:"texture"`
	Metalness float32 `yaml:"metalness" toml:"metalness"`
	Roughness float32 `yaml:"roughness" toml:"roughness"`
}

// Material builds the scene material for the rule, without resolving its texture.
// A rule without a color is white when textured and black otherwise.
func (r MaterialRule) Material() (*scene.Material, error) {
	m := &scene.Material{
		Name:        r.Match,
		Color:       color.RGBA{A: 255},
		TextureName: r.Texture,
		Metalness:   r.Metalness,
		Roughness:   r.Roughness,
	}
	if m.Name == "" {
		m.Name = r.Preset
	}
	switch {
	case r.Color != "":
		c, err := ParseColor(r.Color)
		if err != nil {
			return nil, err
		}
		m.Color = c
	case r.Texture != "":
		m.Color = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	}
	return m, nil
}

type LightSpec struct {
	Name          string  `yaml:"name" toml:"name"`
	Kind          string  `yaml:"kind" toml:"kind"`
	Color         string  `yaml:"color" toml:"color"`
	Intensity     float32 `yaml:"intensity" toml:"intensity"`
	Position      Vec3    `yaml:"position" toml:"position"`
	Target        *Vec3   `yaml:"target" toml:"target"`
	Distance      float32 `yaml:"distance" toml:"distance"`
	Angle         float32 `yaml:"angle" toml:"angle"`
	Penumbra      float32 `yaml:"penumbra" toml:"penumbra"`
	CastShadow    bool    `yaml:"castShadow" toml:"castShadow"`
	ShadowMapSize int     `yaml:"shadowMapSize" toml:"shadowMapSize"`
}

func parseLightKind(s string) (scene.LightKind, error) {
	switch s {
	case "ambient":
		return scene.LightAmbient, nil
	case "directional":
		return scene.LightDirectional, nil
	case "spot":
		return scene.LightSpot, nil
	}
	return 0, fmt.Errorf("unknown light kind %q", s)
}

// Light builds the light node and, for lights with a target, the target node. Both are
// detached; the caller attaches them under the same parent.
func (l LightSpec) Light() (light *scene.Node, target *scene.Node, err error) {
	kind, err := parseLightKind(l.Kind)
	if err != nil {
		return nil, nil, err
	}
	c := color.RGBA{R: 255, G: 255, B: 255, A: 255}
	if l.Color != "" {
		if c, err = ParseColor(l.Color); err != nil {
			return nil, nil, err
		}
	}

	light = scene.NewLightNode(l.Name, &scene.Light{
		Kind:          kind,
		Color:         c,
		Intensity:     l.Intensity,
		Distance:      l.Distance,
		Angle:         mgl32.DegToRad(l.Angle),
		Penumbra:      l.Penumbra,
		CastShadow:    l.CastShadow,
		ShadowMapSize: l.ShadowMapSize,
	})
	light.Transform.Position = l.Position.Vec()

	if l.Target != nil {
		target = scene.NewNode(l.Name + "Target")
		target.Transform.Position = l.Target.Vec()
		light.Light.Target = target
	}
	return light, target, nil
}

type ControlSpec struct {
	Id      string  `yaml:"id" toml:"id"`
	Label   string  `yaml:"label" toml:"label"`
	Joint   string  `yaml:"joint" toml:"joint"`
	Channel string  `yaml:"channel" toml:"channel"`
	Unit    string  `yaml:"unit" toml:"unit"`
	Min     float32 `yaml:"min" toml:"min"`
	Max     float32 `yaml:"max" toml:"max"`
	Initial float32 `yaml:"initial" toml:"initial"`
}

// ParseColor accepts "#rrggbb", "0xrrggbb" and "#rrggbbaa".
func ParseColor(s string) (color.RGBA, error) {
	hex := strings.TrimPrefix(strings.TrimPrefix(s, "#"), "0x")
	if len(hex) != 6 && len(hex) != 8 {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid color %q", s)
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

// DefaultManifest returns a fresh copy of the embedded desk lamp rig.
func DefaultManifest() *Manifest {
	m, err := ParseManifest(defaultManifest, "yaml")
	if err != nil {
		panic(err)
	}
	return m
}

// LoadManifest reads a manifest, picking the decoder from the file extension.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read manifest %s", path)
	}
	m, err := ParseManifest(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return m, nil
}

// ParseManifest decodes a yaml or toml manifest, resolves material presets and
// validates it.
func ParseManifest(data []byte, format string) (*Manifest, error) {
	m := &Manifest{}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, m); err != nil {
			return nil, errors.Wrap(err, "decode yaml")
		}
	case "toml":
		if err := toml.Unmarshal(data, m); err != nil {
			return nil, errors.Wrap(err, "decode toml")
		}
	default:
		return nil, fmt.Errorf("%w: unsupported format %q", ErrInvalidManifest, format)
	}

	if err := m.resolvePresets(); err != nil {
		return nil, err
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manifest) resolvePresets() error {
	resolve := func(r *MaterialRule) error {
		if r.Preset == "" {
			return nil
		}
		p, ok := m.Presets[r.Preset]
		if !ok {
			return fmt.Errorf("%w: unknown material preset %q", ErrInvalidManifest, r.Preset)
		}
		if r.Color == "" {
			r.Color = p.Color
		}
		if r.Texture == "" {
			r.Texture = p.Texture
		}
		if r.Metalness == 0 {
			r.Metalness = p.Metalness
		}
		if r.Roughness == 0 {
			r.Roughness = p.Roughness
		}
		return nil
	}

	for i := range m.Parts {
		spec := m.Parts[i].Materials
		if spec == nil {
			continue
		}
		for j := range spec.Rules {
			if err := resolve(&spec.Rules[j]); err != nil {
				return err
			}
		}
		if err := resolve(&spec.Default); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks part names, the parent hierarchy, lights, materials and controls.
func (m *Manifest) Validate() error {
	invalid := func(format string, args ...any) error {
		return fmt.Errorf("%w: %s", ErrInvalidManifest, fmt.Sprintf(format, args...))
	}

	parts := make(map[string]*PartSpec, len(m.Parts))
	for i := range m.Parts {
		p := &m.Parts[i]
		if p.Name == "" {
			return invalid("part %d has no name", i)
		}
		if _, dup := parts[p.Name]; dup {
			return invalid("duplicate part %q", p.Name)
		}
		parts[p.Name] = p
	}

	for _, p := range m.Parts {
		seen := map[string]bool{p.Name: true}
		for parent := p.Parent; parent != ""; parent = parts[parent].Parent {
			if _, ok := parts[parent]; !ok {
				return invalid("part %q has unknown parent %q", p.Name, parent)
			}
			if seen[parent] {
				return invalid("part %q is its own ancestor", p.Name)
			}
			seen[parent] = true
		}

		if p.Materials != nil {
			for _, r := range p.Materials.all() {
				if _, err := r.Material(); err != nil {
					return invalid("part %q: %v", p.Name, err)
				}
			}
		}
		for _, l := range p.Lights {
			if _, _, err := l.Light(); err != nil {
				return invalid("part %q light %q: %v", p.Name, l.Name, err)
			}
		}
	}

	for _, l := range m.Lights {
		if _, _, err := l.Light(); err != nil {
			return invalid("light %q: %v", l.Name, err)
		}
	}

	ids := make(map[string]bool, len(m.Controls))
	for _, c := range m.Controls {
		if c.Id == "" {
			return invalid("control without id")
		}
		if ids[c.Id] {
			return invalid("duplicate control %q", c.Id)
		}
		ids[c.Id] = true
		if _, ok := parts[c.Joint]; !ok {
			return invalid("control %q targets unknown part %q", c.Id, c.Joint)
		}
		if _, err := c.Binding(); err != nil {
			return invalid("control %q: %v", c.Id, err)
		}
	}
	return nil
}

// Part returns the named part spec.
func (m *Manifest) Part(name string) (*PartSpec, error) {
	for i := range m.Parts {
		if m.Parts[i].Name == name {
			return &m.Parts[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownPart, name)
}

// Children returns the parts whose parent is name, in manifest order. An empty name
// selects the parts hanging off the scene root.
func (m *Manifest) Children(name string) []*PartSpec {
	var out []*PartSpec
	for i := range m.Parts {
		if m.Parts[i].Parent == name {
			out = append(out, &m.Parts[i])
		}
	}
	return out
}

// Bindings converts the control specs.
func (m *Manifest) Bindings() ([]Binding, error) {
	out := make([]Binding, 0, len(m.Controls))
	for _, c := range m.Controls {
		b, err := c.Binding()
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// Files lists the distinct asset files the manifest loads, including textures.
func (m *Manifest) Files() []string {
	seen := map[string]bool{}
	var out []string
	add := func(f string) {
		if f != "" && !seen[f] {
			seen[f] = true
			out = append(out, f)
		}
	}
	for _, p := range m.Parts {
		add(p.File)
		if p.Materials != nil {
			for _, r := range p.Materials.Rules {
				add(r.Texture)
			}
			add(p.Materials.Default.Texture)
		}
	}
	return out
}

// Textures lists the distinct texture files referenced by material rules.
func (m *Manifest) Textures() []string {
	seen := map[string]bool{}
	var out []string
	for _, p := range m.Parts {
		if p.Materials == nil {
			continue
		}
		for _, r := range p.Materials.all() {
			if r.Texture != "" && !seen[r.Texture] {
				seen[r.Texture] = true
				out = append(out, r.Texture)
			}
		}
	}
	return out
}
