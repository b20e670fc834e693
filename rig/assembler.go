// Package rig assembles an articulated model from a manifest. Parts are loaded
// asynchronously, but a part is only requested once its parent part is attached, so
// every joint hangs off a parent that already exists.
package rig

import (
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"

	"github.com/plus3/lamprig/asset"
	"github.com/plus3/lamprig/scene"
)

// PartStatus tracks a part through the load chain.
type PartStatus int

const (
	Pending PartStatus = iota
	Loading
	Attached
	Failed
	Abandoned
)

func (s PartStatus) String() string {
	switch s {
	case Pending:
		return "pending"
	case Loading:
		return "loading"
	case Attached:
		return "attached"
	case Failed:
		return "failed"
	case Abandoned:
		return "abandoned"
	default:
		return "unknown"
	}
}

// PartState is a snapshot of one part.
type PartState struct {
	Name     string
	File     string
	Parent   string
	Status   PartStatus
	Err      error
	Duration time.Duration
	Node     *scene.Node
}

// Handle resolves once a LoadAndAttach has either attached its subtree or failed.
type Handle struct {
	asset    string
	start    time.Time
	done     bool
	node     *scene.Node
	err      error
	duration time.Duration
	then     []func(*Handle)
}

func (h *Handle) Asset() string { return h.asset }
func (h *Handle) Done() bool    { return h.done }
func (h *Handle) Err() error    { return h.err }

// Node is the loaded root, nil until the handle resolved successfully.
func (h *Handle) Node() *scene.Node { return h.node }

// Duration covers request to attach.
func (h *Handle) Duration() time.Duration { return h.duration }

// Then registers fn to run on the frame thread when the handle resolves, or
// immediately if it already has.
func (h *Handle) Then(fn func(*Handle)) {
	if h.done {
		fn(h)
		return
	}
	h.then = append(h.then, fn)
}

func (h *Handle) resolve(node *scene.Node, err error) {
	h.done = true
	h.node = node
	h.err = err
	h.duration = time.Since(h.start)
	for _, fn := range h.then {
		fn(h)
	}
	h.then = nil
}

type pendingAttach struct {
	parent *scene.Node
	child  *scene.Node
	done   func(error)
}

type part struct {
	spec   *PartSpec
	status PartStatus
	err    error
	handle *Handle
	node   *scene.Node
}

// Assembler drives the load chain. It is a scene.System: register it with the
// scheduler so completed loads are attached at the end of each frame.
type Assembler struct {
	graph    *scene.Graph
	manifest *Manifest
	loader   *asset.Loader
	textures *asset.TextureCache
	logger   *slog.Logger

	joints   *Joints
	controls *Controls

	parts   map[string]*part
	ready   []pendingAttach
	started bool
}

type Option func(*Assembler)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assembler) {
		a.logger = logger
	}
}

// WithTextures resolves textured material rules through cache. Without it textured
// rules fall back to their flat color.
func WithTextures(cache *asset.TextureCache) Option {
	return func(a *Assembler) {
		a.textures = cache
	}
}

func NewAssembler(graph *scene.Graph, manifest *Manifest, loader *asset.Loader, opts ...Option) (*Assembler, error) {
	a := &Assembler{
		graph:    graph,
		manifest: manifest,
		loader:   loader,
		logger:   slog.Default(),
		parts:    make(map[string]*part, len(manifest.Parts)),
	}
	for _, opt := range opts {
		opt(a)
	}

	if err := manifest.Validate(); err != nil {
		return nil, err
	}
	bindings, err := manifest.Bindings()
	if err != nil {
		return nil, err
	}

	a.joints = NewJoints(graph)
	a.controls = NewControls(a.joints, bindings, a.logger)
	for i := range manifest.Parts {
		spec := &manifest.Parts[i]
		a.parts[spec.Name] = &part{spec: spec}
	}
	return a, nil
}

func (a *Assembler) Joints() *Joints       { return a.joints }
func (a *Assembler) Controls() *Controls   { return a.controls }
func (a *Assembler) Manifest() *Manifest   { return a.manifest }
func (a *Assembler) Loader() *asset.Loader { return a.loader }

// Start creates the scene lights and the root-level parts. Group parts attach
// immediately; file parts are requested. Start must run on the frame thread before
// the first frame.
func (a *Assembler) Start() error {
	if a.started {
		return errors.New("assembler already started")
	}
	a.started = true

	for _, l := range a.manifest.Lights {
		light, target, err := l.Light()
		if err != nil {
			return err
		}
		a.queueLight(a.graph.Root(), light, target)
	}

	for _, spec := range a.manifest.Children("") {
		a.issue(a.parts[spec.Name], a.graph.Root())
	}

	cmds := scene.NewCommands()
	a.drain(cmds)
	cmds.Flush(a.graph)
	return nil
}

// Execute delivers finished loads and queues their attachment on the frame.
func (a *Assembler) Execute(frame *scene.UpdateFrame) {
	a.loader.Pump()
	a.drain(frame.Commands)
}

// drain moves ready attaches onto cmds. Attach callbacks may ready more nodes (group
// children, lights); the deferred drain picks those up within the same flush.
func (a *Assembler) drain(cmds *scene.Commands) {
	if len(a.ready) == 0 {
		return
	}
	ready := a.ready
	a.ready = nil
	for _, r := range ready {
		cmds.Attach(r.parent, r.child, r.done)
	}
	cmds.Defer(func() { a.drain(cmds) })
}

// LoadAndAttach requests assetName and, once decoded, wraps it in a pivot node at
// pivotOffset and attaches the pivot under parent. When materials is non-nil it
// replaces every mesh material in the subtree. The handle resolves after the attach.
func (a *Assembler) LoadAndAttach(assetName string, parent *scene.Node, pivotOffset mgl32.Vec3, materials *MaterialSpec) *Handle {
	name := strings.TrimSuffix(path.Base(assetName), path.Ext(assetName))
	return a.loadAndAttach(assetName, name+"Pivot", parent, pivotOffset, func(root *scene.Node) error {
		return a.applyMaterials(root, materials)
	})
}

func (a *Assembler) loadAndAttach(assetName, pivotName string, parent *scene.Node, pivotOffset mgl32.Vec3, prepare func(*scene.Node) error) *Handle {
	h := &Handle{asset: assetName, start: time.Now()}

	fail := func(err error) {
		a.logger.Error("asset load failed", "asset", assetName, "parent", parent.Name, "error", err)
		h.resolve(nil, err)
	}

	a.loader.Request(asset.Request{Name: assetName, Prepare: prepare}, func(res asset.Result) {
		if res.Err != nil {
			fail(res.Err)
			return
		}

		pivot := scene.NewNode(pivotName)
		pivot.Transform.Position = pivotOffset
		if err := pivot.Add(res.Node); err != nil {
			fail(errors.Wrapf(err, "wrap %s in pivot", assetName))
			return
		}

		a.ready = append(a.ready, pendingAttach{
			parent: parent,
			child:  pivot,
			done: func(err error) {
				if err != nil {
					fail(errors.Wrapf(err, "attach %s", assetName))
					return
				}
				h.resolve(res.Node, nil)
			},
		})
	})
	return h
}

func (a *Assembler) issue(p *part, parent *scene.Node) {
	spec := p.spec
	p.status = Loading

	if spec.IsGroup() {
		h := &Handle{asset: spec.Name, start: time.Now()}
		p.handle = h
		h.Then(func(h *Handle) { a.finish(p, h) })

		node := scene.NewNode(spec.Name)
		node.Transform = spec.Transform.Transform()
		pivot := scene.NewNode(spec.Name + "Pivot")
		pivot.Transform.Position = spec.Pivot.Vec()
		if err := pivot.Add(node); err != nil {
			a.logger.Error("group part failed", "part", spec.Name, "error", err)
			h.resolve(nil, err)
			return
		}

		a.ready = append(a.ready, pendingAttach{parent: parent, child: pivot, done: func(err error) {
			if err != nil {
				a.logger.Error("group part failed", "part", spec.Name, "parent", parent.Name, "error", err)
				h.resolve(nil, err)
				return
			}
			h.resolve(node, nil)
		}})
		return
	}

	a.logger.Debug("part requested", "part", spec.Name, "file", spec.File, "parent", parent.Name)
	p.handle = a.loadAndAttach(spec.File, spec.Name+"Pivot", parent, spec.Pivot.Vec(), func(root *scene.Node) error {
		root.Name = spec.Name
		root.Transform = spec.Transform.Transform()
		root.Traverse(func(n *scene.Node) bool {
			if n.IsMesh() {
				n.CastShadow = spec.CastShadow
				n.ReceiveShadow = spec.ReceiveShadow
			}
			return true
		})
		return a.applyMaterials(root, spec.Materials)
	})
	p.handle.Then(func(h *Handle) { a.finish(p, h) })
}

func (a *Assembler) finish(p *part, h *Handle) {
	spec := p.spec
	if err := h.Err(); err != nil {
		p.status = Failed
		p.err = err
		if abandoned := a.abandon(spec.Name); len(abandoned) > 0 {
			a.logger.Warn("descendants of failed part abandoned", "part", spec.Name, "abandoned", abandoned)
		}
		return
	}

	p.status = Attached
	p.node = h.Node()
	a.joints.Set(spec.Name, p.node)
	a.controls.Sync(spec.Name)

	for _, l := range spec.Lights {
		light, target, err := l.Light()
		if err != nil {
			a.logger.Error("invalid part light", "part", spec.Name, "light", l.Name, "error", err)
			continue
		}
		a.queueLight(p.node, light, target)
	}

	a.logger.Info("part attached", "part", spec.Name, "path", p.node.Path(), "duration", h.Duration())

	for _, child := range a.manifest.Children(spec.Name) {
		a.issue(a.parts[child.Name], p.node)
	}
}

func (a *Assembler) queueLight(parent, light, target *scene.Node) {
	if target != nil {
		a.ready = append(a.ready, pendingAttach{parent: parent, child: target})
	}
	a.ready = append(a.ready, pendingAttach{parent: parent, child: light, done: func(err error) {
		if err != nil {
			a.logger.Error("light attach failed", "light", light.Name, "error", err)
		}
	}})
}

// abandon marks every pending descendant of name as abandoned and returns their names.
func (a *Assembler) abandon(name string) []string {
	var out []string
	for _, child := range a.manifest.Children(name) {
		p := a.parts[child.Name]
		if p.status != Pending {
			continue
		}
		p.status = Abandoned
		p.err = fmt.Errorf("parent %q failed", name)
		out = append(out, child.Name)
		out = append(out, a.abandon(child.Name)...)
	}
	return out
}

// applyMaterials runs on a loader worker against the detached subtree.
func (a *Assembler) applyMaterials(root *scene.Node, spec *MaterialSpec) error {
	if spec == nil {
		return nil
	}

	built := make(map[string]*scene.Material)
	var firstErr error
	root.Traverse(func(n *scene.Node) bool {
		if !n.IsMesh() || firstErr != nil {
			return firstErr == nil
		}
		rule := spec.Match(n.Name)
		key := rule.Match + "\x00" + rule.Preset
		m, ok := built[key]
		if !ok {
			var err error
			if m, err = a.buildMaterial(rule); err != nil {
				firstErr = err
				return false
			}
			built[key] = m
		}
		n.Material = m
		return true
	})
	return firstErr
}

func (a *Assembler) buildMaterial(rule MaterialRule) (*scene.Material, error) {
	m, err := rule.Material()
	if err != nil {
		return nil, err
	}
	if rule.Texture == "" {
		return m, nil
	}
	if a.textures == nil {
		m.TextureName = ""
		return m, nil
	}
	img, err := a.textures.Get(rule.Texture)
	if err != nil {
		a.logger.Warn("texture unavailable, using flat color", "texture", rule.Texture, "error", err)
		m.TextureName = ""
		return m, nil
	}
	m.Texture = img
	return m, nil
}

// Status returns every part in manifest order.
func (a *Assembler) Status() []PartState {
	out := make([]PartState, 0, len(a.manifest.Parts))
	for i := range a.manifest.Parts {
		out = append(out, a.state(a.parts[a.manifest.Parts[i].Name]))
	}
	return out
}

// Part returns the state of one part.
func (a *Assembler) Part(name string) (PartState, error) {
	p, ok := a.parts[name]
	if !ok {
		return PartState{}, fmt.Errorf("%w: %q", ErrUnknownPart, name)
	}
	return a.state(p), nil
}

func (a *Assembler) state(p *part) PartState {
	s := PartState{
		Name:   p.spec.Name,
		File:   p.spec.File,
		Parent: p.spec.Parent,
		Status: p.status,
		Err:    p.err,
		Node:   p.node,
	}
	if p.handle != nil && p.handle.Done() {
		s.Duration = p.handle.Duration()
	}
	return s
}

// Done reports whether every part has settled.
func (a *Assembler) Done() bool {
	for _, p := range a.parts {
		if p.status == Pending || p.status == Loading {
			return false
		}
	}
	return true
}

// Counts tallies parts by status.
func (a *Assembler) Counts() map[PartStatus]int {
	out := make(map[PartStatus]int)
	for _, p := range a.parts {
		out[p.status]++
	}
	return out
}
