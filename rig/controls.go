package rig

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/lamprig/scene"
)

var (
	ErrUnknownControl  = errors.New("unknown control")
	ErrUnknownPart     = errors.New("unknown part")
	ErrInvalidManifest = errors.New("invalid manifest")
)

// Channel is the transform component a control writes.
type Channel int

const (
	RotationX Channel = iota
	RotationY
	RotationZ
	PositionX
	PositionY
	PositionZ
)

var channelNames = [...]string{"rotation.x", "rotation.y", "rotation.z", "position.x", "position.y", "position.z"}

func (c Channel) String() string {
	if c < 0 || int(c) >= len(channelNames) {
		return "unknown"
	}
	return channelNames[c]
}

func ParseChannel(s string) (Channel, error) {
	for i, name := range channelNames {
		if s == name {
			return Channel(i), nil
		}
	}
	return 0, fmt.Errorf("unknown channel %q", s)
}

func (c Channel) field(t *scene.Transform) *float32 {
	switch c {
	case RotationX, RotationY, RotationZ:
		return &t.Rotation[c-RotationX]
	default:
		return &t.Position[c-PositionX]
	}
}

type Unit int

const (
	Units Unit = iota
	Degrees
)

func (u Unit) String() string {
	if u == Degrees {
		return "deg"
	}
	return "units"
}

func ParseUnit(s string) (Unit, error) {
	switch s {
	case "", "units":
		return Units, nil
	case "deg", "degrees":
		return Degrees, nil
	}
	return 0, fmt.Errorf("unknown unit %q", s)
}

// Binding maps one scalar control onto one transform component of a joint.
type Binding struct {
	Id      string
	Label   string
	Joint   string
	Channel Channel
	Unit    Unit
	Min     float32
	Max     float32
	Initial float32
}

// Binding converts a control spec. A missing label falls back to the id.
func (c ControlSpec) Binding() (Binding, error) {
	ch, err := ParseChannel(c.Channel)
	if err != nil {
		return Binding{}, err
	}
	unit, err := ParseUnit(c.Unit)
	if err != nil {
		return Binding{}, err
	}
	if c.Min > c.Max {
		return Binding{}, fmt.Errorf("min %g above max %g", c.Min, c.Max)
	}
	label := c.Label
	if label == "" {
		label = c.Id
	}
	return Binding{
		Id:      c.Id,
		Label:   label,
		Joint:   c.Joint,
		Channel: ch,
		Unit:    unit,
		Min:     c.Min,
		Max:     c.Max,
		Initial: c.Initial,
	}, nil
}

// Field converts a control value into the transform field value.
func (b Binding) Field(value float32) float32 {
	if b.Unit == Degrees {
		return mgl32.DegToRad(value)
	}
	return value
}

// Controls holds the current value of every binding and writes it straight into the
// bound joint. It must only be used from the frame thread.
type Controls struct {
	joints   *Joints
	bindings []Binding
	index    map[string]int
	values   []float32
	logger   *slog.Logger
}

func NewControls(joints *Joints, bindings []Binding, logger *slog.Logger) *Controls {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Controls{
		joints:   joints,
		bindings: bindings,
		index:    make(map[string]int, len(bindings)),
		values:   make([]float32, len(bindings)),
		logger:   logger,
	}
	for i, b := range bindings {
		c.index[b.Id] = i
		c.values[i] = b.Initial
	}
	return c
}

// Bindings returns the bindings in declaration order.
func (c *Controls) Bindings() []Binding {
	return c.bindings
}

func (c *Controls) Value(id string) (float32, bool) {
	i, ok := c.index[id]
	if !ok {
		return 0, false
	}
	return c.values[i], true
}

// Set overwrites the control value and, when the joint is present in the graph,
// writes the converted value into the bound field. It reports whether the graph was
// touched; an absent joint is not an error.
func (c *Controls) Set(id string, value float32) (bool, error) {
	i, ok := c.index[id]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownControl, id)
	}
	c.values[i] = value

	b := c.bindings[i]
	node, ok := c.joints.Get(b.Joint)
	if !ok {
		c.logger.Debug("control set before joint attached", "control", id, "joint", b.Joint)
		return false, nil
	}
	*b.Channel.field(&node.Transform) = b.Field(value)
	return true, nil
}

// Reset restores every control to its initial value.
func (c *Controls) Reset() {
	for _, b := range c.bindings {
		_, _ = c.Set(b.Id, b.Initial)
	}
}

// Sync writes the stored values of every binding that targets joint. It is called once
// the joint attaches so the graph matches the controls. It returns the number of
// fields written.
func (c *Controls) Sync(joint string) int {
	node, ok := c.joints.Get(joint)
	if !ok {
		return 0
	}
	n := 0
	for i, b := range c.bindings {
		if b.Joint != joint {
			continue
		}
		*b.Channel.field(&node.Transform) = b.Field(c.values[i])
		n++
	}
	return n
}
