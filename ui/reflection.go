package ui

import (
	"fmt"
	"image"
	"image/color"
	"reflect"
	"sync"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/lamprig/scene"
)

// FieldInfo describes one exported struct field.
type FieldInfo struct {
	Name  string
	Index int
}

// FieldValue is a field rendered as text.
type FieldValue struct {
	Name  string
	Value string
}

type reflectionCache struct {
	mu     sync.RWMutex
	fields map[reflect.Type][]FieldInfo
}

var fieldCache = &reflectionCache{fields: make(map[reflect.Type][]FieldInfo)}

func (rc *reflectionCache) get(t reflect.Type) []FieldInfo {
	rc.mu.RLock()
	cached, ok := rc.fields[t]
	rc.mu.RUnlock()
	if ok {
		return cached
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if cached, ok := rc.fields[t]; ok {
		return cached
	}

	var fields []FieldInfo
	if t.Kind() == reflect.Struct {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			fields = append(fields, FieldInfo{Name: f.Name, Index: i})
		}
	}
	rc.fields[t] = fields
	return fields
}

var (
	rgbaType  = reflect.TypeOf(color.RGBA{})
	vec3Type  = reflect.TypeOf(mgl32.Vec3{})
	imageType = reflect.TypeOf((*image.Image)(nil)).Elem()
	nodeType  = reflect.TypeOf(&scene.Node{})
)

// Describe renders the exported fields of a struct, or pointer to struct, as text.
// Nested structs are not expanded; nodes show their path and images their size.
func Describe(v any) []FieldValue {
	val := reflect.ValueOf(v)
	if val.Kind() == reflect.Pointer {
		if val.IsNil() {
			return nil
		}
		val = val.Elem()
	}
	if val.Kind() != reflect.Struct {
		return nil
	}

	fields := fieldCache.get(val.Type())
	out := make([]FieldValue, 0, len(fields))
	for _, f := range fields {
		out = append(out, FieldValue{Name: f.Name, Value: formatValue(val.Field(f.Index))})
	}
	return out
}

func formatValue(v reflect.Value) string {
	switch {
	case v.Type() == rgbaType:
		c := v.Interface().(color.RGBA)
		return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
	case v.Type() == vec3Type:
		p := v.Interface().(mgl32.Vec3)
		return fmt.Sprintf("(%.3f, %.3f, %.3f)", p[0], p[1], p[2])
	case v.Type() == nodeType:
		if v.IsNil() {
			return "nil"
		}
		return v.Interface().(*scene.Node).Path()
	case v.Type() == imageType:
		if v.IsNil() {
			return "none"
		}
		b := v.Interface().(image.Image).Bounds()
		return fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
	}

	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return "nil"
		}
		return formatValue(v.Elem())
	case reflect.Float32, reflect.Float64:
		return fmt.Sprintf("%.3g", v.Float())
	case reflect.Slice, reflect.Map:
		return fmt.Sprintf("[%d items]", v.Len())
	case reflect.Struct:
		return v.Type().Name()
	}
	if s, ok := v.Interface().(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%v", v.Interface())
}
