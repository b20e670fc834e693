package main

import (
	"fmt"
	"io"
	"runtime"
	"text/template"
	"time"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/plus3/lamprig/render"
	"github.com/plus3/lamprig/rig"
	"github.com/plus3/lamprig/scene"
)

type Report struct {
	// Configuration
	Manifest string
	AssetDir string
	Timeout  time.Duration

	// Results
	TimedOut      bool
	TotalTime     time.Duration
	Frames        uint64
	FrameTime     Stats
	Parts         []rig.PartState
	Graph         scene.GraphStats
	Tree          string
	Draw          *render.DrawList
	Sweep         []SweepResult
	MemStatsStart runtime.MemStats
	MemStatsEnd   runtime.MemStats
}

type Stats struct {
	Min     time.Duration
	Max     time.Duration
	Avg     time.Duration
	Samples []time.Duration
}

func (s *Stats) Finalize() {
	if len(s.Samples) == 0 {
		return
	}

	var total time.Duration
	s.Min = s.Samples[0]
	s.Max = s.Samples[0]

	for _, sample := range s.Samples {
		if sample < s.Min {
			s.Min = sample
		}
		if sample > s.Max {
			s.Max = sample
		}
		total += sample
	}
	s.Avg = total / time.Duration(len(s.Samples))
}

// OK reports whether every part attached in time and every swept control reached its joint.
func (r *Report) OK() bool {
	if r.TimedOut {
		return false
	}
	for _, p := range r.Parts {
		if p.Status != rig.Attached {
			return false
		}
	}
	for _, s := range r.Sweep {
		if !s.Applied || !s.Restored {
			return false
		}
	}
	return true
}

func (r *Report) Generate(w io.Writer) error {
	const reportTemplate = `# Rig Check: {{.Manifest}}

## Configuration
- **Asset Directory:** {{.AssetDir}}
- **Timeout:** {{.Timeout}}

## Load Chain
{{if .TimedOut}}**Timed out before every part settled.**
{{end}}- **Total Time:** {{.TotalTime}}
- **Frames:** {{.Frames}} (avg {{.FrameTime.Avg}}, min {{.FrameTime.Min}}, max {{.FrameTime.Max}})

| Part | File | Parent | Status | Load Time | Error |
|------|------|--------|--------|-----------|-------|
{{range .Parts}}| {{.Name}} | {{.File}} | {{.Parent}} | {{.Status}} | {{ms .Duration}} | {{if .Err}}{{.Err}}{{end}} |
{{end}}
## Scene Graph
- **Nodes:** {{.Graph.NodeCount}}
- **Meshes:** {{.Graph.MeshCount}}
- **Lights:** {{.Graph.LightCount}}
- **Triangles:** {{.Graph.TriangleCount}}
- **Max Depth:** {{.Graph.MaxDepth}}
{{with .Draw}}- **Visible From Camera:** {{len .Triangles}} triangles ({{.Culled}} culled) across {{.Meshes}} meshes
{{end}}
` + "```" + `
{{.Tree}}` + "```" + `
{{if .Sweep}}
## Control Sweep
| Control | Joint | Applied | At Min | At Max | Restored |
|---------|-------|---------|--------|--------|----------|
{{range .Sweep}}| {{.Control}} | {{.Joint}} | {{.Applied}} | {{vec .AtMin}} | {{vec .AtMax}} | {{.Restored}} |
{{end}}{{end}}
## Memory Usage (Raw Bytes)
- Heap Alloc:     {{.MemStatsStart.HeapAlloc}} (start) -> {{.MemStatsEnd.HeapAlloc}} (end) -> delta: {{bsub .MemStatsEnd.HeapAlloc .MemStatsStart.HeapAlloc}}
- Total Alloc:    {{.MemStatsStart.TotalAlloc}} (start) -> {{.MemStatsEnd.TotalAlloc}} (end) -> delta: {{bsub .MemStatsEnd.TotalAlloc .MemStatsStart.TotalAlloc}}
- Num GC:         {{.MemStatsStart.NumGC}} (start) -> {{.MemStatsEnd.NumGC}} (end)
`

	fm := template.FuncMap{
		"bsub": func(a, b uint64) int64 {
			return int64(a) - int64(b)
		},
		"ms": func(d time.Duration) string {
			if d == 0 {
				return "-"
			}
			return d.Round(time.Millisecond).String()
		},
		"vec": func(v mgl32.Vec3) string {
			return fmt.Sprintf("(%.2f, %.2f, %.2f)", v[0], v[1], v[2])
		},
	}

	tmpl, err := template.New("report").Funcs(fm).Parse(reportTemplate)
	if err != nil {
		return err
	}

	return tmpl.Execute(w, r)
}
