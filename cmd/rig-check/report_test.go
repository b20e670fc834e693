package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plus3/lamprig/render"
	"github.com/plus3/lamprig/rig"
	"github.com/plus3/lamprig/scene"
)

func TestStatsFinalize(t *testing.T) {
	s := Stats{Samples: []time.Duration{3 * time.Millisecond, time.Millisecond, 5 * time.Millisecond}}
	s.Finalize()
	assert.Equal(t, time.Millisecond, s.Min)
	assert.Equal(t, 5*time.Millisecond, s.Max)
	assert.Equal(t, 3*time.Millisecond, s.Avg)

	var empty Stats
	empty.Finalize()
	assert.Zero(t, empty.Avg)
}

func TestReportGenerate(t *testing.T) {
	r := &Report{
		Manifest:  "desk-lamp",
		AssetDir:  "./assets",
		Timeout:   30 * time.Second,
		TotalTime: 1500 * time.Millisecond,
		Frames:    90,
		Parts: []rig.PartState{
			{Name: "base", File: "base1.glb", Parent: "desk", Status: rig.Attached, Duration: 12 * time.Millisecond},
			{Name: "table", File: "table.glb", Parent: "desk", Status: rig.Failed, Err: errors.New("open table.glb: no such file")},
		},
		Graph: scene.GraphStats{NodeCount: 12, MeshCount: 3},
		Tree:  "scene\n  deskPivot\n",
		Draw:  &render.DrawList{Culled: 4, Meshes: 3},
		Sweep: []SweepResult{{Control: "baseRotation", Joint: "base", Applied: true, AtMax: mgl32.Vec3{1, 2, 3}, Restored: true}},
	}

	var sb strings.Builder
	require.NoError(t, r.Generate(&sb))
	out := sb.String()

	assert.Contains(t, out, "# Rig Check: desk-lamp")
	assert.Contains(t, out, "| base | base1.glb | desk | attached | 12ms |  |")
	assert.Contains(t, out, "| table | table.glb | desk | failed | - | open table.glb: no such file |")
	assert.Contains(t, out, "- **Nodes:** 12")
	assert.Contains(t, out, "0 triangles (4 culled) across 3 meshes")
	assert.Contains(t, out, "scene\n  deskPivot\n")
	assert.Contains(t, out, "| baseRotation | base | true | (0.00, 0.00, 0.00) | (1.00, 2.00, 3.00) | true |")
	assert.NotContains(t, out, "Timed out")

	assert.False(t, r.OK(), "a failed part fails the check")
	r.Parts = r.Parts[:1]
	assert.True(t, r.OK())
	r.TimedOut = true
	assert.False(t, r.OK())
}
