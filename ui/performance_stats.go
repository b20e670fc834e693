package ui

import (
	"fmt"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"
	"github.com/AllenDang/cimgui-go/implot"

	"github.com/plus3/lamprig/scene"
)

// FrameHistory is a fixed-size ring of frame times in milliseconds.
type FrameHistory struct {
	samples []float32
	next    int
	filled  int
}

func NewFrameHistory(size int) *FrameHistory {
	if size <= 0 {
		size = 120
	}
	return &FrameHistory{samples: make([]float32, size)}
}

func (h *FrameHistory) Push(dt time.Duration) {
	h.samples[h.next] = float32(dt.Seconds() * 1000)
	h.next = (h.next + 1) % len(h.samples)
	if h.filled < len(h.samples) {
		h.filled++
	}
}

func (h *FrameHistory) Len() int {
	return h.filled
}

// Average returns the mean of the recorded samples, in milliseconds.
func (h *FrameHistory) Average() float32 {
	if h.filled == 0 {
		return 0
	}
	var sum float32
	for _, s := range h.Ordered() {
		sum += s
	}
	return sum / float32(h.filled)
}

// Ordered returns the recorded samples oldest first.
func (h *FrameHistory) Ordered() []float32 {
	out := make([]float32, 0, h.filled)
	if h.filled < len(h.samples) {
		return append(out, h.samples[:h.filled]...)
	}
	out = append(out, h.samples[h.next:]...)
	return append(out, h.samples[:h.next]...)
}

// DrawStats describes the last rendered frame.
type DrawStats struct {
	Triangles int
	Culled    int
	Meshes    int
	Batches   int
}

// PerformanceStats shows frame timing, graph contents and per-system timings.
type PerformanceStats struct {
	scheduler *scene.Scheduler
	history   *FrameHistory
	draw      func() DrawStats
	timer     *FrameTimer
}

// NewPerformanceStats builds the panel. draw may be nil when nothing is rendered.
func NewPerformanceStats(scheduler *scene.Scheduler, historyFrames int, draw func() DrawStats) *PerformanceStats {
	return &PerformanceStats{
		scheduler: scheduler,
		history:   NewFrameHistory(historyFrames),
		draw:      draw,
		timer:     NewFrameTimer(),
	}
}

func (ps *PerformanceStats) Render() {
	ps.history.Push(ps.timer.Delta())

	if !imgui.BeginV("Performance Stats", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	avg := ps.history.Average()
	if avg > 0 {
		imgui.Text(fmt.Sprintf("Avg Frame Time: %.2f ms (%.0f FPS)", avg, 1000/avg))
	}

	graph := ps.scheduler.Graph().Stats()
	imgui.Text(fmt.Sprintf("Nodes: %d  Meshes: %d  Lights: %d", graph.NodeCount, graph.MeshCount, graph.LightCount))
	imgui.Text(fmt.Sprintf("Triangles: %d  Depth: %d", graph.TriangleCount, graph.MaxDepth))
	if ps.draw != nil {
		d := ps.draw()
		imgui.Text(fmt.Sprintf("Drawn: %d  Culled: %d  Batches: %d", d.Triangles, d.Culled, d.Batches))
	}

	imgui.Separator()
	samples := ps.history.Ordered()
	if len(samples) > 0 && implot.BeginPlotV("Frame Time", imgui.NewVec2(-1, 150), 0) {
		implot.SetupAxesV("Frame", "ms", 0, implot.AxisFlagsAutoFit)
		implot.PlotLineFloatPtrInt("frame", &samples[0], int32(len(samples)))
		implot.EndPlot()
	}

	if imgui.TreeNodeStr("Systems") {
		stats := ps.scheduler.GetStats()
		const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg
		if imgui.BeginTableV("SystemStatsTable", 5, tableFlags, imgui.NewVec2(0, 0), 0) {
			imgui.TableSetupColumn("System")
			imgui.TableSetupColumn("Runs")
			imgui.TableSetupColumn("Last")
			imgui.TableSetupColumn("Avg")
			imgui.TableSetupColumn("Max")
			imgui.TableHeadersRow()

			for _, s := range stats.Systems {
				imgui.TableNextRow()
				imgui.TableNextColumn()
				imgui.Text(s.Name)
				imgui.TableNextColumn()
				imgui.Text(fmt.Sprintf("%d", s.ExecutionCount))
				imgui.TableNextColumn()
				imgui.Text(s.LastDuration.String())
				imgui.TableNextColumn()
				imgui.Text(s.AvgDuration.String())
				imgui.TableNextColumn()
				imgui.Text(s.MaxDuration.String())
			}

			imgui.EndTable()
		}
		imgui.TreePop()
	}

	imgui.End()
}

type FrameTimer struct {
	last time.Time
}

func NewFrameTimer() *FrameTimer {
	return &FrameTimer{last: time.Now()}
}

// Delta returns the time since the previous call.
func (ft *FrameTimer) Delta() time.Duration {
	now := time.Now()
	d := now.Sub(ft.last)
	ft.last = now
	return d
}
