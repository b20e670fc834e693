package ui

import (
	"fmt"
	"sort"
	"time"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/lamprig/rig"
)

// Load table columns.
const (
	ColumnPart = iota
	ColumnFile
	ColumnParent
	ColumnStatus
	ColumnTime
)

// LoadsPanel shows where every part is in the load chain.
type LoadsPanel struct {
	assembler     *rig.Assembler
	sortColumn    int
	sortAscending bool
}

func NewLoadsPanel(assembler *rig.Assembler) *LoadsPanel {
	return &LoadsPanel{assembler: assembler, sortColumn: ColumnPart, sortAscending: true}
}

var statusColors = map[rig.PartStatus]imgui.Vec4{
	rig.Pending:   imgui.NewVec4(0.6, 0.6, 0.6, 1),
	rig.Loading:   imgui.NewVec4(0.9, 0.8, 0.2, 1),
	rig.Attached:  imgui.NewVec4(0.3, 0.8, 0.3, 1),
	rig.Failed:    imgui.NewVec4(0.9, 0.3, 0.3, 1),
	rig.Abandoned: imgui.NewVec4(0.7, 0.4, 0.2, 1),
}

func (lp *LoadsPanel) Render() {
	if !imgui.BeginV("Asset Loads", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	counts := lp.assembler.Counts()
	imgui.Text(fmt.Sprintf("Attached %d  Loading %d  Pending %d  Failed %d  Abandoned %d",
		counts[rig.Attached], counts[rig.Loading], counts[rig.Pending], counts[rig.Failed], counts[rig.Abandoned]))
	imgui.Text(fmt.Sprintf("In flight: %d", lp.assembler.Loader().Pending()))

	states := lp.assembler.Status()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsSortable | imgui.TableFlagsScrollY
	if imgui.BeginTableV("LoadTable", 6, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Part")
		imgui.TableSetupColumn("File")
		imgui.TableSetupColumn("Parent")
		imgui.TableSetupColumn("Status")
		imgui.TableSetupColumn("Time")
		imgui.TableSetupColumn("Error")
		imgui.TableHeadersRow()

		sortSpecs := imgui.TableGetSortSpecs()
		if sortSpecs.SpecsDirty() && sortSpecs.SpecsCount() > 0 {
			spec := sortSpecs.Specs()
			lp.sortColumn = int(spec.ColumnIndex())
			lp.sortAscending = spec.SortDirection() == imgui.SortDirectionAscending
			sortSpecs.SetSpecsDirty(false)
		}
		SortPartStates(states, lp.sortColumn, lp.sortAscending)

		for _, s := range states {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			imgui.Text(s.Name)
			imgui.TableNextColumn()
			imgui.Text(s.File)
			imgui.TableNextColumn()
			imgui.Text(s.Parent)
			imgui.TableNextColumn()
			imgui.PushStyleColorVec4(imgui.ColText, statusColors[s.Status])
			imgui.Text(s.Status.String())
			imgui.PopStyleColor()
			imgui.TableNextColumn()
			if s.Duration > 0 {
				imgui.Text(s.Duration.Round(time.Millisecond).String())
			}
			imgui.TableNextColumn()
			if s.Err != nil {
				imgui.Text(s.Err.Error())
			}
		}

		imgui.EndTable()
	}

	imgui.End()
}

// SortPartStates orders states in place by one of the load table columns. Ties keep
// manifest order.
func SortPartStates(states []rig.PartState, column int, ascending bool) {
	sort.SliceStable(states, func(i, j int) bool {
		a, b := states[i], states[j]
		if !ascending {
			a, b = b, a
		}

		switch column {
		case ColumnFile:
			return a.File < b.File
		case ColumnParent:
			return a.Parent < b.Parent
		case ColumnStatus:
			return a.Status < b.Status
		case ColumnTime:
			return a.Duration < b.Duration
		default:
			return a.Name < b.Name
		}
	})
}
