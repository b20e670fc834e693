package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/AllenDang/cimgui-go/imgui"

	"github.com/plus3/lamprig/scene"
)

// NodeRow is one line of the scene tree.
type NodeRow struct {
	Id        scene.NodeId
	Name      string
	Path      string
	Kind      string
	Depth     int
	Triangles int
}

// Selection is the node picked in the scene tree. It holds a NodeRef so a detached
// node silently drops out of the selection.
type Selection struct {
	graph *scene.Graph
	ref   *scene.NodeRef
}

func NewSelection(graph *scene.Graph) *Selection {
	return &Selection{graph: graph}
}

func (s *Selection) Select(n *scene.Node) {
	s.ref = s.graph.Ref(n)
}

func (s *Selection) Clear() {
	s.ref = nil
}

func (s *Selection) Id() scene.NodeId {
	if _, ok := s.Node(); !ok {
		return 0
	}
	return s.ref.Id()
}

func (s *Selection) Node() (*scene.Node, bool) {
	return s.graph.Resolve(s.ref)
}

// SceneTree is a filterable, paged list of the graph in pre-order.
type SceneTree struct {
	graph     *scene.Graph
	selection *Selection

	rows        []NodeRow
	version     uint64
	built       bool
	filterText  string
	perPage     int
	currentPage int
}

func NewSceneTree(graph *scene.Graph, selection *Selection, perPage int) *SceneTree {
	if perPage <= 0 {
		perPage = 50
	}
	return &SceneTree{graph: graph, selection: selection, perPage: perPage}
}

func (st *SceneTree) Render() {
	if !imgui.BeginV("Scene Tree", nil, imgui.WindowFlagsNone) {
		imgui.End()
		return
	}

	filter := st.filterText
	imgui.InputTextWithHint("##filter", "Filter...", &filter, imgui.InputTextFlagsNone, nil)
	if filter != st.filterText {
		st.SetFilter(filter)
	}
	imgui.SameLine()
	if imgui.Button("Clear Filter") {
		st.SetFilter("")
	}

	page := st.Page()
	selected := st.selection.Id()

	const tableFlags = imgui.TableFlagsBorders | imgui.TableFlagsRowBg | imgui.TableFlagsScrollY
	if imgui.BeginTableV("SceneTable", 4, tableFlags, imgui.NewVec2(0, 0), 0) {
		imgui.TableSetupColumn("Node")
		imgui.TableSetupColumn("Id")
		imgui.TableSetupColumn("Kind")
		imgui.TableSetupColumn("Triangles")
		imgui.TableHeadersRow()

		for _, row := range page {
			imgui.TableNextRow()

			imgui.TableNextColumn()
			label := strings.Repeat("  ", row.Depth) + row.Name + "##" + strconv.Itoa(int(row.Id))
			if imgui.SelectableBoolV(label, row.Id == selected, imgui.SelectableFlagsSpanAllColumns, imgui.NewVec2(0, 0)) {
				if n := st.graph.Lookup(row.Id); n != nil {
					st.selection.Select(n)
				}
			}

			imgui.TableNextColumn()
			imgui.Text(fmt.Sprintf("%d", row.Id))

			imgui.TableNextColumn()
			imgui.Text(row.Kind)

			imgui.TableNextColumn()
			if row.Triangles > 0 {
				imgui.Text(fmt.Sprintf("%d", row.Triangles))
			}
		}

		imgui.EndTable()
	}

	visible := len(st.Visible())
	if pages := st.Pages(); pages > 1 {
		imgui.Text(fmt.Sprintf("Page %d / %d (%d nodes)", st.currentPage+1, pages, visible))
		imgui.SameLine()
		if imgui.Button("Prev") {
			st.PrevPage()
		}
		imgui.SameLine()
		if imgui.Button("Next") {
			st.NextPage()
		}
	} else {
		imgui.Text(fmt.Sprintf("Total: %d nodes", visible))
	}

	imgui.End()
}

// Refresh rebuilds the rows when the graph structure changed since the last build.
func (st *SceneTree) Refresh() {
	if st.built && st.version == st.graph.Version() {
		return
	}
	st.version = st.graph.Version()
	st.built = true
	st.rows = st.rows[:0]
	st.graph.Walk(func(n *scene.Node, depth int) bool {
		row := NodeRow{
			Id:    n.Id(),
			Name:  n.Name,
			Path:  n.Path(),
			Kind:  nodeKind(n),
			Depth: depth,
		}
		if n.Mesh != nil {
			row.Triangles = n.Mesh.TriangleCount()
		}
		st.rows = append(st.rows, row)
		return true
	})
}

func nodeKind(n *scene.Node) string {
	switch {
	case n.Mesh != nil:
		return "mesh"
	case n.Light != nil:
		return n.Light.Kind.String() + " light"
	default:
		return "group"
	}
}

func (st *SceneTree) SetFilter(text string) {
	st.filterText = text
	st.currentPage = 0
}

// Visible returns the rows that match the filter. The filter matches node names, paths
// and kinds case-insensitively.
func (st *SceneTree) Visible() []NodeRow {
	st.Refresh()
	if st.filterText == "" {
		return st.rows
	}

	needle := strings.ToLower(st.filterText)
	filtered := make([]NodeRow, 0, len(st.rows))
	for _, row := range st.rows {
		if strings.Contains(strings.ToLower(row.Path), needle) ||
			strings.Contains(row.Kind, needle) {
			filtered = append(filtered, row)
		}
	}
	return filtered
}

func (st *SceneTree) Pages() int {
	n := len(st.Visible())
	if n == 0 {
		return 1
	}
	return (n + st.perPage - 1) / st.perPage
}

// Page returns the visible rows of the current page.
func (st *SceneTree) Page() []NodeRow {
	rows := st.Visible()
	if st.currentPage >= st.Pages() {
		st.currentPage = st.Pages() - 1
	}
	start := st.currentPage * st.perPage
	end := min(start+st.perPage, len(rows))
	return rows[start:end]
}

func (st *SceneTree) NextPage() {
	if st.currentPage < st.Pages()-1 {
		st.currentPage++
	}
}

func (st *SceneTree) PrevPage() {
	if st.currentPage > 0 {
		st.currentPage--
	}
}
