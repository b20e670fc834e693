package scene

// UpdateFrame is handed to every system during one scheduler tick.
type UpdateFrame struct {
	DeltaTime float64
	Index     uint64
	Commands  *Commands
	Graph     *Graph
}

func newUpdateFrame(dt float64, index uint64, graph *Graph) *UpdateFrame {
	return &UpdateFrame{
		DeltaTime: dt,
		Index:     index,
		Commands:  newCommands(),
		Graph:     graph,
	}
}
