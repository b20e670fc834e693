package scene

// Commands buffers structural graph changes so that systems never mutate the
// hierarchy while another system is walking it. The buffer is flushed at the end
// of the frame.
type Commands struct {
	attaches []attachCommand
	detaches []*Node
	defers   []deferCommand
}

func newCommands() *Commands {
	return &Commands{}
}

// NewCommands returns an empty command buffer for use outside a Scheduler.
func NewCommands() *Commands {
	return newCommands()
}

type attachCommand struct {
	parent *Node
	child  *Node
	done   func(error)
}

type deferCommand struct {
	fn func()
}

// Attach queues attaching child under parent. done, if non-nil, is called right
// after the attach with its result.
func (c *Commands) Attach(parent, child *Node, done func(error)) {
	c.attaches = append(c.attaches, attachCommand{
		parent: parent,
		child:  child,
		done:   done,
	})
}

// Detach queues removing node and its subtree.
func (c *Commands) Detach(node *Node) {
	c.detaches = append(c.detaches, node)
}

// Defer queues a function execution operation.
func (c *Commands) Defer(fn func()) {
	c.defers = append(c.defers, deferCommand{fn: fn})
}

// Len returns the number of queued commands.
func (c *Commands) Len() int {
	return len(c.attaches) + len(c.detaches) + len(c.defers)
}

// Flush applies detaches, then attaches in queue order, then deferred functions.
// Commands queued by callbacks during the flush are applied in the same call.
func (c *Commands) Flush(graph *Graph) {
	for c.Len() > 0 {
		detaches := c.detaches
		attaches := c.attaches
		defers := c.defers
		c.detaches = nil
		c.attaches = nil
		c.defers = nil

		for _, node := range detaches {
			graph.Detach(node)
		}

		for _, cmd := range attaches {
			err := graph.Attach(cmd.parent, cmd.child)
			if cmd.done != nil {
				cmd.done(err)
			}
		}

		for _, df := range defers {
			df.fn()
		}
	}
}
