package asset

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/plus3/lamprig/scene"
)

// Result is the outcome of one load request. Node is a detached subtree owned by the
// callback; it is nil when Err is set.
type Result struct {
	Name     string
	Node     *scene.Node
	Err      error
	Duration time.Duration
}

// Request names an asset to decode. Prepare, when set, runs on the worker after a
// successful decode and may modify the detached subtree before it is delivered.
type Request struct {
	Name    string
	Prepare func(node *scene.Node) error
}

type completion struct {
	result Result
	cb     func(Result)
}

// Loader decodes assets on worker goroutines and hands the results back to the frame
// thread. Callbacks never run on a worker: they run inside Pump, in completion order.
type Loader struct {
	source Source
	logger *slog.Logger

	mu      sync.Mutex
	queue   []completion
	pending int

	workers sync.WaitGroup
}

type LoaderOption func(*Loader)

func WithLogger(logger *slog.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

func NewLoader(source Source, opts ...LoaderOption) *Loader {
	l := &Loader{
		source: source,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Request starts decoding req.Name in the background. cb is invoked from a later Pump
// with the result. There is no cancellation: every request is eventually delivered.
func (l *Loader) Request(req Request, cb func(Result)) {
	l.mu.Lock()
	l.pending++
	l.mu.Unlock()

	l.logger.Debug("asset requested", "asset", req.Name)

	l.workers.Add(1)
	go func() {
		defer l.workers.Done()

		start := time.Now()
		node, err := l.open(req)
		res := Result{Name: req.Name, Node: node, Err: err, Duration: time.Since(start)}

		l.mu.Lock()
		l.queue = append(l.queue, completion{result: res, cb: cb})
		l.mu.Unlock()
	}()
}

func (l *Loader) open(req Request) (node *scene.Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			node, err = nil, fmt.Errorf("load %s: panic: %v", req.Name, r)
		}
	}()

	node, err = l.source.Open(req.Name)
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, fmt.Errorf("load %s: source returned no node", req.Name)
	}
	if req.Prepare != nil {
		if err := req.Prepare(node); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", req.Name, err)
		}
	}
	return node, nil
}

// Pump delivers every completion queued so far and returns how many it delivered.
// It must be called from the goroutine that owns the scene graph.
func (l *Loader) Pump() int {
	l.mu.Lock()
	batch := l.queue
	l.queue = nil
	l.pending -= len(batch)
	l.mu.Unlock()

	for _, c := range batch {
		l.logger.Debug("asset delivered", "asset", c.result.Name,
			"duration", c.result.Duration, "ok", c.result.Err == nil)
		if c.cb != nil {
			c.cb(c.result)
		}
	}
	return len(batch)
}

// Pending returns the number of requests not yet delivered by Pump.
func (l *Loader) Pending() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.pending
}

// Wait blocks until every worker has queued its result. Results still need a Pump.
func (l *Loader) Wait() {
	l.workers.Wait()
}
