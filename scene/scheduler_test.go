package scene_test

import (
	"context"
	"testing"
	"time"

	"github.com/plus3/lamprig/scene"
	"github.com/stretchr/testify/assert"
)

type SpinSystem struct {
	Node         *scene.Node
	Speed        float32
	ExecuteCount int
}

func (s *SpinSystem) Execute(frame *scene.UpdateFrame) {
	s.ExecuteCount++
	s.Node.Transform.Rotation[1] += s.Speed * float32(frame.DeltaTime)
}

type CountSystem struct {
	ExecuteCount int
	Nodes        int
}

func (s *CountSystem) Execute(frame *scene.UpdateFrame) {
	s.ExecuteCount++
	s.Nodes = frame.Graph.Len()
}

func TestScheduler(t *testing.T) {
	t.Run("system execution order", func(t *testing.T) {
		g := scene.NewGraph()
		scheduler := scene.NewScheduler(g)

		var order []string
		scheduler.RegisterNamed("first", scene.SystemFunc(func(*scene.UpdateFrame) { order = append(order, "first") }))
		scheduler.RegisterNamed("second", scene.SystemFunc(func(*scene.UpdateFrame) { order = append(order, "second") }))

		scheduler.Once(1.0)
		scheduler.Once(1.0)

		assert.Equal(t, []string{"first", "second", "first", "second"}, order)
	})

	t.Run("custom state persistence", func(t *testing.T) {
		g := scene.NewGraph()
		head := scene.NewNode("head")
		if err := g.Attach(g.Root(), head); err != nil {
			t.Fatal(err)
		}

		spin := &SpinSystem{Node: head, Speed: 2}
		scheduler := scene.NewScheduler(g)
		scheduler.Register(spin)

		scheduler.Once(0.5)
		scheduler.Once(0.25)

		if spin.ExecuteCount != 2 {
			t.Errorf("expected SpinSystem to execute twice, got %d", spin.ExecuteCount)
		}
		assert.InDelta(t, 1.5, head.Transform.Rotation.Y(), 1e-6)
	})

	t.Run("frame index", func(t *testing.T) {
		scheduler := scene.NewScheduler(scene.NewGraph())
		var seen []uint64
		scheduler.Register(scene.SystemFunc(func(frame *scene.UpdateFrame) {
			seen = append(seen, frame.Index)
		}))

		scheduler.Once(0)
		scheduler.Once(0)

		assert.Equal(t, []uint64{1, 2}, seen)
	})

	t.Run("context cancellation in run", func(t *testing.T) {
		scheduler := scene.NewScheduler(scene.NewGraph())
		count := &CountSystem{}
		scheduler.Register(count)

		ctx, cancel := context.WithCancel(context.Background())

		done := make(chan bool)
		go func() {
			scheduler.Run(ctx, 1*time.Millisecond)
			done <- true
		}()

		time.Sleep(20 * time.Millisecond)
		cancel()

		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("scheduler did not stop after context cancellation")
		}

		if count.ExecuteCount == 0 {
			t.Error("expected system to execute at least once")
		}
	})

	t.Run("run until done", func(t *testing.T) {
		scheduler := scene.NewScheduler(scene.NewGraph())
		count := &CountSystem{}
		scheduler.Register(count)

		err := scheduler.RunUntil(context.Background(), time.Millisecond, func() bool {
			return count.ExecuteCount >= 3
		})

		assert.NoError(t, err)
		assert.Equal(t, 3, count.ExecuteCount)
	})

	t.Run("run until times out", func(t *testing.T) {
		scheduler := scene.NewScheduler(scene.NewGraph())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		err := scheduler.RunUntil(ctx, time.Millisecond, func() bool { return false })
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})
}

func TestSchedulerStats(t *testing.T) {
	scheduler := scene.NewScheduler(scene.NewGraph())
	scheduler.Register(&CountSystem{})
	scheduler.RegisterNamed("Idle", scene.SystemFunc(func(*scene.UpdateFrame) {}))

	stats := scheduler.GetStats()
	assert.Equal(t, 2, stats.SystemCount)
	assert.Equal(t, time.Duration(0), stats.Systems[0].MinDuration)

	for i := 0; i < 5; i++ {
		scheduler.Once(1.0 / 60)
	}

	stats = scheduler.GetStats()
	assert.Equal(t, uint64(5), stats.Frames)
	assert.Equal(t, int64(10), stats.TotalExecutions)
	assert.Equal(t, "CountSystem", stats.Systems[0].Name)
	assert.Equal(t, "Idle", stats.Systems[1].Name)
	for _, s := range stats.Systems {
		assert.Equal(t, int64(5), s.ExecutionCount)
		assert.LessOrEqual(t, s.MinDuration, s.MaxDuration)
		assert.LessOrEqual(t, s.AvgDuration, s.MaxDuration)
	}
}
