package uijet

import (
	"errors"
	"math"
	"sort"
	"testing"
)

// fakeScriptHost simulates the task-queue unit: a sorted list of due
// times, where running a task removes it and optionally reschedules.
type fakeScriptHost struct {
	tasks      []float64 // pending due times, kept sorted
	reschedule map[float64]float64

	runTimes    []float64
	frames      int
	frameArgs   [3]float64
	microDrains int

	peekErr  error
	runErr   error
	frameErr error

	metrics map[string]float64
}

func (h *fakeScriptHost) PeekTask() (float64, error) {
	if h.peekErr != nil {
		return 0, h.peekErr
	}
	if len(h.tasks) == 0 {
		return -1, nil
	}
	return h.tasks[0], nil
}

func (h *fakeScriptHost) RunTask(timeMs float64) error {
	if h.runErr != nil {
		return h.runErr
	}
	if len(h.tasks) == 0 {
		return nil
	}
	due := h.tasks[0]
	h.tasks = h.tasks[1:]
	h.runTimes = append(h.runTimes, timeMs)
	if next, ok := h.reschedule[due]; ok {
		h.tasks = append(h.tasks, next)
		sort.Float64s(h.tasks)
		delete(h.reschedule, due)
	}
	return nil
}

func (h *fakeScriptHost) CallFrame(width, height, elapsedSec float64) error {
	if h.frameErr != nil {
		return h.frameErr
	}
	h.frames++
	h.frameArgs = [3]float64{width, height, elapsedSec}
	return nil
}

func (h *fakeScriptHost) DrainMicrotasks() { h.microDrains++ }

func (h *fakeScriptHost) ReadMetric(name string) (float64, bool) {
	v, ok := h.metrics[name]
	return v, ok
}

func TestFrameScheduler_DrainsDueTasks(t *testing.T) {
	host := &fakeScriptHost{
		tasks: []float64{0, 5, 100},
		// Task due at 0 reschedules itself to 8, which is still due
		// within this tick.
		reschedule: map[float64]float64{0: 8},
	}
	fs := NewFrameScheduler(host)

	fs.Tick(640, 480, 10)

	// Tasks due 0, 5, and the rescheduled 8 run; 100 stays pending.
	if got := len(host.runTimes); got != 3 {
		t.Fatalf("ran %d tasks, want 3", got)
	}
	for i, at := range host.runTimes {
		if at != 10 {
			t.Errorf("task %d ran at queue clock %v, want 10", i, at)
		}
	}
	if len(host.tasks) != 1 || host.tasks[0] != 100 {
		t.Errorf("pending tasks = %v, want [100]", host.tasks)
	}
	if host.frames != 1 {
		t.Errorf("frames = %d, want 1", host.frames)
	}
	// One microtask drain per task plus one after the frame callback.
	if host.microDrains != 4 {
		t.Errorf("microtask drains = %d, want 4", host.microDrains)
	}
}

func TestFrameScheduler_FutureTasksLeftPending(t *testing.T) {
	host := &fakeScriptHost{tasks: []float64{50}}
	fs := NewFrameScheduler(host)

	fs.Tick(640, 480, 10)

	if len(host.runTimes) != 0 {
		t.Errorf("ran %d tasks, want 0", len(host.runTimes))
	}
	if host.frames != 1 {
		t.Errorf("frames = %d, want 1", host.frames)
	}
}

func TestFrameScheduler_ElapsedFromFirstTick(t *testing.T) {
	host := &fakeScriptHost{}
	fs := NewFrameScheduler(host)

	fs.Tick(640, 480, 1000)
	fs.Tick(640, 480, 3500)

	if host.frames != 2 {
		t.Fatalf("frames = %d, want 2", host.frames)
	}
	if host.frameArgs[0] != 640 || host.frameArgs[1] != 480 {
		t.Errorf("frame size = %vx%v, want 640x480", host.frameArgs[0], host.frameArgs[1])
	}
	if host.frameArgs[2] != 2.5 {
		t.Errorf("elapsed = %v s, want 2.5", host.frameArgs[2])
	}
}

func TestFrameScheduler_ScriptErrorDoesNotKillTick(t *testing.T) {
	host := &fakeScriptHost{
		tasks:  []float64{0},
		runErr: errors.New("boom"),
	}
	fs := NewFrameScheduler(host)

	fs.Tick(640, 480, 10)

	// The failed drain aborts the rest of the script sequence for this
	// tick, including the frame callback.
	if host.frames != 0 {
		t.Errorf("frames = %d, want 0 after task error", host.frames)
	}

	// The next tick proceeds normally once the error clears.
	host.runErr = nil
	fs.Tick(640, 480, 20)
	if host.frames != 1 {
		t.Errorf("frames = %d, want 1 on recovery tick", host.frames)
	}
}

func TestFrameScheduler_FrameErrorStillDrainsTasks(t *testing.T) {
	host := &fakeScriptHost{
		tasks:    []float64{0},
		frameErr: errors.New("on_frame threw"),
	}
	fs := NewFrameScheduler(host)

	fs.Tick(640, 480, 10)

	if len(host.runTimes) != 1 {
		t.Errorf("ran %d tasks, want 1 despite frame error", len(host.runTimes))
	}
}

func TestFrameScheduler_MetricsFlushOncePerSecond(t *testing.T) {
	host := &fakeScriptHost{metrics: map[string]float64{"renderTime": 10}}
	fs := NewFrameScheduler(host)

	fs.Tick(640, 480, 0)
	fs.Tick(640, 480, 100) // 10 fps instantaneous, but no flush yet
	if fs.FPS() != 0 {
		t.Errorf("FPS displayed %v before first flush, want 0", fs.FPS())
	}

	fs.Tick(640, 480, 1100) // crosses the 1s flush boundary
	if fs.FPS() != 1 {
		t.Errorf("FPS displayed %v, want 1 (1000ms frame)", fs.FPS())
	}
}

func TestFrameScheduler_RenderTimeEMA(t *testing.T) {
	host := &fakeScriptHost{metrics: map[string]float64{"renderTime": 10}}
	fs := NewFrameScheduler(host)

	fs.Tick(640, 480, 0)
	if got := fs.renderEMA; got != 1 {
		t.Errorf("EMA after first sample = %v, want 1 (0.1 * 10)", got)
	}
	fs.Tick(640, 480, 16)
	if got := fs.renderEMA; math.Abs(got-1.9) > 1e-9 {
		t.Errorf("EMA after second sample = %v, want 1.9", got)
	}
}

func TestFrameScheduler_OverlayLines(t *testing.T) {
	host := &fakeScriptHost{}
	fs := NewFrameScheduler(host)

	lines, row := fs.OverlayLines(480)
	if len(lines) != 2 {
		t.Fatalf("lines = %v, want 2 entries before reconciliation metrics", lines)
	}
	if lines[0] != "FPS: 0" {
		t.Errorf("lines[0] = %q", lines[0])
	}
	if row != 480/8-2 {
		t.Errorf("row = %d, want %d", row, 480/8-2)
	}

	fs.reconAvgDisplay = 1.5
	fs.reconMaxDisplay = 4
	lines, row = fs.OverlayLines(480)
	if len(lines) != 3 {
		t.Fatalf("lines = %v, want 3 entries with reconciliation metrics", lines)
	}
	if lines[2] != "Reconcile: 1500/4000us" {
		t.Errorf("lines[2] = %q", lines[2])
	}
	if row != 480/8-3 {
		t.Errorf("row = %d, want %d", row, 480/8-3)
	}
}

func TestFrameScheduler_OverlayRowClamped(t *testing.T) {
	host := &fakeScriptHost{}
	fs := NewFrameScheduler(host)

	_, row := fs.OverlayLines(8)
	if row != 0 {
		t.Errorf("row = %d, want 0 for tiny viewport", row)
	}
}
