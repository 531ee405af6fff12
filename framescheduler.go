package uijet

import (
	"errors"
	"fmt"
	"log"
)

// scriptHost is the slice of the session the frame scheduler drives each
// tick. Implemented by *Session against the live VM and by fakes in tests.
type scriptHost interface {
	// PeekTask returns the due time in ms of the next pending macrotask,
	// or a negative value when the queue is empty.
	PeekTask() (float64, error)

	// RunTask advances the queue clock to timeMs and runs the next due
	// macrotask. The task-queue unit reschedules or removes the task it
	// ran; that contract is what terminates the drain loop.
	RunTask(timeMs float64) error

	// CallFrame invokes the script's frame callback.
	CallFrame(width, height, elapsedSec float64) error

	// DrainMicrotasks pumps the microtask queue to exhaustion.
	DrainMicrotasks()

	// ReadMetric reads one optional numeric field of the script's metrics
	// object. ok is false when absent or non-numeric.
	ReadMetric(name string) (float64, bool)
}

// emaAlpha is the smoothing factor for the render-duration estimate.
const emaAlpha = 0.1

// metricsFlushIntervalMs decouples overlay text updates from the render
// cadence: displayed values refresh once per elapsed second.
const metricsFlushIntervalMs = 1000

// overlayCellPx is the character cell size the debug overlay assumes.
const overlayCellPx = 8

// FrameScheduler interleaves the native frame timing with the VM's
// cooperative task queue: each tick it runs every macrotask due at or
// before the frame timestamp (draining microtasks after each), invokes the
// script frame callback, drains microtasks once more, and updates the
// frame clock and metric snapshots. Script errors anywhere in that
// sequence are logged and the tick still renders.
type FrameScheduler struct {
	host scriptHost

	started     bool
	startMs     float64
	lastTickMs  float64
	lastFlushMs float64

	fps       float64
	renderEMA float64
	reconAvg  float64
	reconMax  float64

	// Displayed snapshots, refreshed once per second.
	fpsDisplay       float64
	renderEMADisplay float64
	reconAvgDisplay  float64
	reconMaxDisplay  float64
}

// NewFrameScheduler creates a scheduler driving the given host.
func NewFrameScheduler(host scriptHost) *FrameScheduler {
	return &FrameScheduler{host: host}
}

// Tick runs one frame of the interaction protocol at curTimeMs (monotonic
// milliseconds). The very first tick only records the start time and is
// not a frame boundary for elapsed-time purposes.
func (fs *FrameScheduler) Tick(width, height int, curTimeMs float64) {
	if !fs.started {
		fs.started = true
		fs.startMs = curTimeMs
		fs.lastTickMs = curTimeMs
		fs.lastFlushMs = curTimeMs
	} else {
		frameDur := curTimeMs - fs.lastTickMs
		if frameDur > 0 {
			fs.fps = metricsFlushIntervalMs / frameDur
		}
		fs.lastTickMs = curTimeMs
		if curTimeMs-fs.lastFlushMs >= metricsFlushIntervalMs {
			fs.fpsDisplay = fs.fps
			fs.renderEMADisplay = fs.renderEMA
			fs.reconAvgDisplay = fs.reconAvg
			fs.reconMaxDisplay = fs.reconMax
			fs.lastFlushMs = curTimeMs
		}
	}

	if err := fs.pump(width, height, curTimeMs); err != nil {
		logScriptError(err)
	}

	fs.readMetrics()
}

// pump is the guarded script sequence of a tick: macrotask drain, frame
// callback, microtask drains. A script error aborts the remainder of the
// sequence but not the tick.
func (fs *FrameScheduler) pump(width, height int, curTimeMs float64) error {
	for {
		due, err := fs.host.PeekTask()
		if err != nil {
			return err
		}
		if due < 0 || due > curTimeMs {
			break
		}
		if err := fs.host.RunTask(curTimeMs); err != nil {
			return err
		}
		fs.host.DrainMicrotasks()
	}

	// The frame callback is itself a macrotask-equivalent trampoline.
	elapsedSec := (curTimeMs - fs.startMs) / 1000
	if err := fs.host.CallFrame(float64(width), float64(height), elapsedSec); err != nil {
		return err
	}
	fs.host.DrainMicrotasks()
	return nil
}

// readMetrics pulls the script-reported timings. The reconciliation pair is
// taken as-is (the script averages them itself); the render time feeds the
// exponential moving average. Read failures are ignored.
func (fs *FrameScheduler) readMetrics() {
	if v, ok := fs.host.ReadMetric("reconciliationAvg"); ok {
		fs.reconAvg = v
	}
	if v, ok := fs.host.ReadMetric("reconciliationMax"); ok {
		fs.reconMax = v
	}
	if v, ok := fs.host.ReadMetric("renderTime"); ok {
		fs.renderEMA = fs.renderEMA*(1-emaAlpha) + v*emaAlpha
	}
}

// FPS returns the most recently displayed frames-per-second value.
func (fs *FrameScheduler) FPS() float64 { return fs.fpsDisplay }

// OverlayLines formats the debug overlay for a viewport of the given pixel
// height: the text lines plus the character-cell row they start at,
// anchored to the bottom of the viewport. The reconciliation pair is shown
// only once the script has reported it.
func (fs *FrameScheduler) OverlayLines(heightPx int) (lines []string, row int) {
	lines = []string{
		fmt.Sprintf("FPS: %d", int(fs.fpsDisplay+0.5)),
		fmt.Sprintf("Render: %dus", int(fs.renderEMADisplay*1000+0.5)),
	}
	if fs.reconAvgDisplay > 0 {
		lines = append(lines, fmt.Sprintf("Reconcile: %d/%dus",
			int(fs.reconAvgDisplay*1000+0.5), int(fs.reconMaxDisplay*1000+0.5)))
	}
	row = heightPx/overlayCellPx - len(lines)
	if row < 0 {
		row = 0
	}
	return lines, row
}

// logScriptError logs a per-tick script failure with whatever diagnostic
// context the engine attached.
func logScriptError(err error) {
	var se *ScriptError
	if errors.As(err, &se) && se.Stack != "" {
		log.Printf("uijet: %v\n%s", err, se.Stack)
		return
	}
	log.Printf("uijet: %v", err)
}
