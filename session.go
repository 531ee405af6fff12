package uijet

import (
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/uijet/uijet/internal/core"
)

// State tracks a session's lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateBootstrapped
	StateRunning
	StateShuttingDown
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateBootstrapped:
		return "bootstrapped"
	case StateRunning:
		return "running"
	case StateShuttingDown:
		return "shutting down"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Session owns one scripting VM and the per-frame protocol around it. It is
// passed explicitly to every native callback — never ambient global state —
// so multiple sessions can coexist in tests.
//
// All methods must be called from the thread driving the native event loop;
// the VM is single-threaded cooperative.
type Session struct {
	rt    core.JSRuntime
	opts  Options
	state State

	start time.Time
	sched *FrameScheduler
	units []*Unit
	win   WindowConfig

	gfx        Graphics
	images     *ImageRegistry
	builtin    map[string][]byte
	quit       func()
	clearColor [4]float32
}

// NewSession creates a VM, bootstraps it, loads the application unit, and
// projects the window configuration. On return the session is ready to be
// handed to a windowing backend. Any error here is unrecoverable: the
// caller should terminate with a diagnostic rather than retry.
func NewSession(opts Options) (*Session, error) {
	rt, err := newRuntime(opts.MemoryLimitMB)
	if err != nil {
		return nil, err
	}
	s, err := newSessionWithRuntime(rt, opts)
	if err != nil {
		rt.Close()
		return nil, err
	}
	return s, nil
}

// newSessionWithRuntime is the injectable constructor used by tests. On
// error the caller owns closing rt.
func newSessionWithRuntime(rt core.JSRuntime, opts Options) (*Session, error) {
	s := &Session{
		rt:    rt,
		opts:  opts,
		start: time.Now(),
	}
	s.sched = NewFrameScheduler(s)
	if err := s.bootstrap(); err != nil {
		return nil, err
	}
	if err := s.loadApp(); err != nil {
		return nil, err
	}
	s.win = projectWindowConfig(s)
	return s, nil
}

// nowMs is the monotonic millisecond clock shared by performance.now() and
// the frame scheduler.
func (s *Session) nowMs() float64 {
	return float64(time.Since(s.start).Nanoseconds()) / 1e6
}

// bootstrap takes the session from uninitialized to bootstrapped: host
// functions, console, clock, foundational task-queue unit, contract check,
// NODE_ENV, and the seeded config object. Ends by priming the queue clock
// with one run at time zero, before any window exists.
func (s *Session) bootstrap() error {
	if s.state != StateUninitialized {
		return fmt.Errorf("bootstrap in state %s", s.state)
	}

	if err := s.rt.RegisterFunc("__uijet_now", s.nowMs); err != nil {
		return fmt.Errorf("registering __uijet_now: %w", err)
	}
	if err := s.rt.RegisterFunc("__uijet_log", func(level, msg string) {
		log.Printf("[js %s] %s", level, msg)
	}); err != nil {
		return fmt.Errorf("registering __uijet_log: %w", err)
	}
	if err := s.registerImageFuncs(); err != nil {
		return err
	}

	if err := s.rt.Eval(consoleJS); err != nil {
		return fmt.Errorf("installing console: %w", err)
	}
	if err := s.rt.Eval(performanceJS); err != nil {
		return fmt.Errorf("installing performance: %w", err)
	}

	// Foundational task-queue unit: built-in unless an external unit was
	// configured.
	if s.opts.TaskQueuePath != "" {
		unit, err := LoadUnit(s.rt, nil, false, s.opts.TaskQueuePath, "")
		if err != nil {
			return fmt.Errorf("loading task queue unit: %w", err)
		}
		s.units = append(s.units, unit)
	} else if err := s.rt.Eval(taskQueueJS); err != nil {
		return fmt.Errorf("installing task queue: %w", err)
	}

	ok, err := s.rt.EvalBool(taskQueueContractJS)
	if err != nil {
		return fmt.Errorf("checking task queue contract: %w", err)
	}
	if !ok {
		return fmt.Errorf("bootstrap: %w", ErrBootstrapContract)
	}

	nodeEnv := "production"
	if s.opts.Development {
		nodeEnv = "development"
	}
	if err := s.rt.Eval(fmt.Sprintf("process.env.NODE_ENV = %q;", nodeEnv)); err != nil {
		return fmt.Errorf("setting NODE_ENV: %w", err)
	}

	// Seed the config object so scripts can override it before the window
	// is created.
	if err := s.rt.Eval(fmt.Sprintf("globalThis.%s = { title: %q };",
		configGlobal, defaultWindowTitle)); err != nil {
		return fmt.Errorf("seeding %s: %w", configGlobal, err)
	}

	if err := s.RunTask(0); err != nil {
		return fmt.Errorf("priming task queue clock: %w", err)
	}

	s.state = StateBootstrapped
	return nil
}

// registerImageFuncs exposes the image registry and clear color to scripts.
// The registry itself exists only once a graphics backend is attached;
// calls before that fail into the script layer as thrown errors.
func (s *Session) registerImageFuncs() error {
	if err := s.rt.RegisterFunc("load_image", func(path string) (int, error) {
		if s.images == nil {
			return 0, fmt.Errorf("no graphics backend attached")
		}
		return s.images.Load(path)
	}); err != nil {
		return fmt.Errorf("registering load_image: %w", err)
	}
	if err := s.rt.RegisterFunc("image_width", func(index int) int {
		if s.images == nil {
			return 0
		}
		return s.images.Width(index)
	}); err != nil {
		return fmt.Errorf("registering image_width: %w", err)
	}
	if err := s.rt.RegisterFunc("image_height", func(index int) int {
		if s.images == nil {
			return 0
		}
		return s.images.Height(index)
	}); err != nil {
		return fmt.Errorf("registering image_height: %w", err)
	}
	if err := s.rt.RegisterFunc("set_bg_color", func(r, g, b, a float64) {
		s.clearColor = [4]float32{float32(r), float32(g), float32(b), float32(a)}
	}); err != nil {
		return fmt.Errorf("registering set_bg_color: %w", err)
	}
	return nil
}

// loadApp evaluates the application unit: native, bytecode, source, or
// bundled source.
func (s *Session) loadApp() error {
	if s.opts.NativeUnit == nil && s.opts.AppPath == "" {
		return nil // config-only session; scripts may be evaluated later by tests
	}

	if s.opts.Bundle && !s.opts.Bytecode && s.opts.NativeUnit == nil {
		name := s.opts.SourceURL
		if name == "" {
			name = s.opts.AppPath
		}
		src, err := BundleScript(s.opts.AppPath)
		if err != nil {
			return err
		}
		if err := s.rt.EvalBuffer([]byte(src), name, false); err != nil {
			return err
		}
		log.Printf("uijet: loaded unit %q from bundled source (%d bytes)", name, len(src))
		return nil
	}

	unit, err := LoadUnit(s.rt, s.opts.NativeUnit, s.opts.Bytecode, s.opts.AppPath, s.opts.SourceURL)
	if err != nil {
		return err
	}
	s.units = append(s.units, unit)
	return nil
}

// WindowConfig returns the projected native window configuration. Later
// script-side mutation of the config object has no effect.
func (s *Session) WindowConfig() WindowConfig { return s.win }

// SetBuiltinImages registers compiled-in encoded images looked up by name
// before the filesystem. Must be called before Attach.
func (s *Session) SetBuiltinImages(builtin map[string][]byte) { s.builtin = builtin }

// Attach connects the session to a graphics backend and a quit request
// function. Called by the windowing backend before Init.
func (s *Session) Attach(gfx Graphics, quit func()) {
	s.gfx = gfx
	s.quit = quit
	s.images = NewImageRegistry(gfx, s.builtin)
}

// Init is the native init callback: set up the graphics stack, then give
// the script its one-time init hook. A script error here is fatal — the
// application cannot proceed without successful initialization.
func (s *Session) Init() error {
	if s.state != StateBootstrapped {
		return fmt.Errorf("init in state %s", s.state)
	}
	if s.gfx == nil {
		return fmt.Errorf("init without attached graphics backend")
	}
	if err := s.gfx.Setup(); err != nil {
		return fmt.Errorf("graphics setup: %w", err)
	}
	if err := s.rt.Eval("typeof globalThis.on_init === 'function' && globalThis.on_init();"); err != nil {
		return fmt.Errorf("on_init: %w", err)
	}
	s.rt.RunMicrotasks()
	s.state = StateRunning
	return nil
}

// Frame is the native per-tick callback: run the frame protocol, then
// render the pass with the overlay.
func (s *Session) Frame(width, height int) {
	if s.state != StateRunning {
		return
	}
	s.sched.Tick(width, height, s.nowMs())

	s.gfx.BeginFrame(width, height, s.clearColor)
	lines, row := s.sched.OverlayLines(height)
	s.gfx.DrawOverlay(lines, row)
	s.gfx.EndFrame()
}

// Event is the native event callback. The reserved Super+Q gesture exits
// unconditionally, bypassing script dispatch. Everything else goes to the
// script's event hook (errors logged, never fatal — user input must not
// crash the session), then to the toolkit adapter.
func (s *Session) Event(ev Event) {
	if ev.Type == EventKeyDown && ev.KeyCode == keyQ && ev.Modifiers&ModSuper != 0 {
		if s.quit != nil {
			s.quit()
		}
		return
	}
	if s.state != StateRunning {
		return
	}

	err := s.rt.Eval(fmt.Sprintf(
		"typeof globalThis.on_event === 'function' && globalThis.on_event(%d, %d, %d);",
		int(ev.Type), ev.KeyCode, ev.Modifiers))
	if err != nil {
		logScriptError(fmt.Errorf("on_event: %w", err))
	}
	s.rt.RunMicrotasks()

	if s.gfx != nil {
		s.gfx.HandleEvent(ev)
	}
}

// Cleanup is the native cleanup callback: release images, then shut down
// the graphics stack.
func (s *Session) Cleanup() {
	if s.state == StateShuttingDown || s.state == StateTerminated {
		return
	}
	s.state = StateShuttingDown
	if s.images != nil {
		s.images.ReleaseAll()
	}
	if s.gfx != nil {
		s.gfx.Shutdown()
	}
}

// Close destroys the VM and releases the unit buffers backing live code.
// Always runs teardown, also on early-return paths; safe to defer next to
// NewSession.
func (s *Session) Close() {
	if s.state == StateTerminated {
		return
	}
	if s.state != StateShuttingDown {
		s.Cleanup()
	}
	for _, u := range s.units {
		u.Close()
	}
	s.units = nil
	s.rt.Close()
	s.state = StateTerminated
}

// Scheduler exposes the frame scheduler, mainly for overlay readouts.
func (s *Session) Scheduler() *FrameScheduler { return s.sched }

// jsNum formats a finite float64 as a JavaScript number literal.
func jsNum(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// --- scriptHost implementation (the scheduler's view of the VM) ---

// PeekTask returns the due time of the next pending macrotask, negative
// when the queue is empty.
func (s *Session) PeekTask() (float64, error) {
	return s.rt.EvalFloat(taskQueueGlobal + ".peek()")
}

// RunTask advances the queue clock to timeMs and runs the next due task.
func (s *Session) RunTask(timeMs float64) error {
	return s.rt.Eval(fmt.Sprintf("%s.run(%s);", taskQueueGlobal, jsNum(timeMs)))
}

// CallFrame invokes the script's on_frame hook if present.
func (s *Session) CallFrame(width, height, elapsedSec float64) error {
	return s.rt.Eval(fmt.Sprintf(
		"typeof globalThis.on_frame === 'function' && globalThis.on_frame(%s, %s, %s);",
		jsNum(width), jsNum(height), jsNum(elapsedSec)))
}

// DrainMicrotasks pumps the VM's microtask queue to exhaustion.
func (s *Session) DrainMicrotasks() { s.rt.RunMicrotasks() }

// ReadMetric reads one numeric field of the script's perfMetrics object.
func (s *Session) ReadMetric(name string) (float64, bool) {
	present, err := s.rt.EvalBool(fmt.Sprintf(
		"typeof globalThis.perfMetrics === 'object' && globalThis.perfMetrics !== null && typeof globalThis.perfMetrics.%s === 'number'",
		name))
	if err != nil || !present {
		return 0, false
	}
	v, err := s.rt.EvalFloat("globalThis.perfMetrics." + name)
	if err != nil {
		return 0, false
	}
	return v, true
}

// --- configReader implementation (the projection's view of the VM) ---

// HasConfig reports whether the script-side config object exists.
func (s *Session) HasConfig() bool {
	ok, err := s.rt.EvalBool(fmt.Sprintf(
		"typeof globalThis.%s === 'object' && globalThis.%s !== null", configGlobal, configGlobal))
	return err == nil && ok
}

// NumberField reads one numeric config field; ok is false unless the JS
// value is actually a number.
func (s *Session) NumberField(field string) (float64, bool) {
	present, err := s.rt.EvalBool(fmt.Sprintf(
		"typeof globalThis.%s.%s === 'number'", configGlobal, field))
	if err != nil || !present {
		return 0, false
	}
	v, err := s.rt.EvalFloat(fmt.Sprintf("globalThis.%s.%s", configGlobal, field))
	if err != nil {
		return 0, false
	}
	return v, true
}

// BoolField reads one boolean config field; ok is false unless the JS
// value is actually a boolean.
func (s *Session) BoolField(field string) (bool, bool) {
	present, err := s.rt.EvalBool(fmt.Sprintf(
		"typeof globalThis.%s.%s === 'boolean'", configGlobal, field))
	if err != nil || !present {
		return false, false
	}
	v, err := s.rt.EvalBool(fmt.Sprintf("globalThis.%s.%s", configGlobal, field))
	if err != nil {
		return false, false
	}
	return v, true
}

// StringField reads one string config field; the returned Go string is
// process-owned storage independent of the VM value.
func (s *Session) StringField(field string) (string, bool) {
	present, err := s.rt.EvalBool(fmt.Sprintf(
		"typeof globalThis.%s.%s === 'string'", configGlobal, field))
	if err != nil || !present {
		return "", false
	}
	v, err := s.rt.EvalString(fmt.Sprintf("globalThis.%s.%s", configGlobal, field))
	if err != nil {
		return "", false
	}
	return v, true
}
