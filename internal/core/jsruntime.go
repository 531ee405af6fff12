package core

// JSRuntime abstracts the JavaScript engine (QuickJS or V8) behind a
// common interface used by the session, the unit loader, the frame
// scheduler, and the config projection.
type JSRuntime interface {
	// Eval evaluates JavaScript source and discards the result.
	Eval(js string) error

	// EvalString evaluates JavaScript and returns the result as a Go string.
	EvalString(js string) (string, error)

	// EvalBool evaluates JavaScript and returns the result as a Go bool.
	EvalBool(js string) (bool, error)

	// EvalInt evaluates JavaScript and returns the result as a Go int.
	EvalInt(js string) (int, error)

	// EvalFloat evaluates JavaScript and returns the result as a Go float64.
	EvalFloat(js string) (float64, error)

	// EvalBuffer evaluates a script unit held in a byte buffer under the
	// given diagnostic name. When bytecode is true the buffer holds engine
	// bytecode and its exact length is significant; otherwise it holds
	// UTF-8 source which may carry a trailing NUL byte (engines that
	// require NUL-terminated input use it in place, engines that do not
	// strip it).
	EvalBuffer(data []byte, name string, bytecode bool) error

	// RegisterFunc registers a Go function as a global JavaScript function.
	// The function's Go types are automatically marshaled to/from JS types.
	// On error return, the JS wrapper throws a TypeError instead of
	// returning an array.
	RegisterFunc(name string, fn any) error

	// SetGlobal sets a global variable on the JS context. Basic Go types
	// (string, int, float64, bool) are auto-converted to JS types.
	SetGlobal(name string, value any) error

	// RunMicrotasks pumps the microtask queue to exhaustion (Promise
	// callbacks, etc.). V8: PerformMicrotaskCheckpoint, QuickJS:
	// ExecutePendingJob loop.
	RunMicrotasks()

	// Close tears down the engine. The runtime must not be used afterward.
	Close()
}
