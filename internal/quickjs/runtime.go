//go:build !v8

// Package quickjs implements core.JSRuntime on the pure-Go QuickJS
// translation (modernc.org/quickjs), with direct libquickjs C API access
// for the operations the Go wrapper does not expose: pumping the pending
// job queue, evaluating source buffers under a diagnostic name, and
// loading precompiled bytecode.
package quickjs

import (
	"encoding/json"
	"fmt"
	"reflect"
	gort "runtime"
	"unsafe"

	"github.com/uijet/uijet/internal/core"
	"modernc.org/libc"
	lib "modernc.org/libquickjs"
	"modernc.org/quickjs"
)

// C-level constants mirroring quickjs.h. The Go wrapper does not re-export
// them.
const (
	jsEvalTypeGlobal  = 0      // JS_EVAL_TYPE_GLOBAL
	jsReadObjBytecode = 1 << 0 // JS_READ_OBJ_BYTECODE
)

// Runtime wraps a QuickJS VM together with the cached internal pointers
// needed for direct C API calls.
type Runtime struct {
	vm       *quickjs.VM
	tls      *libc.TLS
	ctx      uintptr // JSContext
	cRuntime uintptr // JSRuntime
}

var _ core.JSRuntime = (*Runtime)(nil)

// New creates a QuickJS VM and extracts its internal context/runtime
// pointers. Extraction failure is fatal here rather than degraded: without
// JS_ExecutePendingJob the frame protocol's microtask draining contract
// cannot be met, and bytecode units cannot be evaluated at all.
func New(memoryLimitMB int) (*Runtime, error) {
	vm, err := quickjs.NewVM()
	if err != nil {
		return nil, fmt.Errorf("creating QuickJS VM: %w", err)
	}
	if memoryLimitMB > 0 {
		vm.SetMemoryLimit(uintptr(memoryLimitMB) * 1024 * 1024)
	}

	r := &Runtime{vm: vm}
	if err := r.extractVMInternals(); err != nil {
		vm.Close()
		return nil, fmt.Errorf("extracting VM internals: %w", err)
	}

	// Smoke-test: a trivial C API round trip verifies the pointers.
	glob := lib.XJS_GetGlobalObject(r.tls, r.ctx)
	lib.XFreeValue(r.tls, r.ctx, glob)

	return r, nil
}

// extractVMInternals uses reflect+unsafe to cache the VM's tls, JSContext
// and JSRuntime pointers.
//
// VM struct layout (modernc.org/quickjs@v0.17.1):
//
//	type VM struct {
//	    cContext uintptr
//	    ...
//	    runtime  *runtime
//	}
//
//	type runtime struct {
//	    cRuntime uintptr
//	    tls      *libc.TLS
//	}
func (r *Runtime) extractVMInternals() (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic extracting VM internals: %v", p)
		}
	}()

	vmType := reflect.TypeOf(r.vm).Elem()
	vmPtr := uintptr(unsafe.Pointer(r.vm))

	// cContext is the first field of VM (offset 0).
	r.ctx = *(*uintptr)(unsafe.Pointer(vmPtr))
	if r.ctx == 0 {
		return fmt.Errorf("JSContext is nil")
	}

	rtField, ok := vmType.FieldByName("runtime")
	if !ok {
		return fmt.Errorf("quickjs.VM missing 'runtime' field")
	}
	rtPtr := *(*uintptr)(unsafe.Pointer(vmPtr + rtField.Offset))
	if rtPtr == 0 {
		return fmt.Errorf("runtime pointer is nil")
	}

	// runtime struct: cRuntime first, then tls.
	r.cRuntime = *(*uintptr)(unsafe.Pointer(rtPtr))
	if r.cRuntime == 0 {
		return fmt.Errorf("JSRuntime is nil")
	}
	r.tls = *(**libc.TLS)(unsafe.Pointer(rtPtr + unsafe.Sizeof(uintptr(0))))
	if r.tls == nil {
		return fmt.Errorf("TLS is nil")
	}

	return nil
}

// Eval evaluates JavaScript and discards the result.
func (r *Runtime) Eval(js string) error {
	v, err := r.vm.EvalValue(js, quickjs.EvalGlobal)
	if err != nil {
		return err
	}
	v.Free()
	return nil
}

// EvalString evaluates JavaScript and returns the result as a Go string.
func (r *Runtime) EvalString(js string) (string, error) {
	result, err := r.vm.Eval(js, quickjs.EvalGlobal)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return fmt.Sprint(result), nil
}

// EvalBool evaluates JavaScript and returns the result as a Go bool.
func (r *Runtime) EvalBool(js string) (bool, error) {
	result, err := r.vm.Eval(js, quickjs.EvalGlobal)
	if err != nil {
		return false, err
	}
	b, ok := result.(bool)
	if !ok {
		return false, fmt.Errorf("expected bool, got %T", result)
	}
	return b, nil
}

// EvalInt evaluates JavaScript and returns the result as a Go int.
func (r *Runtime) EvalInt(js string) (int, error) {
	result, err := r.vm.Eval(js, quickjs.EvalGlobal)
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case int:
		return v, nil
	case float64:
		return int(v), nil
	default:
		return 0, fmt.Errorf("expected int, got %T", result)
	}
}

// EvalFloat evaluates JavaScript and returns the result as a Go float64.
func (r *Runtime) EvalFloat(js string) (float64, error) {
	result, err := r.vm.Eval(js, quickjs.EvalGlobal)
	if err != nil {
		return 0, err
	}
	switch v := result.(type) {
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	default:
		return 0, fmt.Errorf("expected number, got %T", result)
	}
}

// EvalBuffer evaluates a script unit held in a byte buffer. Source buffers
// go through JS_Eval, which requires NUL-terminated input: a buffer that
// already carries a trailing NUL (a memory-mapped file with a synthesized
// terminator) is used in place with its content length; anything else is
// copied once into a NUL-terminated scratch buffer. Bytecode buffers go
// through JS_ReadObject/JS_EvalFunction with their exact length.
func (r *Runtime) EvalBuffer(data []byte, name string, bytecode bool) error {
	cName, err := libc.CString(name)
	if err != nil {
		return fmt.Errorf("allocating unit name: %w", err)
	}
	defer libc.Xfree(r.tls, cName)

	if bytecode {
		if len(data) == 0 {
			return fmt.Errorf("empty bytecode unit %q", name)
		}
		obj := lib.XJS_ReadObject(r.tls, r.ctx,
			uintptr(unsafe.Pointer(&data[0])), lib.Tsize_t(len(data)), jsReadObjBytecode)
		gort.KeepAlive(data)
		if err := r.takeException(name); err != nil {
			return err
		}
		// JS_EvalFunction consumes obj.
		ret := lib.XJS_EvalFunction(r.tls, r.ctx, obj)
		lib.XFreeValue(r.tls, r.ctx, ret)
		return r.takeException(name)
	}

	evalLen := len(data)
	if evalLen > 0 && data[evalLen-1] == 0 {
		evalLen-- // terminator stays at data[evalLen]
	} else {
		buf := make([]byte, evalLen+1)
		copy(buf, data)
		data = buf
	}
	if evalLen == 0 {
		return nil
	}

	ret := lib.XJS_Eval(r.tls, r.ctx,
		uintptr(unsafe.Pointer(&data[0])), lib.Tsize_t(evalLen), cName, jsEvalTypeGlobal)
	gort.KeepAlive(data)
	lib.XFreeValue(r.tls, r.ctx, ret)
	return r.takeException(name)
}

// describeLastErrorJS converts the stashed exception to a JSON pair of
// message and stack, returning "" when no exception was pending.
const describeLastErrorJS = `(function() {
	var e = globalThis.__uijet_lastError;
	delete globalThis.__uijet_lastError;
	if (e === null || e === undefined) return "";
	if (e instanceof Error) {
		return JSON.stringify({message: String(e.message), stack: String(e.stack || "")});
	}
	return JSON.stringify({message: String(e), stack: ""});
})()`

// takeException drains the pending C-level exception, if any, into a
// *core.ScriptError. The exception value is stashed on globalThis so that
// its message and stack can be read through the Go wrapper instead of
// poking at JSValue tags directly. JS_GetException returns the
// JS_TAG_UNINITIALIZED sentinel when nothing is pending, so the pending
// check has to go through JS_HasException first.
func (r *Runtime) takeException(unit string) error {
	if lib.XJS_HasException(r.tls, r.ctx) == 0 {
		return nil
	}
	exc := lib.XJS_GetException(r.tls, r.ctx)
	cName, err := libc.CString("__uijet_lastError")
	if err != nil {
		lib.XFreeValue(r.tls, r.ctx, exc)
		return fmt.Errorf("allocating property name: %w", err)
	}
	glob := lib.XJS_GetGlobalObject(r.tls, r.ctx)
	// JS_SetPropertyStr consumes the exc reference.
	lib.XJS_SetPropertyStr(r.tls, r.ctx, glob, cName, exc)
	lib.XFreeValue(r.tls, r.ctx, glob)
	libc.Xfree(r.tls, cName)

	desc, evalErr := r.EvalString(describeLastErrorJS)
	if evalErr != nil {
		return fmt.Errorf("describing script exception: %w", evalErr)
	}
	if desc == "" {
		// Exception was pending but the thrown value was null/undefined.
		return &core.ScriptError{Unit: unit, Message: "uncaught exception"}
	}

	var se struct {
		Message string `json:"message"`
		Stack   string `json:"stack"`
	}
	if err := json.Unmarshal([]byte(desc), &se); err != nil {
		return &core.ScriptError{Unit: unit, Message: desc}
	}
	return &core.ScriptError{Unit: unit, Message: se.Message, Stack: se.Stack}
}

// RegisterFunc registers a Go function as a global JavaScript function.
// Multi-value Go returns (T, error) are automatically unwrapped: on success
// returns T, on error throws a TypeError. This is necessary because the
// QuickJS Go wrapper returns multi-value results as JS arrays.
func (r *Runtime) RegisterFunc(name string, fn any) error {
	rawName := "__raw_" + name
	if err := r.vm.RegisterFunc(rawName, fn, false); err != nil {
		return err
	}
	wrapJS := fmt.Sprintf(`(function() {
		var raw = globalThis[%q];
		globalThis[%q] = function() {
			var r = raw.apply(this, arguments);
			if (Array.isArray(r)) {
				if (r[1] !== null && r[1] !== undefined) throw new TypeError("calling %s: " + r[1]);
				return r[0];
			}
			return r;
		};
		delete globalThis[%q];
	})()`, rawName, name, name, rawName)
	return r.Eval(wrapJS)
}

// SetGlobal sets a global property on the VM's global object.
func (r *Runtime) SetGlobal(name string, value any) error {
	atom, err := r.vm.NewAtom(name)
	if err != nil {
		return fmt.Errorf("creating atom %q: %w", name, err)
	}
	glob := r.vm.GlobalObject()
	defer glob.Free()
	return glob.SetProperty(atom, value)
}

// RunMicrotasks pumps the QuickJS pending job queue to exhaustion. The Go
// wrapper never calls JS_ExecutePendingJob, so Promise callbacks would
// otherwise never fire.
func (r *Runtime) RunMicrotasks() {
	for {
		ret := lib.XJS_ExecutePendingJob(r.tls, r.cRuntime, 0)
		if ret <= 0 {
			break
		}
	}
}

// Close tears down the VM.
func (r *Runtime) Close() {
	r.vm.Close()
}
