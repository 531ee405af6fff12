//go:build v8

// Package v8engine implements core.JSRuntime on V8 via tommie/v8go.
// Selected with -tags v8; QuickJS is the default backend.
package v8engine

import (
	"fmt"
	"reflect"
	"strings"

	v8 "github.com/tommie/v8go"

	"github.com/uijet/uijet/internal/core"
)

// Runtime wraps a V8 isolate and context.
type Runtime struct {
	iso *v8.Isolate
	ctx *v8.Context
}

var _ core.JSRuntime = (*Runtime)(nil)

// New creates a V8 isolate and context. memoryLimitMB bounds the isolate
// heap when positive.
func New(memoryLimitMB int) (*Runtime, error) {
	var iso *v8.Isolate
	if memoryLimitMB > 0 {
		heapSize := uint64(memoryLimitMB) * 1024 * 1024
		iso = v8.NewIsolate(v8.WithResourceConstraints(heapSize/2, heapSize))
	} else {
		iso = v8.NewIsolate()
	}
	ctx := v8.NewContext(iso)
	return &Runtime{iso: iso, ctx: ctx}, nil
}

// Eval evaluates JavaScript and discards the result.
func (r *Runtime) Eval(js string) error {
	_, err := r.ctx.RunScript(js, "eval.js")
	return err
}

// EvalString evaluates JavaScript and returns the result as a Go string.
func (r *Runtime) EvalString(js string) (string, error) {
	val, err := r.ctx.RunScript(js, "eval_string.js")
	if err != nil {
		return "", err
	}
	if val == nil {
		return "", nil
	}
	return val.String(), nil
}

// EvalBool evaluates JavaScript and returns the result as a Go bool.
func (r *Runtime) EvalBool(js string) (bool, error) {
	val, err := r.ctx.RunScript(js, "eval_bool.js")
	if err != nil {
		return false, err
	}
	if val == nil {
		return false, nil
	}
	return val.Boolean(), nil
}

// EvalInt evaluates JavaScript and returns the result as a Go int.
func (r *Runtime) EvalInt(js string) (int, error) {
	val, err := r.ctx.RunScript(js, "eval_int.js")
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, nil
	}
	return int(val.Integer()), nil
}

// EvalFloat evaluates JavaScript and returns the result as a Go float64.
func (r *Runtime) EvalFloat(js string) (float64, error) {
	val, err := r.ctx.RunScript(js, "eval_float.js")
	if err != nil {
		return 0, err
	}
	if val == nil {
		return 0, nil
	}
	return val.Number(), nil
}

// EvalBuffer evaluates a source buffer under the given diagnostic name.
// V8 compiles from Go strings, so the buffer is converted (any trailing
// NUL synthesized for NUL-expecting engines is stripped first). Bytecode
// units are engine-specific and not supported on this backend.
func (r *Runtime) EvalBuffer(data []byte, name string, bytecode bool) error {
	if bytecode {
		return fmt.Errorf("bytecode unit %q: not supported by the v8 backend", name)
	}
	src := string(data)
	src = strings.TrimRight(src, "\x00")
	_, err := r.ctx.RunScript(src, name)
	if err != nil {
		return toScriptError(name, err)
	}
	return nil
}

// toScriptError converts a v8go evaluation error into a *core.ScriptError,
// keeping the stack trace when V8 provides one.
func toScriptError(unit string, err error) error {
	var jsErr *v8.JSError
	if ok := asJSError(err, &jsErr); ok {
		return &core.ScriptError{Unit: unit, Message: jsErr.Message, Stack: jsErr.StackTrace}
	}
	return &core.ScriptError{Unit: unit, Message: err.Error()}
}

func asJSError(err error, target **v8.JSError) bool {
	je, ok := err.(*v8.JSError)
	if ok {
		*target = je
	}
	return ok
}

// RegisterFunc registers a Go function as a global JavaScript function.
// Uses reflection to inspect the Go function's signature and creates a
// V8 FunctionTemplate that marshals arguments and return values.
//
// Supported Go function signatures:
//   - func(args...) — no return, JS function returns undefined
//   - func(args...) T — single return, JS function returns T
//   - func(args...) (T, error) — on success returns T, on error throws
//
// Supported argument types: string, int, float64, bool
// Supported return types: string, int, float64, bool
func (r *Runtime) RegisterFunc(name string, fn any) error {
	fnVal := reflect.ValueOf(fn)
	fnType := fnVal.Type()

	if fnType.Kind() != reflect.Func {
		return fmt.Errorf("RegisterFunc: expected function, got %T", fn)
	}

	tmpl := v8.NewFunctionTemplate(r.iso, func(info *v8.FunctionCallbackInfo) *v8.Value {
		args := info.Args()

		if len(args) < fnType.NumIn() {
			msg := fmt.Sprintf("%s requires at least %d argument(s), got %d", name, fnType.NumIn(), len(args))
			jsMsg, _ := v8.NewValue(r.iso, msg)
			r.iso.ThrowException(jsMsg)
			return nil
		}

		goArgs := make([]reflect.Value, fnType.NumIn())
		for i := 0; i < fnType.NumIn(); i++ {
			goArgs[i] = jsToGoArg(args[i], fnType.In(i))
		}

		results := fnVal.Call(goArgs)

		switch fnType.NumOut() {
		case 0:
			return nil
		case 1:
			return goToJSValue(r.iso, results[0])
		case 2:
			errVal := results[1]
			if !errVal.IsNil() {
				errMsg := errVal.Interface().(error).Error()
				msg := fmt.Sprintf("calling %s: %s", name, errMsg)
				jsMsg, _ := v8.NewValue(r.iso, msg)
				r.iso.ThrowException(jsMsg)
				return nil
			}
			return goToJSValue(r.iso, results[0])
		default:
			return nil
		}
	})

	fnObj := tmpl.GetFunction(r.ctx)
	return r.ctx.Global().Set(name, fnObj)
}

// SetGlobal sets a global variable on the JS context.
func (r *Runtime) SetGlobal(name string, value any) error {
	jsVal, err := goAnyToJSValue(r.iso, value)
	if err != nil {
		return fmt.Errorf("converting value for %q: %w", name, err)
	}
	return r.ctx.Global().Set(name, jsVal)
}

// RunMicrotasks pumps the V8 microtask queue.
func (r *Runtime) RunMicrotasks() {
	r.ctx.PerformMicrotaskCheckpoint()
}

// Close tears down the context and isolate.
func (r *Runtime) Close() {
	r.ctx.Close()
	r.iso.Dispose()
}

// jsToGoArg converts a V8 value to a Go reflect.Value of the expected type.
func jsToGoArg(val *v8.Value, targetType reflect.Type) reflect.Value {
	switch targetType.Kind() {
	case reflect.String:
		return reflect.ValueOf(val.String())
	case reflect.Int:
		return reflect.ValueOf(int(val.Integer()))
	case reflect.Int64:
		return reflect.ValueOf(val.Integer())
	case reflect.Float64:
		return reflect.ValueOf(val.Number())
	case reflect.Bool:
		return reflect.ValueOf(val.Boolean())
	default:
		return reflect.Zero(targetType)
	}
}

// goToJSValue converts a Go reflect.Value to a V8 value.
func goToJSValue(iso *v8.Isolate, val reflect.Value) *v8.Value {
	if !val.IsValid() {
		return nil
	}
	switch val.Kind() {
	case reflect.String:
		v, _ := v8.NewValue(iso, val.String())
		return v
	case reflect.Int, reflect.Int64, reflect.Int32:
		v, _ := v8.NewValue(iso, int32(val.Int()))
		return v
	case reflect.Float64, reflect.Float32:
		v, _ := v8.NewValue(iso, val.Float())
		return v
	case reflect.Bool:
		v, _ := v8.NewValue(iso, val.Bool())
		return v
	default:
		return nil
	}
}

// goAnyToJSValue converts a Go any value to a V8 value.
func goAnyToJSValue(iso *v8.Isolate, value any) (*v8.Value, error) {
	if value == nil {
		return v8.Undefined(iso), nil
	}
	switch v := value.(type) {
	case string:
		return v8.NewValue(iso, v)
	case int:
		return v8.NewValue(iso, int32(v))
	case int32:
		return v8.NewValue(iso, v)
	case int64:
		return v8.NewValue(iso, int32(v))
	case float64:
		return v8.NewValue(iso, v)
	case bool:
		return v8.NewValue(iso, v)
	case *v8.Value:
		return v, nil
	case *v8.Object:
		return v.Value, nil
	default:
		return nil, fmt.Errorf("unsupported global type %T", value)
	}
}
