package uijet

import (
	"errors"
	"fmt"

	"github.com/uijet/uijet/internal/core"
)

// ScriptError is a JavaScript exception surfaced at the VM boundary.
type ScriptError = core.ScriptError

// ErrBootstrapContract reports that the foundational task-queue unit did
// not export callable peek/run primitives. The frame loop cannot run
// without them, so bootstrap fails before any window is created.
var ErrBootstrapContract = errors.New("task queue unit did not export callable peek/run")

// ResourceError reports a failed file open, stat, or map during unit
// loading. These are fatal at load time.
type ResourceError struct {
	Op   string // "open", "stat" or "map"
	Path string
	Err  error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ResourceError) Unwrap() error { return e.Err }
