package uijet

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Options configures a session: which application unit to load and how.
type Options struct {
	// AppPath is the application unit on disk. Ignored when NativeUnit is
	// set.
	AppPath string `toml:"app_path"`

	// Bytecode marks AppPath as precompiled engine bytecode rather than
	// source text.
	Bytecode bool `toml:"bytecode"`

	// SourceURL overrides the diagnostic name used in stack traces.
	// Defaults to AppPath.
	SourceURL string `toml:"source_url"`

	// TaskQueuePath optionally replaces the built-in foundational
	// task-queue unit. The unit must assign its peek/run exports to the
	// documented global (see taskQueueGlobal).
	TaskQueuePath string `toml:"task_queue_path"`

	// Bundle runs the source unit through esbuild before evaluation so the
	// application may be authored as ES modules. Source mode only.
	Bundle bool `toml:"bundle"`

	// Development sets process.env.NODE_ENV to "development" instead of
	// "production".
	Development bool `toml:"development"`

	// MemoryLimitMB bounds the VM heap when positive.
	MemoryLimitMB int `toml:"memory_limit_mb"`

	// NativeUnit is a unit compiled into the binary, evaluated instead of
	// AppPath. Not representable in an options file.
	NativeUnit NativeUnit `toml:"-"`
}

// LoadOptions reads Options from a TOML file.
func LoadOptions(path string) (Options, error) {
	var opts Options
	if _, err := toml.DecodeFile(path, &opts); err != nil {
		return Options{}, fmt.Errorf("loading options %s: %w", path, err)
	}
	return opts, nil
}
