package uijet

import "math"

// configGlobal is the global object scripts use to configure the window
// before it is created.
const configGlobal = "sappConfig"

// defaultWindowTitle is seeded into the config object at bootstrap so
// scripts can read as well as override it.
const defaultWindowTitle = "uijet"

// WindowConfig is the native window/graphics configuration derived from the
// script-side config object. It is built exactly once, before the window
// exists, and is immutable afterward — windowing systems fix these
// parameters at creation time.
type WindowConfig struct {
	Title                    string
	Width                    int
	Height                   int
	SampleCount              int
	SwapInterval             int
	ClipboardSize            int
	MaxDroppedFiles          int
	MaxDroppedFilePathLength int
	Fullscreen               bool
	HighDPI                  bool
	Alpha                    bool
	EnableClipboard          bool
	EnableDragNDrop          bool
}

func defaultWindowConfig() WindowConfig {
	return WindowConfig{
		Title:                    defaultWindowTitle,
		SampleCount:              1,
		SwapInterval:             1,
		ClipboardSize:            8192,
		MaxDroppedFiles:          1,
		MaxDroppedFilePathLength: 2048,
	}
}

// configReader is the narrow view of VM global state the projection needs.
// Each accessor reports presence strictly by JS type: a numeric field set
// to a boolean (or vice versa) counts as absent.
type configReader interface {
	HasConfig() bool
	NumberField(field string) (float64, bool)
	BoolField(field string) (bool, bool)
	StringField(field string) (string, bool)
}

// projectWindowConfig reads the script-side config object field by field.
// Missing fields, a missing object, and malformed values all degrade to
// defaults; nothing here fails.
func projectWindowConfig(r configReader) WindowConfig {
	cfg := defaultWindowConfig()
	if !r.HasConfig() {
		return cfg
	}

	if s, ok := r.StringField("title"); ok {
		// Copied into Go-owned storage by the string conversion itself;
		// the VM-side value may die after projection.
		cfg.Title = s
	}

	readInt := func(field string, dst *int, def int) {
		if v, ok := r.NumberField(field); ok {
			*dst = saturatingInt(v, def)
		}
	}
	readInt("width", &cfg.Width, 0)
	readInt("height", &cfg.Height, 0)
	readInt("sample_count", &cfg.SampleCount, 1)
	readInt("swap_interval", &cfg.SwapInterval, 1)
	readInt("clipboard_size", &cfg.ClipboardSize, 8192)
	readInt("max_dropped_files", &cfg.MaxDroppedFiles, 1)
	readInt("max_dropped_file_path_length", &cfg.MaxDroppedFilePathLength, 2048)

	readBool := func(field string, dst *bool) {
		if v, ok := r.BoolField(field); ok {
			*dst = v
		}
	}
	readBool("fullscreen", &cfg.Fullscreen)
	readBool("high_dpi", &cfg.HighDPI)
	readBool("alpha", &cfg.Alpha)
	readBool("enable_clipboard", &cfg.EnableClipboard)
	readBool("enable_dragndrop", &cfg.EnableDragNDrop)

	return cfg
}

// saturatingInt converts a JS number to a native int without undefined
// behavior: non-finite values fall back to the default, out-of-range values
// clamp to the 32-bit int bounds the windowing ABI expects.
func saturatingInt(v float64, def int) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return def
	}
	if v > math.MaxInt32 {
		return math.MaxInt32
	}
	if v < math.MinInt32 {
		return math.MinInt32
	}
	return int(v)
}
