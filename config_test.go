package uijet

import (
	"math"
	"testing"
)

// fakeConfigReader serves field lookups from maps, mimicking the strict
// per-type presence checks of the VM-backed reader.
type fakeConfigReader struct {
	present bool
	numbers map[string]float64
	bools   map[string]bool
	strings map[string]string
}

func (r *fakeConfigReader) HasConfig() bool { return r.present }

func (r *fakeConfigReader) NumberField(field string) (float64, bool) {
	v, ok := r.numbers[field]
	return v, ok
}

func (r *fakeConfigReader) BoolField(field string) (bool, bool) {
	v, ok := r.bools[field]
	return v, ok
}

func (r *fakeConfigReader) StringField(field string) (string, bool) {
	v, ok := r.strings[field]
	return v, ok
}

func TestProjectWindowConfig_NoConfigObject(t *testing.T) {
	cfg := projectWindowConfig(&fakeConfigReader{present: false})

	want := defaultWindowConfig()
	if cfg != want {
		t.Errorf("cfg = %+v, want defaults %+v", cfg, want)
	}
}

func TestProjectWindowConfig_AllFields(t *testing.T) {
	cfg := projectWindowConfig(&fakeConfigReader{
		present: true,
		numbers: map[string]float64{
			"width":                        1280,
			"height":                       720,
			"sample_count":                 4,
			"swap_interval":                2,
			"clipboard_size":               1024,
			"max_dropped_files":            8,
			"max_dropped_file_path_length": 512,
		},
		bools: map[string]bool{
			"fullscreen":       true,
			"high_dpi":         true,
			"alpha":            true,
			"enable_clipboard": true,
			"enable_dragndrop": true,
		},
		strings: map[string]string{"title": "demo"},
	})

	if cfg.Title != "demo" {
		t.Errorf("Title = %q, want %q", cfg.Title, "demo")
	}
	if cfg.Width != 1280 || cfg.Height != 720 {
		t.Errorf("size = %dx%d, want 1280x720", cfg.Width, cfg.Height)
	}
	if cfg.SampleCount != 4 || cfg.SwapInterval != 2 {
		t.Errorf("samples/swap = %d/%d, want 4/2", cfg.SampleCount, cfg.SwapInterval)
	}
	if cfg.ClipboardSize != 1024 || cfg.MaxDroppedFiles != 8 || cfg.MaxDroppedFilePathLength != 512 {
		t.Errorf("clipboard/dnd = %d/%d/%d", cfg.ClipboardSize, cfg.MaxDroppedFiles, cfg.MaxDroppedFilePathLength)
	}
	if !cfg.Fullscreen || !cfg.HighDPI || !cfg.Alpha || !cfg.EnableClipboard || !cfg.EnableDragNDrop {
		t.Errorf("bool fields not all set: %+v", cfg)
	}
}

func TestProjectWindowConfig_PartialOverride(t *testing.T) {
	cfg := projectWindowConfig(&fakeConfigReader{
		present: true,
		numbers: map[string]float64{"width": 300},
	})

	if cfg.Width != 300 {
		t.Errorf("Width = %d, want 300", cfg.Width)
	}
	if cfg.Title != defaultWindowTitle {
		t.Errorf("Title = %q, want default %q", cfg.Title, defaultWindowTitle)
	}
	if cfg.SampleCount != 1 || cfg.SwapInterval != 1 {
		t.Errorf("untouched fields changed: %+v", cfg)
	}
}

func TestProjectWindowConfig_BoolFieldGivenAsNumber(t *testing.T) {
	// A boolean field holding a JS number is typed wrong and counts as
	// absent: only the numbers map sees it, never the bools map.
	cfg := projectWindowConfig(&fakeConfigReader{
		present: true,
		numbers: map[string]float64{"fullscreen": 1},
	})

	if cfg.Fullscreen {
		t.Error("Fullscreen = true from a numeric value, want default false")
	}
}

func TestSaturatingInt(t *testing.T) {
	tests := []struct {
		name string
		v    float64
		def  int
		want int
	}{
		{"plain", 640, 0, 640},
		{"truncates fraction", 99.9, 0, 99},
		{"negative", -5, 0, -5},
		{"clamps high", 1e12, 0, math.MaxInt32},
		{"clamps low", -1e12, 0, math.MinInt32},
		{"max int32 exact", math.MaxInt32, 0, math.MaxInt32},
		{"nan falls back", math.NaN(), 17, 17},
		{"positive inf falls back", math.Inf(1), 17, 17},
		{"negative inf falls back", math.Inf(-1), 17, 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := saturatingInt(tt.v, tt.def); got != tt.want {
				t.Errorf("saturatingInt(%v, %d) = %d, want %d", tt.v, tt.def, got, tt.want)
			}
		})
	}
}

func TestProjectWindowConfig_NonFiniteNumbers(t *testing.T) {
	cfg := projectWindowConfig(&fakeConfigReader{
		present: true,
		numbers: map[string]float64{
			"width":        math.NaN(),
			"sample_count": math.Inf(1),
			"height":       1e11,
		},
	})

	if cfg.Width != 0 {
		t.Errorf("Width = %d, want field default 0", cfg.Width)
	}
	if cfg.SampleCount != 1 {
		t.Errorf("SampleCount = %d, want field default 1", cfg.SampleCount)
	}
	if cfg.Height != math.MaxInt32 {
		t.Errorf("Height = %d, want clamp to MaxInt32", cfg.Height)
	}
}
