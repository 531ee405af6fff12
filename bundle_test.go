package uijet

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNeedsBundling(t *testing.T) {
	tests := []struct {
		name   string
		source string
		want   bool
	}{
		{"plain script", "globalThis.on_frame = function() {};", false},
		{"import statement", "import { render } from './ui.js';", true},
		{"import braces", "import{render}from'./ui.js';", true},
		{"dynamic import", "const m = import('./ui.js');", true},
		{"require call", "const m = require('./ui.js');", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := needsBundling(tt.source); got != tt.want {
				t.Errorf("needsBundling(%q) = %v, want %v", tt.source, got, tt.want)
			}
		})
	}
}

func TestBundleScript_NoImports(t *testing.T) {
	src := "globalThis.on_init = function() { console.log('hi'); };"
	path := filepath.Join(t.TempDir(), "app.js")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("writing app: %v", err)
	}

	out, err := BundleScript(path)
	if err != nil {
		t.Fatalf("BundleScript: %v", err)
	}
	if out != src {
		t.Errorf("passthrough altered the source:\n%s", out)
	}
}

func TestBundleScript_WithImports(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lib.js"),
		[]byte("export function greet() { return 'hello'; }"), 0o644); err != nil {
		t.Fatalf("writing lib: %v", err)
	}
	entry := filepath.Join(dir, "app.js")
	if err := os.WriteFile(entry,
		[]byte("import { greet } from './lib.js';\nglobalThis.msg = greet();"), 0o644); err != nil {
		t.Fatalf("writing app: %v", err)
	}

	out, err := BundleScript(entry)
	if err != nil {
		t.Fatalf("BundleScript: %v", err)
	}
	if !strings.Contains(out, "hello") {
		t.Errorf("bundle missing inlined module:\n%s", out)
	}
	if strings.Contains(out, "import ") {
		t.Errorf("bundle still contains import statements:\n%s", out)
	}
}

func TestBundleScript_MissingFile(t *testing.T) {
	_, err := BundleScript(filepath.Join(t.TempDir(), "nope.js"))
	if err == nil {
		t.Fatal("BundleScript succeeded on missing file")
	}
	var re *ResourceError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *ResourceError", err)
	}
}

func TestBundleScript_UnresolvedImport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.js")
	if err := os.WriteFile(path,
		[]byte("import { x } from './does-not-exist.js';"), 0o644); err != nil {
		t.Fatalf("writing app: %v", err)
	}

	if _, err := BundleScript(path); err == nil {
		t.Fatal("BundleScript succeeded with unresolved import")
	}
}
