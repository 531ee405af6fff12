package uijet

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestMappedSizes(t *testing.T) {
	tests := []struct {
		name         string
		fileSize     int64
		pageSize     int64
		trailingZero bool
		wantAligned  int64
		wantLogical  int64
	}{
		{"unaligned no terminator", 100, 4096, false, 4096, 100},
		{"unaligned with terminator", 100, 4096, true, 4096, 101},
		{"exact page no terminator", 4096, 4096, false, 4096, 4096},
		{"exact page terminator impossible", 4096, 4096, true, 4096, 4096},
		{"multi page unaligned", 5000, 4096, true, 8192, 5001},
		{"zero length", 0, 4096, false, 4096, 0},
		{"zero length with terminator", 0, 4096, true, 4096, 0},
		{"one byte", 1, 4096, true, 4096, 2},
		{"one below page", 4095, 4096, true, 4096, 4096},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			aligned, logical := mappedSizes(tt.fileSize, tt.pageSize, tt.trailingZero)
			if aligned != tt.wantAligned {
				t.Errorf("aligned = %d, want %d", aligned, tt.wantAligned)
			}
			if logical != tt.wantLogical {
				t.Errorf("logical = %d, want %d", logical, tt.wantLogical)
			}
			if aligned < tt.fileSize {
				t.Errorf("aligned %d < file size %d", aligned, tt.fileSize)
			}
			if logical > aligned {
				t.Errorf("logical %d > aligned %d", logical, aligned)
			}
		})
	}
}

func writeTempFile(t *testing.T, content []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "unit.js")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing temp file: %v", err)
	}
	return path
}

func TestMapFile_SourceGetsTerminator(t *testing.T) {
	content := []byte("globalThis.x = 1;")
	path := writeTempFile(t, content)

	buf, err := MapFile(path, true)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	defer buf.Close()

	if buf.PhysicalSize() != int64(len(content)) {
		t.Errorf("PhysicalSize = %d, want %d", buf.PhysicalSize(), len(content))
	}
	if buf.Size() != int64(len(content))+1 {
		t.Errorf("Size = %d, want %d", buf.Size(), len(content)+1)
	}
	if !buf.Terminated() {
		t.Error("Terminated = false, want true")
	}

	data := buf.Data()
	if string(data[:len(content)]) != string(content) {
		t.Errorf("content mismatch: %q", data[:len(content)])
	}
	if data[len(data)-1] != 0 {
		t.Errorf("last byte = %#x, want NUL", data[len(data)-1])
	}
}

func TestMapFile_BytecodeExactLength(t *testing.T) {
	content := []byte{0xDE, 0xAD, 0xBE, 0xEF, 0x00, 0x01}
	path := writeTempFile(t, content)

	buf, err := MapFile(path, false)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	defer buf.Close()

	if buf.Size() != int64(len(content)) {
		t.Errorf("Size = %d, want %d", buf.Size(), len(content))
	}
	if buf.Terminated() {
		t.Error("Terminated = true, want false")
	}
	if got := buf.Data(); len(got) != len(content) {
		t.Errorf("Data length = %d, want %d", len(got), len(content))
	}
}

func TestMapFile_EmptyFile(t *testing.T) {
	path := writeTempFile(t, nil)

	buf, err := MapFile(path, true)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	defer buf.Close()

	if buf.Size() != 0 {
		t.Errorf("Size = %d, want 0", buf.Size())
	}
	if buf.Terminated() {
		t.Error("empty file must not report a terminator")
	}
	if len(buf.Data()) != 0 {
		t.Errorf("Data length = %d, want 0", len(buf.Data()))
	}
}

func TestMapFile_Missing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.js")

	_, err := MapFile(path, true)
	if err == nil {
		t.Fatal("MapFile succeeded on missing file")
	}
	var re *ResourceError
	if !errors.As(err, &re) {
		t.Fatalf("error type = %T, want *ResourceError", err)
	}
	if re.Op != "open" {
		t.Errorf("Op = %q, want %q", re.Op, "open")
	}
	if re.Path != path {
		t.Errorf("Path = %q, want %q", re.Path, path)
	}
}

func TestMappedBuffer_DoubleClose(t *testing.T) {
	path := writeTempFile(t, []byte("x"))

	buf, err := MapFile(path, true)
	if err != nil {
		t.Fatalf("MapFile: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Errorf("first Close: %v", err)
	}
	if err := buf.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}
}
