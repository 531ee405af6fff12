package uijet

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

// fakeGraphics records backend calls. Texture handles count up from 1;
// toolkit handles from 100 so the two spaces can't be confused in
// assertions.
type fakeGraphics struct {
	setupErr error

	frames    int
	lastClear [4]float32

	overlayLines []string
	overlayRow   int

	nextTex     uint32
	created     []textureUpload
	destroyed   []TextureHandle
	nextImg     uint64
	registered  []TextureHandle
	unregistred []ImageHandle

	events   []Event
	shutdown bool
}

type textureUpload struct {
	width, height int
	pixels        []byte
}

func newFakeGraphics() *fakeGraphics {
	return &fakeGraphics{nextTex: 1, nextImg: 100}
}

func (g *fakeGraphics) Setup() error { return g.setupErr }

func (g *fakeGraphics) BeginFrame(width, height int, clear [4]float32) {
	g.frames++
	g.lastClear = clear
}

func (g *fakeGraphics) DrawOverlay(lines []string, row int) {
	g.overlayLines = lines
	g.overlayRow = row
}

func (g *fakeGraphics) EndFrame() {}

func (g *fakeGraphics) HandleEvent(ev Event) bool {
	g.events = append(g.events, ev)
	return false
}

func (g *fakeGraphics) CreateTexture(width, height int, rgba []byte) (TextureHandle, error) {
	g.created = append(g.created, textureUpload{width: width, height: height, pixels: rgba})
	h := TextureHandle(g.nextTex)
	g.nextTex++
	return h, nil
}

func (g *fakeGraphics) DestroyTexture(tex TextureHandle) {
	g.destroyed = append(g.destroyed, tex)
}

func (g *fakeGraphics) RegisterImage(tex TextureHandle) ImageHandle {
	g.registered = append(g.registered, tex)
	h := ImageHandle(g.nextImg)
	g.nextImg++
	return h
}

func (g *fakeGraphics) UnregisterImage(img ImageHandle) {
	g.unregistred = append(g.unregistred, img)
}

func (g *fakeGraphics) Shutdown() { g.shutdown = true }

func encodePNG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x), G: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encoding png: %v", err)
	}
	return buf.Bytes()
}

func TestImageRegistry_LoadFromFile(t *testing.T) {
	gfx := newFakeGraphics()
	reg := NewImageRegistry(gfx, nil)

	path := filepath.Join(t.TempDir(), "tex.png")
	if err := os.WriteFile(path, encodePNG(t, 3, 2), 0o644); err != nil {
		t.Fatalf("writing png: %v", err)
	}

	idx, err := reg.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if idx != 0 {
		t.Errorf("index = %d, want 0", idx)
	}
	if reg.Width(idx) != 3 || reg.Height(idx) != 2 {
		t.Errorf("size = %dx%d, want 3x2", reg.Width(idx), reg.Height(idx))
	}
	if len(gfx.created) != 1 {
		t.Fatalf("created %d textures, want 1", len(gfx.created))
	}
	if got := len(gfx.created[0].pixels); got != 3*2*4 {
		t.Errorf("uploaded %d bytes, want %d", got, 3*2*4)
	}
	if tk, ok := reg.Toolkit(idx); !ok || tk != 100 {
		t.Errorf("toolkit handle = %d/%v, want 100/true", tk, ok)
	}
}

func TestImageRegistry_LoadBuiltin(t *testing.T) {
	gfx := newFakeGraphics()
	reg := NewImageRegistry(gfx, map[string][]byte{
		"icon": encodePNG(t, 4, 4),
	})

	idx, err := reg.Load("icon")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if reg.Width(idx) != 4 {
		t.Errorf("Width = %d, want 4", reg.Width(idx))
	}
}

func TestImageRegistry_LoadMissing(t *testing.T) {
	reg := NewImageRegistry(newFakeGraphics(), nil)

	_, err := reg.Load(filepath.Join(t.TempDir(), "nope.png"))
	if err == nil {
		t.Fatal("Load succeeded on missing file")
	}
}

func TestImageRegistry_BadIndex(t *testing.T) {
	reg := NewImageRegistry(newFakeGraphics(), nil)

	if got := reg.Width(0); got != 0 {
		t.Errorf("Width(0) = %d, want 0", got)
	}
	if got := reg.Height(-1); got != 0 {
		t.Errorf("Height(-1) = %d, want 0", got)
	}
	if _, ok := reg.Toolkit(3); ok {
		t.Error("Toolkit(3) ok, want false")
	}
}

func TestImageRegistry_ReleaseAllOrder(t *testing.T) {
	gfx := newFakeGraphics()
	reg := NewImageRegistry(gfx, map[string][]byte{
		"a": encodePNG(t, 1, 1),
		"b": encodePNG(t, 1, 1),
	})

	if _, err := reg.Load("a"); err != nil {
		t.Fatalf("Load a: %v", err)
	}
	if _, err := reg.Load("b"); err != nil {
		t.Fatalf("Load b: %v", err)
	}

	reg.ReleaseAll()

	if len(gfx.unregistred) != 2 || len(gfx.destroyed) != 2 {
		t.Fatalf("released %d/%d, want 2/2", len(gfx.unregistred), len(gfx.destroyed))
	}
	// Toolkit handle goes before the texture backing it.
	if gfx.unregistred[0] != 100 || gfx.destroyed[0] != 1 {
		t.Errorf("first release = img %d, tex %d; want 100, 1", gfx.unregistred[0], gfx.destroyed[0])
	}
	if reg.Len() != 0 {
		t.Errorf("Len after release = %d, want 0", reg.Len())
	}
}
