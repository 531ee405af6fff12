package uijet

// TextureHandle names a GPU texture owned by the graphics backend.
type TextureHandle uint32

// ImageHandle names a toolkit-side image registration. Toolkit handles
// depend on their texture and are destroyed first.
type ImageHandle uint64

// Graphics is the narrow interface to the GPU device, the immediate-mode
// toolkit adapter, and the debug text overlay. Implementations live in
// backend packages; their internals (pipelines, passes, draw calls, glyph
// rendering) are outside this package's concern.
type Graphics interface {
	// Setup initializes the device, the toolkit adapter, and the overlay.
	// Called once from the session's init callback.
	Setup() error

	// BeginFrame starts a render pass clearing to the given RGBA color.
	BeginFrame(width, height int, clear [4]float32)

	// DrawOverlay renders debug text lines starting at the given
	// character-cell row.
	DrawOverlay(lines []string, row int)

	// EndFrame finishes the pass and commits it.
	EndFrame()

	// HandleEvent gives the toolkit adapter a chance to consume an input
	// event after the script layer has seen it.
	HandleEvent(ev Event) bool

	// CreateTexture uploads RGBA pixels and returns the texture handle.
	CreateTexture(width, height int, rgba []byte) (TextureHandle, error)

	// DestroyTexture releases a texture.
	DestroyTexture(h TextureHandle)

	// RegisterImage wraps a texture in a toolkit image handle.
	RegisterImage(tex TextureHandle) ImageHandle

	// UnregisterImage releases a toolkit image handle.
	UnregisterImage(h ImageHandle)

	// Shutdown tears down adapter, overlay, and device, in that order.
	Shutdown()
}
