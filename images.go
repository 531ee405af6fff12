package uijet

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"log"
	"os"

	// Decoder registrations: stdlib PNG/JPEG plus the extended formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// imageResource pairs the decoded dimensions with the two native handles
// backing a loaded image.
type imageResource struct {
	width, height int
	tex           TextureHandle
	toolkit       ImageHandle
}

// ImageRegistry owns all images loaded by the script layer, keyed by
// insertion index. Single-threaded, like everything else in the frame
// path.
type ImageRegistry struct {
	gfx     Graphics
	images  []*imageResource
	builtin map[string][]byte
}

// NewImageRegistry creates a registry uploading through gfx. builtin maps
// names to compiled-in encoded images, consulted before the filesystem.
func NewImageRegistry(gfx Graphics, builtin map[string][]byte) *ImageRegistry {
	return &ImageRegistry{gfx: gfx, builtin: builtin}
}

// Load decodes the named image (a builtin name or a file path), uploads it,
// registers it with the toolkit, and returns its index.
func (reg *ImageRegistry) Load(name string) (int, error) {
	data, ok := reg.builtin[name]
	if !ok {
		var err error
		data, err = os.ReadFile(name)
		if err != nil {
			return 0, &ResourceError{Op: "open", Path: name, Err: err}
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return 0, fmt.Errorf("decoding image %s: %w", name, err)
	}

	b := img.Bounds()
	rgba := image.NewNRGBA(b)
	draw.Draw(rgba, b, img, b.Min, draw.Src)

	tex, err := reg.gfx.CreateTexture(b.Dx(), b.Dy(), rgba.Pix)
	if err != nil {
		return 0, fmt.Errorf("uploading image %s: %w", name, err)
	}

	reg.images = append(reg.images, &imageResource{
		width:   b.Dx(),
		height:  b.Dy(),
		tex:     tex,
		toolkit: reg.gfx.RegisterImage(tex),
	})
	return len(reg.images) - 1, nil
}

// Width returns the pixel width of the image at index, or 0 with a log
// line when the index is invalid.
func (reg *ImageRegistry) Width(index int) int {
	r := reg.at(index)
	if r == nil {
		return 0
	}
	return r.width
}

// Height returns the pixel height of the image at index, or 0 with a log
// line when the index is invalid.
func (reg *ImageRegistry) Height(index int) int {
	r := reg.at(index)
	if r == nil {
		return 0
	}
	return r.height
}

// Toolkit returns the toolkit-side handle for the image at index.
func (reg *ImageRegistry) Toolkit(index int) (ImageHandle, bool) {
	r := reg.at(index)
	if r == nil {
		return 0, false
	}
	return r.toolkit, true
}

// Len returns the number of loaded images.
func (reg *ImageRegistry) Len() int { return len(reg.images) }

func (reg *ImageRegistry) at(index int) *imageResource {
	if index < 0 || index >= len(reg.images) {
		log.Printf("uijet: invalid image index %d", index)
		return nil
	}
	return reg.images[index]
}

// ReleaseAll destroys every image, each in reverse dependency order: the
// toolkit handle before the texture it wraps.
func (reg *ImageRegistry) ReleaseAll() {
	for _, r := range reg.images {
		reg.gfx.UnregisterImage(r.toolkit)
		reg.gfx.DestroyTexture(r.tex)
	}
	reg.images = nil
}
