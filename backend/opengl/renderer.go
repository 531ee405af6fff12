// Package opengl provides a GLFW/OpenGL 4.1 windowing and rendering
// backend for uijet sessions.
package opengl

import (
	"fmt"

	"github.com/go-gl/gl/v4.1-core/gl"

	"github.com/uijet/uijet"
)

// Renderer implements uijet.Graphics on top of OpenGL. It owns the debug
// overlay's bitmap font and the texture objects backing script images.
type Renderer struct {
	shader    uint32
	vao, vbo  uint32
	fontTex   uint32
	screenLoc int32
	texLoc    int32

	width  int
	height int

	images    map[uijet.ImageHandle]uijet.TextureHandle
	nextImage uijet.ImageHandle
}

// Vertex shader: pixel coordinates in, normalized device coordinates out.
const vertexShaderSource = `
#version 410 core
layout (location = 0) in vec2 aPos;
layout (location = 1) in vec2 aTexCoord;

out vec2 TexCoord;

uniform vec2 screen;

void main() {
    vec2 ndc = vec2(aPos.x / screen.x * 2.0 - 1.0, 1.0 - aPos.y / screen.y * 2.0);
    gl_Position = vec4(ndc, 0.0, 1.0);
    TexCoord = aTexCoord;
}
` + "\x00"

// Fragment shader: the font atlas is alpha-only, stored in the R channel.
const fragmentShaderSource = `
#version 410 core
in vec2 TexCoord;

out vec4 FragColor;

uniform sampler2D fontTexture;

void main() {
    float a = texture(fontTexture, TexCoord).r;
    FragColor = vec4(1.0, 1.0, 1.0, a);
}
` + "\x00"

// NewRenderer creates a renderer. GL state is not touched until Setup,
// which must run with the context current.
func NewRenderer() *Renderer {
	return &Renderer{
		images:    make(map[uijet.ImageHandle]uijet.TextureHandle),
		nextImage: 1,
	}
}

// Setup initializes OpenGL, compiles the overlay shader, and uploads the
// font atlas. Must be called on the thread owning the GL context.
func (r *Renderer) Setup() error {
	if err := gl.Init(); err != nil {
		return fmt.Errorf("gl init: %w", err)
	}

	var err error
	r.shader, err = createShaderProgram(vertexShaderSource, fragmentShaderSource)
	if err != nil {
		return fmt.Errorf("overlay shader: %w", err)
	}

	r.screenLoc = gl.GetUniformLocation(r.shader, gl.Str("screen\x00"))
	r.texLoc = gl.GetUniformLocation(r.shader, gl.Str("fontTexture\x00"))

	gl.GenVertexArrays(1, &r.vao)
	gl.BindVertexArray(r.vao)

	gl.GenBuffers(1, &r.vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)

	// Vertex layout: Pos (2 floats) + TexCoord (2 floats).
	stride := int32(4 * 4)
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, stride, 0)
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, stride, 8)
	gl.EnableVertexAttribArray(1)

	gl.BindVertexArray(0)

	r.fontTex = createFontTexture()
	return nil
}

// BeginFrame starts a render pass with the given clear color.
func (r *Renderer) BeginFrame(width, height int, clear [4]float32) {
	r.width = width
	r.height = height

	gl.Viewport(0, 0, int32(width), int32(height))
	gl.ClearColor(clear[0], clear[1], clear[2], clear[3])
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
}

// DrawOverlay renders the debug overlay lines starting at the given 8px
// text row.
func (r *Renderer) DrawOverlay(lines []string, row int) {
	if len(lines) == 0 {
		return
	}

	var verts []float32
	for i, line := range lines {
		y := float32((row + i) * glyphSize)
		x := float32(0)
		for j := 0; j < len(line); j++ {
			c := line[j]
			if c < ' ' || c > '~' {
				c = '?'
			}
			verts = appendGlyph(verts, x, y, c)
			x += glyphSize
		}
	}
	if len(verts) == 0 {
		return
	}

	gl.UseProgram(r.shader)
	gl.Uniform2f(r.screenLoc, float32(r.width), float32(r.height))
	gl.Uniform1i(r.texLoc, 0)

	gl.ActiveTexture(gl.TEXTURE0)
	gl.BindTexture(gl.TEXTURE_2D, r.fontTex)

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*4, gl.Ptr(verts), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(verts)/4))
	gl.BindVertexArray(0)
}

// EndFrame completes the render pass. Buffer swap happens in the window
// loop, not here.
func (r *Renderer) EndFrame() {}

// HandleEvent is the toolkit adaptation point. The bare renderer consumes
// nothing.
func (r *Renderer) HandleEvent(ev uijet.Event) bool { return false }

// CreateTexture uploads RGBA pixels into a new GL texture.
func (r *Renderer) CreateTexture(width, height int, rgba []byte) (uijet.TextureHandle, error) {
	if len(rgba) < width*height*4 {
		return 0, fmt.Errorf("texture %dx%d: short pixel data (%d bytes)", width, height, len(rgba))
	}

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(width), int32(height), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	return uijet.TextureHandle(tex), nil
}

// DestroyTexture releases a GL texture.
func (r *Renderer) DestroyTexture(tex uijet.TextureHandle) {
	id := uint32(tex)
	gl.DeleteTextures(1, &id)
}

// RegisterImage hands out a toolkit-level handle for a texture.
func (r *Renderer) RegisterImage(tex uijet.TextureHandle) uijet.ImageHandle {
	h := r.nextImage
	r.nextImage++
	r.images[h] = tex
	return h
}

// UnregisterImage drops a toolkit-level handle.
func (r *Renderer) UnregisterImage(img uijet.ImageHandle) {
	delete(r.images, img)
}

// Shutdown releases all GL objects owned by the renderer.
func (r *Renderer) Shutdown() {
	if r.fontTex != 0 {
		gl.DeleteTextures(1, &r.fontTex)
		r.fontTex = 0
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
	if r.shader != 0 {
		gl.DeleteProgram(r.shader)
		r.shader = 0
	}
}

// appendGlyph emits two triangles for one glyph quad at pixel position
// (x, y), sampling the glyph's cell in the font atlas.
func appendGlyph(verts []float32, x, y float32, c byte) []float32 {
	idx := int(c - ' ')
	col := idx % atlasCols
	row := idx / atlasCols

	u0 := float32(col*glyphSize) / atlasWidth
	v0 := float32(row*glyphSize) / atlasHeight
	u1 := u0 + glyphSize/atlasWidth
	v1 := v0 + glyphSize/atlasHeight

	x1 := x + glyphSize
	y1 := y + glyphSize

	return append(verts,
		x, y, u0, v0,
		x1, y, u1, v0,
		x1, y1, u1, v1,

		x, y, u0, v0,
		x1, y1, u1, v1,
		x, y1, u0, v1,
	)
}

func createShaderProgram(vertexSrc, fragmentSrc string) (uint32, error) {
	compile := func(kind uint32, src string) (uint32, error) {
		shader := gl.CreateShader(kind)
		csrc, free := gl.Strs(src)
		gl.ShaderSource(shader, 1, csrc, nil)
		free()
		gl.CompileShader(shader)

		var status int32
		gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
		if status == gl.FALSE {
			var logLength int32
			gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
			log := make([]byte, logLength+1)
			gl.GetShaderInfoLog(shader, logLength, nil, &log[0])
			gl.DeleteShader(shader)
			return 0, fmt.Errorf("compile: %s", log)
		}
		return shader, nil
	}

	vs, err := compile(gl.VERTEX_SHADER, vertexSrc)
	if err != nil {
		return 0, err
	}
	fs, err := compile(gl.FRAGMENT_SHADER, fragmentSrc)
	if err != nil {
		gl.DeleteShader(vs)
		return 0, err
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	gl.DeleteShader(vs)
	gl.DeleteShader(fs)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(program, logLength, nil, &log[0])
		gl.DeleteProgram(program)
		return 0, fmt.Errorf("link: %s", log)
	}

	return program, nil
}
