package opengl

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"

	"github.com/uijet/uijet"
)

func init() {
	// GLFW must run on the main thread.
	runtime.LockOSThread()
}

// Run creates the native window from the session's projected configuration
// and drives the event loop until the window closes or the session's quit
// function fires. It blocks the calling goroutine and must be called from
// main.
func Run(session *uijet.Session) error {
	cfg := session.WindowConfig()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("glfw init: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	if cfg.SampleCount > 1 {
		glfw.WindowHint(glfw.Samples, cfg.SampleCount)
	}
	if cfg.Alpha {
		glfw.WindowHint(glfw.TransparentFramebuffer, glfw.True)
	}
	if cfg.HighDPI {
		glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.True)
	} else {
		glfw.WindowHint(glfw.CocoaRetinaFramebuffer, glfw.False)
	}

	width, height := cfg.Width, cfg.Height
	if width <= 0 {
		width = 640
	}
	if height <= 0 {
		height = 480
	}

	var monitor *glfw.Monitor
	if cfg.Fullscreen {
		monitor = glfw.GetPrimaryMonitor()
		if mode := monitor.GetVideoMode(); mode != nil {
			width, height = mode.Width, mode.Height
		}
	}

	window, err := glfw.CreateWindow(width, height, cfg.Title, monitor, nil)
	if err != nil {
		return fmt.Errorf("create window: %w", err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(cfg.SwapInterval)

	renderer := NewRenderer()
	session.Attach(renderer, func() { window.SetShouldClose(true) })

	installCallbacks(window, session, cfg)

	if err := session.Init(); err != nil {
		return err
	}

	for !window.ShouldClose() {
		glfw.PollEvents()
		w, h := window.GetFramebufferSize()
		session.Frame(w, h)
		window.SwapBuffers()
	}

	session.Cleanup()
	return nil
}

// installCallbacks wires GLFW input callbacks to session events. GLFW key
// codes and modifier bits already match the event model's values, so they
// pass through unmapped.
func installCallbacks(window *glfw.Window, session *uijet.Session, cfg uijet.WindowConfig) {
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
		typ := uijet.EventKeyDown
		if action == glfw.Release {
			typ = uijet.EventKeyUp
		}
		session.Event(uijet.Event{
			Type:      typ,
			KeyCode:   int(key),
			Modifiers: int(mods),
		})
	})

	window.SetCharCallback(func(w *glfw.Window, char rune) {
		session.Event(uijet.Event{Type: uijet.EventChar, KeyCode: int(char)})
	})

	window.SetMouseButtonCallback(func(w *glfw.Window, button glfw.MouseButton, action glfw.Action, mods glfw.ModifierKey) {
		typ := uijet.EventMouseDown
		if action == glfw.Release {
			typ = uijet.EventMouseUp
		}
		x, y := w.GetCursorPos()
		session.Event(uijet.Event{
			Type:      typ,
			KeyCode:   int(button),
			Modifiers: int(mods),
			MouseX:    x,
			MouseY:    y,
		})
	})

	window.SetCursorPosCallback(func(w *glfw.Window, xpos, ypos float64) {
		session.Event(uijet.Event{Type: uijet.EventMouseMove, MouseX: xpos, MouseY: ypos})
	})

	window.SetScrollCallback(func(w *glfw.Window, xoff, yoff float64) {
		session.Event(uijet.Event{Type: uijet.EventMouseScroll, ScrollX: xoff, ScrollY: yoff})
	})

	window.SetFramebufferSizeCallback(func(w *glfw.Window, width, height int) {
		session.Event(uijet.Event{Type: uijet.EventResized, MouseX: float64(width), MouseY: float64(height)})
	})

	window.SetFocusCallback(func(w *glfw.Window, focused bool) {
		typ := uijet.EventUnfocused
		if focused {
			typ = uijet.EventFocused
		}
		session.Event(uijet.Event{Type: typ})
	})

	if cfg.EnableDragNDrop {
		window.SetDropCallback(func(w *glfw.Window, names []string) {
			max := cfg.MaxDroppedFiles
			if max > 0 && len(names) > max {
				names = names[:max]
			}
			for _, name := range names {
				if cfg.MaxDroppedFilePathLength > 0 && len(name) > cfg.MaxDroppedFilePathLength {
					continue
				}
				session.Event(uijet.Event{Type: uijet.EventFilesDropped, Path: name})
			}
		})
	}
}
