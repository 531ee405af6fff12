package uijet

// EventType identifies a native input event forwarded to the script layer
// and the widget toolkit.
type EventType int

const (
	EventInvalid EventType = iota
	EventKeyDown
	EventKeyUp
	EventChar
	EventMouseDown
	EventMouseUp
	EventMouseMove
	EventMouseScroll
	EventResized
	EventFocused
	EventUnfocused
	EventFilesDropped
)

// Modifier bits, matching the windowing backend's convention.
const (
	ModShift = 1 << 0
	ModCtrl  = 1 << 1
	ModAlt   = 1 << 2
	ModSuper = 1 << 3
)

// keyQ is the key code of the reserved quit gesture (Super+Q).
const keyQ = 81

// Event is a native input event. Scripts receive only the numeric
// type/key/modifier triple; the widget toolkit gets the full struct.
type Event struct {
	Type      EventType
	KeyCode   int
	Modifiers int
	MouseX    float64
	MouseY    float64
	ScrollX   float64
	ScrollY   float64
	Path      string // dropped file path, EventFilesDropped only
}
