package core

// ScriptError is a JavaScript exception surfaced at the VM boundary.
// It carries the exception message and, when the engine provides one,
// the script stack trace. Unit names the script unit or entry point
// that was being evaluated.
type ScriptError struct {
	Unit    string
	Message string
	Stack   string
}

func (e *ScriptError) Error() string {
	if e.Unit != "" {
		return "script error in " + e.Unit + ": " + e.Message
	}
	return "script error: " + e.Message
}
