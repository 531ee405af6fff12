package uijet

import (
	"log"

	"github.com/uijet/uijet/internal/core"
)

// NativeUnit is a precompiled script unit evaluated directly against the
// runtime, with no file I/O. Embedders use it for units compiled into the
// binary.
type NativeUnit func(rt core.JSRuntime) error

// Unit is a loaded script unit together with the mapped buffers backing it.
// The buffers must stay mapped for as long as the VM may reference the
// evaluated code, so units are closed only at session shutdown.
type Unit struct {
	Name      string
	buf       *MappedBuffer
	sourceMap *MappedBuffer
}

// SourceMap returns the raw source map bytes, or nil when the unit loaded
// without one. Neither engine consumes source maps during evaluation; the
// bytes are kept available for stack-trace remapping by tooling.
func (u *Unit) SourceMap() []byte {
	if u.sourceMap == nil {
		return nil
	}
	return u.sourceMap.Data()
}

// Close releases the unit's mapped buffers.
func (u *Unit) Close() {
	if u.buf != nil {
		u.buf.Close()
		u.buf = nil
	}
	if u.sourceMap != nil {
		u.sourceMap.Close()
		u.sourceMap = nil
	}
}

// LoadUnit evaluates one script unit into the runtime's global environment.
//
// A non-nil native unit is evaluated directly. Otherwise the unit is
// memory-mapped from path: bytecode with no trailing zero (binary, exact
// length matters), source with a trailing zero (NUL-expecting parsers) plus
// an optional <path>.map sibling, also with a trailing zero. A missing
// source map is logged and ignored; every other failure propagates.
// sourceURL, when non-empty, is the diagnostic name used in stack traces.
func LoadUnit(rt core.JSRuntime, native NativeUnit, bytecode bool, path, sourceURL string) (*Unit, error) {
	name := sourceURL
	if name == "" {
		name = path
	}

	if native != nil {
		if err := native(rt); err != nil {
			return nil, err
		}
		log.Printf("uijet: loaded native unit %q", name)
		return &Unit{Name: name}, nil
	}

	if bytecode {
		buf, err := MapFile(path, false)
		if err != nil {
			return nil, err
		}
		if err := rt.EvalBuffer(buf.Data(), name, true); err != nil {
			buf.Close()
			return nil, err
		}
		log.Printf("uijet: loaded unit %q from bytecode (%d bytes)", name, buf.Size())
		return &Unit{Name: name, buf: buf}, nil
	}

	buf, err := MapFile(path, true)
	if err != nil {
		return nil, err
	}

	mapPath := path + ".map"
	sourceMap, err := MapFile(mapPath, true)
	if err != nil {
		log.Printf("uijet: source map not found: %v", err)
		sourceMap = nil
	} else {
		log.Printf("uijet: loaded source map %q", mapPath)
	}

	if err := rt.EvalBuffer(buf.Data(), name, false); err != nil {
		buf.Close()
		if sourceMap != nil {
			sourceMap.Close()
		}
		return nil, err
	}
	log.Printf("uijet: loaded unit %q from source (%d bytes)", name, buf.Size())
	return &Unit{Name: name, buf: buf, sourceMap: sourceMap}, nil
}
