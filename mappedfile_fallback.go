//go:build !unix

package uijet

import (
	"io"
	"os"
)

// mapRegion on platforms without a zero-filling mmap primitive: allocate a
// page-rounded, zeroed buffer and copy the file into it. Sizing semantics
// are identical to the mapped path, including the synthesized terminator.
func mapRegion(path string, trailingZero bool) (*MappedBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ResourceError{Op: "open", Path: path, Err: err}
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return nil, &ResourceError{Op: "stat", Path: path, Err: err}
	}

	fileSize := fi.Size()
	pageSize := int64(os.Getpagesize())
	aligned, logical := mappedSizes(fileSize, pageSize, trailingZero)

	data := make([]byte, aligned)
	if _, err := io.ReadFull(f, data[:fileSize]); err != nil {
		return nil, &ResourceError{Op: "map", Path: path, Err: err}
	}

	return &MappedBuffer{
		path:         path,
		data:         data,
		logicalSize:  logical,
		physicalSize: fileSize,
	}, nil
}
