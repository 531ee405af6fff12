//go:build unix

package uijet

import (
	"os"

	"golang.org/x/sys/unix"
)

// mapRegion memory-maps path read-only, page-rounded, private. The trailing
// zero comes for free from the kernel zero-filling the mapped tail beyond
// the file's last byte.
func mapRegion(path string, trailingZero bool) (*MappedBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &ResourceError{Op: "open", Path: path, Err: err}
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &ResourceError{Op: "stat", Path: path, Err: err}
	}

	fileSize := fi.Size()
	pageSize := int64(os.Getpagesize())
	aligned, logical := mappedSizes(fileSize, pageSize, trailingZero)

	data, err := unix.Mmap(int(f.Fd()), 0, int(aligned), unix.PROT_READ, unix.MAP_PRIVATE)
	if err != nil {
		f.Close()
		return nil, &ResourceError{Op: "map", Path: path, Err: err}
	}

	return &MappedBuffer{
		path:         path,
		data:         data,
		logicalSize:  logical,
		physicalSize: fileSize,
		unmap:        unix.Munmap,
		closeFile:    f.Close,
	}, nil
}
