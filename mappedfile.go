package uijet

// MappedBuffer is a read-only view of a file mapped into memory, sized for
// consumption by a script engine. The mapping is page-rounded; bytes past
// the file's real content up to the page boundary read as zero, which lets
// a source buffer gain a NUL terminator without copying: when requested and
// the file size is not page-aligned, the reported logical size is the file
// size plus one, with the terminator supplied by the zero-filled tail.
//
// A zero-length file maps a single page and never gets a terminator
// (0 mod pageSize == 0 counts as page-aligned). This is intentional.
type MappedBuffer struct {
	path         string
	data         []byte // aligned-size region
	logicalSize  int64
	physicalSize int64
	unmap        func([]byte) error
	closeFile    func() error
	closed       bool
}

// mappedSizes computes the page-rounded mapping size and the logical
// (reported) size for a file of the given size. alignedSize >= fileSize
// always holds; logical = fileSize+1 iff a trailing zero was requested and
// the file size is not a page-size multiple.
func mappedSizes(fileSize, pageSize int64, trailingZero bool) (aligned, logical int64) {
	aligned = (fileSize + pageSize - 1) / pageSize * pageSize
	if aligned == 0 {
		aligned = pageSize // mapping zero bytes is invalid
	}
	logical = fileSize
	if trailingZero && fileSize%pageSize != 0 {
		logical = fileSize + 1
	}
	return aligned, logical
}

// MapFile maps path read-only. With trailingZero set, the logical size
// includes a synthesized NUL terminator when the file size permits it
// (see the type comment). The returned buffer must stay open for the full
// lifetime of any consumer of Data().
func MapFile(path string, trailingZero bool) (*MappedBuffer, error) {
	return mapRegion(path, trailingZero)
}

// Size returns the logical size: the byte length consumers should read,
// including the synthesized terminator when present.
func (b *MappedBuffer) Size() int64 { return b.logicalSize }

// PhysicalSize returns the file's real length.
func (b *MappedBuffer) PhysicalSize() int64 { return b.physicalSize }

// Terminated reports whether the logical size includes a NUL terminator
// beyond the file content.
func (b *MappedBuffer) Terminated() bool { return b.logicalSize > b.physicalSize }

// Data returns the buffer contents, logicalSize bytes long. The slice is
// only valid until Close.
func (b *MappedBuffer) Data() []byte { return b.data[:b.logicalSize] }

// Close releases the mapping and the file handle. Safe to call more than
// once; both resources are released unconditionally, tolerating either
// being already gone.
func (b *MappedBuffer) Close() error {
	if b.closed {
		return nil
	}
	b.closed = true
	var firstErr error
	if b.unmap != nil {
		if err := b.unmap(b.data); err != nil {
			firstErr = err
		}
	}
	b.data = nil
	if b.closeFile != nil {
		if err := b.closeFile(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
