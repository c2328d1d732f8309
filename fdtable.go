package dbus

import (
	"fmt"
	"os"
	"sync"
)

// FDTable resolves the UnixFd indices the codec reads and writes to
// real file descriptors. The codec itself never touches an *os.File:
// it only carries an index in the wire payload, and a Reader or
// Writer's caller pairs that index against the out-of-band fd list
// carried alongside a D-Bus message by consulting an FDTable.
//
// The zero value is an empty table ready to use. An FDTable is safe
// for concurrent use.
type FDTable struct {
	mu    sync.Mutex
	files []*os.File
}

// Put appends f to the table and returns the index a codec.WriteCursor
// should write with WriteUnixFd.
func (t *FDTable) Put(f *os.File) uint32 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.files = append(t.files, f)
	return uint32(len(t.files) - 1)
}

// Get resolves an index read from a codec.ReadCursor's ReadUnixFd back
// to the file it names.
func (t *FDTable) Get(index uint32) (*os.File, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(index) >= len(t.files) {
		return nil, false
	}
	return t.files[index], true
}

// Len reports how many descriptors the table currently holds.
func (t *FDTable) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.files)
}

// Close closes every descriptor in the table.
func (t *FDTable) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	var firstErr error
	for i, f := range t.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing fd %d: %w", i, err)
		}
	}
	t.files = nil
	return firstErr
}
