// File: internal/capture/buffer.go
package capture

import (
	"sync"
	"time"

	"github.com/xkilldash9x/caseforge-cli/api/schemas"
)

// Buffer is the append-only interaction log of one recording session.
// Browser events arrive on engine goroutines, so appends are serialized by
// mu; the timestamp is taken under the same lock, which makes append order
// and timestamp order identical.
type Buffer struct {
	mu     sync.Mutex
	start  time.Time
	last   int64
	items  []schemas.Interaction
	sealed bool

	// now is replaceable in tests.
	now func() time.Time
}

// NewBuffer starts a buffer whose timestamps are relative to now.
func NewBuffer() *Buffer {
	b := &Buffer{now: time.Now}
	b.start = b.now()
	return b
}

// Append timestamps detail and adds it. It reports false once the buffer is sealed.
func (b *Buffer) Append(detail schemas.Detail) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed {
		return false
	}

	// time.Sub uses the monotonic reading; the clamp covers clocks without one.
	ts := b.now().Sub(b.start).Milliseconds()
	if ts < b.last {
		ts = b.last
	}
	b.last = ts
	b.items = append(b.items, schemas.Interaction{Timestamp: ts, Detail: detail})
	return true
}

// Len returns the number of captured interactions.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Snapshot returns a copy of the captured interactions.
func (b *Buffer) Snapshot() []schemas.Interaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]schemas.Interaction, len(b.items))
	copy(out, b.items)
	return out
}

// Seal stops accepting appends and returns the final contents.
// Sealing twice returns the same contents.
func (b *Buffer) Seal() []schemas.Interaction {
	b.mu.Lock()
	b.sealed = true
	b.mu.Unlock()
	return b.Snapshot()
}
