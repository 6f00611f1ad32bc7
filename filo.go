package gdx

import (
	"fmt"

	"github.com/ctessum/gdx/gdxerr"
)

// FiLo is the fixed-capacity ring-buffer frontier queue shared by every
// flood-fill kernel in gdx/algo (spec §4.3). Its capacity is sized to
// rows*cols+1 cells for the lifetime of a single kernel call and reused
// across that call's own sub-calls to amortise allocation; it never
// grows. Despite the name (a holdover from the original library, short
// for "first-in, last-out buffer capacity"), it is used as a FIFO
// frontier: PushBack enqueues, PopHead dequeues.
type FiLo struct {
	buf   []Cell
	head  int
	count int
}

// NewFiLo allocates a FiLo sized for a raster of the given rows/cols.
func NewFiLo(rows, cols int32) *FiLo {
	return &FiLo{buf: make([]Cell, int64(rows)*int64(cols)+1)}
}

// Clear empties the queue without releasing its backing array.
func (f *FiLo) Clear() {
	f.head = 0
	f.count = 0
}

// Empty reports whether the queue holds no cells.
func (f *FiLo) Empty() bool { return f.count == 0 }

// Size returns the number of cells currently queued.
func (f *FiLo) Size() int { return f.count }

// PushBack enqueues c. Exceeding the queue's fixed capacity is a
// RuntimeError: under the relaxation invariants of every kernel that
// uses a FiLo, each cell transitions Todo->Border->Done a bounded
// number of times, so overflow indicates a bug in the caller rather
// than a legitimately large workload.
func (f *FiLo) PushBack(c Cell) error {
	if f.count == len(f.buf) {
		return fmt.Errorf("gdx: FiLo.PushBack: %w: queue at capacity %d", gdxerr.RuntimeError, len(f.buf))
	}
	tail := (f.head + f.count) % len(f.buf)
	f.buf[tail] = c
	f.count++
	return nil
}

// PopHead dequeues and returns the oldest pushed cell. Calling PopHead
// on an empty queue panics; callers must check Empty first, matching
// every flood-fill kernel's own "for !queue.Empty()" loop shape.
func (f *FiLo) PopHead() Cell {
	if f.count == 0 {
		panic("gdx: FiLo.PopHead: queue is empty")
	}
	c := f.buf[f.head]
	f.head = (f.head + 1) % len(f.buf)
	f.count--
	return c
}
