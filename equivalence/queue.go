package equivalence

import (
	"fmt"

	"github.com/pku-liang/hestia/value"
)

// queue is a skewed value queue, one per equivalence mapping: values
// pushed from the ToR (high) side and the HEC (low) side are matched
// up in FIFO order, and a mismatch between them is a fatal error. The
// queue holds values from only one side at a time — high is true
// while it holds unmatched high-side values, false while it holds
// unmatched low-side values — so size() alone, signed by which side
// is currently backlogged, is enough for the coordinator to decide
// which side to advance next.
type queue struct {
	store []value.Value
	high  bool

	mapping Mapping
}

func newQueue(m Mapping) *queue {
	return &queue{high: true, mapping: m}
}

// size returns the backlog: positive when the high (ToR) side is
// ahead by that many unmatched values, negative when the low (HEC)
// side is ahead, zero when the queue is empty.
func (q *queue) size() int {
	if q.high {
		return len(q.store)
	}
	return -len(q.store)
}

// pushHigh folds in a value produced by the ToR side: extends the
// backlog if the queue is already high-side (or empty), otherwise
// pops the oldest low-side value and asserts the two match.
func (q *queue) pushHigh(v value.Value) {
	if q.high || len(q.store) == 0 {
		q.high = true
		q.store = append(q.store, v)
		return
	}
	want := q.store[0]
	q.store = q.store[1:]
	if !want.Equal(v) {
		q.fatal(want, v)
	}
}

// pushLow folds in a value produced by the HEC side, mirroring
// pushHigh with the sides reversed.
func (q *queue) pushLow(v value.Value) {
	if !q.high || len(q.store) == 0 {
		q.high = false
		q.store = append(q.store, v)
		return
	}
	want := q.store[0]
	q.store = q.store[1:]
	if !want.Equal(v) {
		q.fatal(want, v)
	}
}

func (q *queue) fatal(want, got value.Value) {
	panic(fmt.Sprintf(
		"equivalence: value mismatch: operation %q and primitive %q at state %q: want %s, got %s",
		q.mapping.Op, q.mapping.Primitive, q.mapping.End, want, got,
	))
}
