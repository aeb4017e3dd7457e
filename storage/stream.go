package storage

import (
	"github.com/sarchlab/akita/v4/sim"

	"github.com/pku-liang/hestia/value"
)

// valueMsg envelopes a Value so it can travel through an akita
// sim.Buffer, which requires every item to satisfy sim.Msg. The
// envelope carries nothing beyond what sim.MsgMeta already requires;
// it exists purely to satisfy the buffer's type contract, the same
// pattern the donor codebase uses for its own point-to-point buffers.
type valueMsg struct {
	sim.MsgMeta
	val value.Value
}

func (m *valueMsg) Meta() *sim.MsgMeta { return &m.MsgMeta }

func wrap(v value.Value) *valueMsg {
	return &valueMsg{MsgMeta: sim.MsgMeta{ID: sim.GetIDGenerator().Generate()}, val: v}
}

// Stream is a bounded FIFO of Value, the ToR-level "stream" construct
// connecting pipelined regions. It is backed by an akita sim.Buffer
// for capacity/back-pressure bookkeeping rather than a hand-rolled
// ring buffer.
type Stream struct {
	name string
	typ  string
	buf  sim.Buffer
}

// NewStream allocates a Stream with the given bounded capacity and
// element type.
func NewStream(name, typ string, capacity int) *Stream {
	return &Stream{
		name: name,
		typ:  typ,
		buf:  sim.NewBuffer(name, capacity),
	}
}

// Name returns the stream's declared name.
func (s *Stream) Name() string { return s.name }

// IsEmpty reports whether the stream holds no tokens.
func (s *Stream) IsEmpty() bool { return s.buf.Size() == 0 }

// IsFull reports whether the stream is at capacity.
func (s *Stream) IsFull() bool { return !s.buf.CanPush() }

// Push enqueues v, converted to the stream's element type. The caller
// must check IsFull first; pushing past capacity is a programming
// error in the engines (stream guards prevent it before stepping).
func (s *Stream) Push(v value.Value) {
	s.buf.Push(wrap(value.Convert(v, s.typ)))
}

// Pop dequeues and returns the head token, or Error if empty.
func (s *Stream) Pop() value.Value {
	item := s.buf.Pop()
	if item == nil {
		return value.Error
	}
	return item.(*valueMsg).val
}
