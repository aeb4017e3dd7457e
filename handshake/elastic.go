package handshake

import "github.com/pku-liang/hestia/value"

// TEHB is a transparent-elastic half-buffer: a 1-deep back-pressure
// absorber. Input-ready is "!full"; the output carries the incoming
// token straight through while empty, and the latched token while
// full.
type TEHB struct {
	DataIn, DataOut HandshakeValue
	full, data      *Reg
}

// NewTEHB returns an empty, not-full TEHB.
func NewTEHB() *TEHB {
	return &TEHB{full: NewReg(value.Bool(false)), data: NewReg(value.Error)}
}

func (t *TEHB) SetValue(port string, v HandshakeValue) {
	switch port {
	case "data_in":
		t.DataIn = v
	case "data_out":
		t.DataOut = v
	}
}

func (t *TEHB) GetValue(port string) HandshakeValue {
	switch port {
	case "data_in":
		return t.DataIn
	case "data_out":
		return t.DataOut
	}
	return HandshakeValue{}
}

func (t *TEHB) IsValid() bool { return t.DataIn.Valid || t.DataOut.Valid }

// Ready reports whether the buffer can currently accept a new token,
// read directly off the full register rather than the data_in port
// (which only reflects the last Propagate call).
func (t *TEHB) Ready() bool { return !t.full.Get().AsBool() }

func (t *TEHB) Propagate() []string {
	var changed []string
	full := t.full.Get().AsBool()
	if t.DataIn.SetReady(!full) {
		changed = append(changed, "data_in")
	}
	regEnable := t.DataIn.Ready && t.DataIn.Valid && !t.DataOut.Ready
	t.data.SetEnable(regEnable, t.DataIn.Data)
	out := t.DataIn.Data
	if full {
		out = t.data.Get()
	}
	if t.DataOut.SetValid(t.DataIn.Valid || full, out) {
		changed = append(changed, "data_out")
	}
	t.full.SetEnable(true, value.Bool(t.DataOut.Valid && !t.DataOut.Ready))
	return changed
}

func (t *TEHB) Update() bool {
	a := t.full.Update()
	b := t.data.Update()
	return a || b
}

// OEHB is an opaque-elastic half-buffer: a 1-deep forward-pressure
// absorber that adds one cycle of latency.
type OEHB struct {
	DataIn, DataOut HandshakeValue
	full, data      *Reg
}

// NewOEHB returns an empty, not-full OEHB.
func NewOEHB() *OEHB {
	return &OEHB{full: NewReg(value.Bool(false)), data: NewReg(value.Error)}
}

func (o *OEHB) SetValue(port string, v HandshakeValue) {
	switch port {
	case "data_in":
		o.DataIn = v
	case "data_out":
		o.DataOut = v
	}
}

func (o *OEHB) GetValue(port string) HandshakeValue {
	switch port {
	case "data_in":
		return o.DataIn
	case "data_out":
		return o.DataOut
	}
	return HandshakeValue{}
}

func (o *OEHB) IsValid() bool { return o.DataIn.Valid || o.DataOut.Valid }

func (o *OEHB) Propagate() []string {
	var changed []string
	full := o.full.Get().AsBool()
	if o.DataIn.SetReady(!full || o.DataOut.Ready) {
		changed = append(changed, "data_in")
	}
	o.data.SetEnable(o.DataIn.Ready && o.DataIn.Valid, o.DataIn.Data)
	o.full.SetEnable(true, value.Bool(o.DataIn.Valid || !o.DataIn.Ready))
	if o.DataOut.SetValid(full, o.data.Get()) {
		changed = append(changed, "data_out")
	}
	return changed
}

func (o *OEHB) Update() bool {
	a := o.full.Update()
	b := o.data.Update()
	return a || b
}

// ElasticBuffer chains a TEHB into an OEHB for full-rate decoupling of
// producer and consumer.
type ElasticBuffer struct {
	DataIn, DataOut HandshakeValue
	tehb            *TEHB
	oehb            *OEHB
}

// NewElasticBuffer returns an empty ElasticBuffer.
func NewElasticBuffer() *ElasticBuffer {
	return &ElasticBuffer{tehb: NewTEHB(), oehb: NewOEHB()}
}

func (b *ElasticBuffer) SetValue(port string, v HandshakeValue) {
	switch port {
	case "data_in":
		b.DataIn = v
	case "data_out":
		b.DataOut = v
	}
}

func (b *ElasticBuffer) GetValue(port string) HandshakeValue {
	switch port {
	case "data_in":
		return b.DataIn
	case "data_out":
		return b.DataOut
	}
	return HandshakeValue{}
}

func (b *ElasticBuffer) IsValid() bool { return b.DataIn.Valid || b.DataOut.Valid || b.tehb.IsValid() || b.oehb.IsValid() }

func (b *ElasticBuffer) Propagate() []string {
	if b.tehb.DataIn.SetValidFrom(b.DataIn) || b.tehb.DataOut.SetReady(b.oehb.DataIn.Ready) {
		b.tehb.Propagate()
	}
	if b.oehb.DataOut.SetReadyFrom(b.DataOut) || b.oehb.DataIn.SetValidFrom(b.tehb.DataOut) {
		b.oehb.Propagate()
	}
	var changed []string
	if b.DataIn.SetReadyFrom(b.tehb.DataIn) {
		changed = append(changed, "data_in")
	}
	if b.DataOut.SetValidFrom(b.oehb.DataOut) {
		changed = append(changed, "data_out")
	}
	return changed
}

func (b *ElasticBuffer) Update() bool {
	flag := false
	if b.tehb.Update() {
		b.tehb.Propagate()
		flag = true
	}
	if b.oehb.Update() {
		b.oehb.Propagate()
		flag = true
	}
	return flag
}

// ElasticFIFO is a depth-deep queue with valid/ready handshaking on
// both ends: it enqueues when valid && ready_in and dequeues when
// valid_out && ready.
type ElasticFIFO struct {
	DataIn, DataOut HandshakeValue
	depth           int
	buf             []value.Value
}

// NewElasticFIFO returns an empty FIFO of the given depth.
func NewElasticFIFO(depth int) *ElasticFIFO {
	return &ElasticFIFO{depth: depth}
}

func (f *ElasticFIFO) SetValue(port string, v HandshakeValue) {
	switch port {
	case "data_in":
		f.DataIn = v
	case "data_out":
		f.DataOut = v
	}
}

func (f *ElasticFIFO) GetValue(port string) HandshakeValue {
	switch port {
	case "data_in":
		return f.DataIn
	case "data_out":
		return f.DataOut
	}
	return HandshakeValue{}
}

func (f *ElasticFIFO) IsValid() bool { return f.DataIn.Valid || f.DataOut.Valid || len(f.buf) > 0 }

func (f *ElasticFIFO) Propagate() []string {
	var changed []string
	if f.DataIn.SetReady(len(f.buf) < f.depth) {
		changed = append(changed, "data_in")
	}
	out := value.Error
	if len(f.buf) > 0 {
		out = f.buf[0]
	}
	if f.DataOut.SetValid(len(f.buf) > 0, out) {
		changed = append(changed, "data_out")
	}
	return changed
}

func (f *ElasticFIFO) Update() bool {
	changed := false
	if f.DataOut.Valid && f.DataOut.Ready {
		f.buf = f.buf[1:]
		changed = true
	}
	if f.DataIn.Valid && f.DataIn.Ready {
		f.buf = append(f.buf, f.DataIn.Data)
		changed = true
	}
	return changed
}

// Trunc is a passthrough that narrows its input data to Bool.
type Trunc struct {
	DataIn, DataOut HandshakeValue
}

func (t *Trunc) SetValue(port string, v HandshakeValue) {
	switch port {
	case "data_in":
		t.DataIn = v
	case "data_out":
		t.DataOut = v
	}
}

func (t *Trunc) GetValue(port string) HandshakeValue {
	switch port {
	case "data_in":
		return t.DataIn
	case "data_out":
		return t.DataOut
	}
	return HandshakeValue{}
}

func (t *Trunc) IsValid() bool { return t.DataIn.Valid || t.DataOut.Valid }

func (t *Trunc) Propagate() []string {
	var changed []string
	if t.DataOut.SetValid(t.DataIn.Valid, value.Bool(t.DataIn.Data.AsBool())) {
		changed = append(changed, "data_out")
	}
	if t.DataIn.SetReadyFrom(t.DataOut) {
		changed = append(changed, "data_in")
	}
	return changed
}

func (t *Trunc) Update() bool { return false }

// ConstantElastic is a value source gated by a control-valid input:
// it emits Literal whenever control is valid and ready is asserted.
type ConstantElastic struct {
	Control, DataOut HandshakeValue
	Literal          value.Value
}

func (c *ConstantElastic) SetValue(port string, v HandshakeValue) {
	switch port {
	case "control":
		c.Control = v
	case "data_out":
		c.DataOut = v
	}
}

func (c *ConstantElastic) GetValue(port string) HandshakeValue {
	switch port {
	case "control":
		return c.Control
	case "data_out":
		return c.DataOut
	}
	return HandshakeValue{}
}

func (c *ConstantElastic) IsValid() bool { return c.Control.Valid || c.DataOut.Valid }

func (c *ConstantElastic) Propagate() []string {
	var changed []string
	if c.DataOut.SetValid(c.Control.Valid, c.Literal) {
		changed = append(changed, "data_out")
	}
	if c.Control.SetReadyFrom(c.DataOut) {
		changed = append(changed, "control")
	}
	return changed
}

func (c *ConstantElastic) Update() bool { return false }
