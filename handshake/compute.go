package handshake

import "github.com/pku-liang/hestia/value"

// BinaryFunc computes a result from two operand values; it is the
// hook compute ops bind to a concrete arithmetic/comparison operator.
type BinaryFunc func(a, b value.Value) value.Value

// BinaryUnit is a combinational, zero-latency binary operator: result
// is valid exactly when both operands are, and each operand's ready
// requires the other valid plus downstream ready.
type BinaryUnit struct {
	Operand0, Operand1, Result HandshakeValue
	fn                         BinaryFunc
}

// NewBinaryUnit returns a BinaryUnit computing fn.
func NewBinaryUnit(fn BinaryFunc) *BinaryUnit { return &BinaryUnit{fn: fn} }

func (b *BinaryUnit) SetValue(port string, v HandshakeValue) {
	switch port {
	case "operand0":
		b.Operand0 = v
	case "operand1":
		b.Operand1 = v
	case "result":
		b.Result = v
	}
}

func (b *BinaryUnit) GetValue(port string) HandshakeValue {
	switch port {
	case "operand0":
		return b.Operand0
	case "operand1":
		return b.Operand1
	case "result":
		return b.Result
	}
	return HandshakeValue{}
}

func (b *BinaryUnit) IsValid() bool {
	return b.Operand0.Valid || b.Operand1.Valid || b.Result.Valid
}

func (b *BinaryUnit) Propagate() []string {
	var changed []string
	if b.Operand0.SetReady(b.Operand1.Valid && b.Result.Ready) {
		changed = append(changed, "operand0")
	}
	if b.Operand1.SetReady(b.Operand0.Valid && b.Result.Ready) {
		changed = append(changed, "operand1")
	}
	if b.Result.SetValid(b.Operand0.Valid && b.Operand1.Valid, b.fn(b.Operand0.Data, b.Operand1.Data)) {
		changed = append(changed, "result")
	}
	return changed
}

func (b *BinaryUnit) Update() bool { return false }

// BinaryUnitSeq is a pipelined binary operator with a fixed latency
// >= 2: operands join, feed a latency-1-deep shift register, and
// drain through an OEHB so a stalled consumer holds the completed
// result rather than dropping it.
type BinaryUnitSeq struct {
	Operand0, Operand1, Result HandshakeValue

	join  *Join
	oehb  *OEHB
	fn    BinaryFunc
	delay []struct {
		valid bool
		data  value.Value
	}
}

// NewBinaryUnitSeq returns a BinaryUnitSeq computing fn with the given
// pipeline latency (>= 2 cycles from operand acceptance to result;
// single-cycle operators use BinaryUnit instead).
func NewBinaryUnitSeq(fn BinaryFunc, latency int) *BinaryUnitSeq {
	u := &BinaryUnitSeq{join: NewJoin(2), oehb: NewOEHB(), fn: fn}
	u.delay = make([]struct {
		valid bool
		data  value.Value
	}, latency-1)
	for i := range u.delay {
		u.delay[i].data = value.Error
	}
	return u
}

func (u *BinaryUnitSeq) SetValue(port string, v HandshakeValue) {
	switch port {
	case "operand0":
		u.Operand0 = v
	case "operand1":
		u.Operand1 = v
	case "result":
		u.Result = v
	}
}

func (u *BinaryUnitSeq) GetValue(port string) HandshakeValue {
	switch port {
	case "operand0":
		return u.Operand0
	case "operand1":
		return u.Operand1
	case "result":
		return u.Result
	}
	return HandshakeValue{}
}

func (u *BinaryUnitSeq) IsValid() bool {
	if u.Operand0.Valid || u.Operand1.Valid || u.Result.Valid || u.oehb.IsValid() {
		return true
	}
	for _, d := range u.delay {
		if d.valid {
			return true
		}
	}
	return false
}

func (u *BinaryUnitSeq) back() (bool, value.Value) {
	last := u.delay[len(u.delay)-1]
	return last.valid, last.data
}

func (u *BinaryUnitSeq) Propagate() []string {
	valid, data := u.back()
	if u.oehb.DataIn.SetValid(valid, data) || u.oehb.DataOut.SetReadyFrom(u.Result) {
		u.oehb.Propagate()
	}
	if u.join.In[0].SetValidOnly(u.Operand0) ||
		u.join.In[1].SetValidOnly(u.Operand1) ||
		u.join.Out.SetReadyFrom(u.oehb.DataIn) {
		u.join.Propagate()
	}

	var changed []string
	if u.Operand0.SetReadyFrom(u.join.In[0]) {
		changed = append(changed, "operand0")
	}
	if u.Operand1.SetReadyFrom(u.join.In[1]) {
		changed = append(changed, "operand1")
	}
	if u.Result.SetValidFrom(u.oehb.DataOut) {
		changed = append(changed, "result")
	}
	return changed
}

func (u *BinaryUnitSeq) Update() bool {
	flag := false
	if u.oehb.DataIn.Ready {
		flag = true
		computed := u.fn(u.Operand0.Data, u.Operand1.Data)
		if len(u.delay) > 0 {
			copy(u.delay[1:], u.delay[:len(u.delay)-1])
			u.delay[0] = struct {
				valid bool
				data  value.Value
			}{u.join.Out.Valid, computed}
		}
	}
	if u.oehb.Update() {
		flag = true
		u.oehb.Propagate()
	}
	return flag
}
