package handshake

import (
	"fmt"

	"github.com/pku-liang/hestia/value"
)

// Join synchronizes N inputs: output valid is the AND of every input
// valid, and input i's ready is output ready ANDed with the valids of
// every other input — the standard join algebra backing Branch,
// BinaryUnitSeq, and DynMem's store path.
type Join struct {
	N    int
	In   []HandshakeValue
	Out  HandshakeValue
}

// NewJoin returns an N-input Join.
func NewJoin(n int) *Join { return &Join{N: n, In: make([]HandshakeValue, n)} }

func (j *Join) SetValue(port string, v HandshakeValue) {
	if port == "out" {
		j.Out = v
		return
	}
	if i, ok := inIndex(port); ok && i < j.N {
		j.In[i] = v
	}
}

func (j *Join) GetValue(port string) HandshakeValue {
	if port == "out" {
		return j.Out
	}
	if i, ok := inIndex(port); ok && i < j.N {
		return j.In[i]
	}
	return HandshakeValue{}
}

func (j *Join) IsValid() bool {
	if j.Out.Valid {
		return true
	}
	for _, in := range j.In {
		if in.Valid {
			return true
		}
	}
	return false
}

func (j *Join) Propagate() []string {
	var changed []string
	allValid := true
	for _, in := range j.In {
		allValid = allValid && in.Valid
	}
	if j.Out.SetValidOnly(HandshakeValue{Valid: allValid}) {
		changed = append(changed, "out")
	}
	for idx := range j.In {
		othersValid := true
		for k, in := range j.In {
			if k == idx {
				continue
			}
			othersValid = othersValid && in.Valid
		}
		if j.In[idx].SetReady(j.Out.Ready && othersValid) {
			changed = append(changed, inName(idx))
		}
	}
	return changed
}

func (j *Join) Update() bool { return false }

func inName(i int) string { return fmt.Sprintf("in%d", i) }

func inIndex(port string) (int, bool) {
	var i int
	if n, err := fmt.Sscanf(port, "in%d", &i); n == 1 && err == nil {
		return i, true
	}
	return 0, false
}

// Fork replicates one input token to N outputs, each gated by a
// sticky sub-register that tracks whether that branch has already
// accepted the current token; once every branch has accepted, the
// registers reset for the next token.
type Fork struct {
	N       int
	DataIn  HandshakeValue
	DataOut []HandshakeValue
	subReg  []*Reg
}

// NewFork returns an N-way Fork.
func NewFork(n int) *Fork {
	f := &Fork{N: n, DataOut: make([]HandshakeValue, n), subReg: make([]*Reg, n)}
	for i := range f.subReg {
		f.subReg[i] = NewReg(value.Bool(true))
	}
	return f
}

func (f *Fork) SetValue(port string, v HandshakeValue) {
	if port == "data_in" {
		f.DataIn = v
		return
	}
	if i, ok := inIndex(outPortIndex(port)); ok && i < f.N {
		f.DataOut[i] = v
	}
}

func (f *Fork) GetValue(port string) HandshakeValue {
	if port == "data_in" {
		return f.DataIn
	}
	if i, ok := inIndex(outPortIndex(port)); ok && i < f.N {
		return f.DataOut[i]
	}
	return HandshakeValue{}
}

// outPortIndex rewrites "data_out.N" into "inN" so inIndex can parse
// it with the same helper used for Join/generic numbered ports.
func outPortIndex(port string) string {
	var i int
	if n, err := fmt.Sscanf(port, "data_out.%d", &i); n == 1 && err == nil {
		return inName(i)
	}
	return ""
}

func (f *Fork) IsValid() bool {
	if f.DataIn.Valid {
		return true
	}
	for _, o := range f.DataOut {
		if o.Valid {
			return true
		}
	}
	return false
}

func outName(i int) string { return fmt.Sprintf("data_out.%d", i) }

func (f *Fork) Propagate() []string {
	var changed []string
	blockStop := make([]bool, f.N)
	for i := 0; i < f.N; i++ {
		reg := f.subReg[i].Get().AsBool()
		if f.DataOut[i].SetValid(reg && f.DataIn.Valid, f.DataIn.Data) {
			changed = append(changed, outName(i))
		}
		blockStop[i] = reg && !f.DataOut[i].Ready
	}
	anyStop := false
	for _, b := range blockStop {
		anyStop = anyStop || b
	}
	for i := 0; i < f.N; i++ {
		f.subReg[i].SetEnable(true, value.Bool(blockStop[i] || !(f.DataIn.Valid && anyStop)))
	}
	if f.DataIn.SetReady(!anyStop) {
		changed = append(changed, "data_in")
	}
	return changed
}

func (f *Fork) Update() bool {
	changed := false
	for _, r := range f.subReg {
		if r.Update() {
			changed = true
		}
	}
	return changed
}

// Branch routes data_in to data_out[0] (true) or data_out[1] (false)
// according to condition, synchronized through an internal Join(2).
type Branch struct {
	DataIn    HandshakeValue
	DataOut   [2]HandshakeValue
	Condition HandshakeValue
	join      *Join
}

// NewBranch returns a Branch primitive.
func NewBranch() *Branch { return &Branch{join: NewJoin(2)} }

func (b *Branch) SetValue(port string, v HandshakeValue) {
	switch port {
	case "data_in":
		b.DataIn = v
	case "data_out.0":
		b.DataOut[0] = v
	case "data_out.1":
		b.DataOut[1] = v
	case "condition":
		b.Condition = v
	}
}

func (b *Branch) GetValue(port string) HandshakeValue {
	switch port {
	case "data_in":
		return b.DataIn
	case "data_out.0":
		return b.DataOut[0]
	case "data_out.1":
		return b.DataOut[1]
	case "condition":
		return b.Condition
	}
	return HandshakeValue{}
}

func (b *Branch) IsValid() bool {
	return b.DataIn.Valid || b.DataOut[0].Valid || b.DataOut[1].Valid || b.Condition.Valid
}

func (b *Branch) Propagate() []string {
	cond := b.Condition.Data.AsBool()
	if b.join.In[0].SetValidOnly(b.Condition) ||
		b.join.In[1].SetValidOnly(b.DataIn) ||
		b.join.Out.SetReady((b.DataOut[1].Ready && !cond) || (b.DataOut[0].Ready && cond)) {
		b.join.Propagate()
	}

	var changed []string
	if b.DataOut[0].SetValid(cond && b.join.Out.Valid, b.DataIn.Data) {
		changed = append(changed, "data_out.0")
	}
	if b.DataOut[1].SetValid(!cond && b.join.Out.Valid, b.DataIn.Data) {
		changed = append(changed, "data_out.1")
	}
	if b.Condition.SetReadyFrom(b.join.In[0]) {
		changed = append(changed, "condition")
	}
	if b.DataIn.SetReadyFrom(b.join.In[1]) {
		changed = append(changed, "data_in")
	}
	return changed
}

func (b *Branch) Update() bool { return false }

// MergeNoTEHB is the combinational variant of Merge: the first valid
// input wins, with no output buffering.
type MergeNoTEHB struct {
	DataIn  []HandshakeValue
	DataOut HandshakeValue
}

// NewMergeNoTEHB returns a MergeNoTEHB with n data inputs.
func NewMergeNoTEHB(n int) *MergeNoTEHB { return &MergeNoTEHB{DataIn: make([]HandshakeValue, n)} }

func (m *MergeNoTEHB) SetValue(port string, v HandshakeValue) {
	if port == "data_out" {
		m.DataOut = v
		return
	}
	if i, ok := inIndex(port); ok && i < len(m.DataIn) {
		m.DataIn[i] = v
	}
}

func (m *MergeNoTEHB) GetValue(port string) HandshakeValue {
	if port == "data_out" {
		return m.DataOut
	}
	if i, ok := inIndex(port); ok && i < len(m.DataIn) {
		return m.DataIn[i]
	}
	return HandshakeValue{}
}

func (m *MergeNoTEHB) IsValid() bool {
	if m.DataOut.Valid {
		return true
	}
	for _, in := range m.DataIn {
		if in.Valid {
			return true
		}
	}
	return false
}

func firstValid(ins []HandshakeValue) (value.Value, bool) {
	for _, in := range ins {
		if in.Valid {
			return in.Data, true
		}
	}
	return value.Error, false
}

func (m *MergeNoTEHB) Propagate() []string {
	var changed []string
	data, valid := firstValid(m.DataIn)
	for i := range m.DataIn {
		if m.DataIn[i].SetReadyFrom(m.DataOut) {
			changed = append(changed, inName(i))
		}
	}
	if m.DataOut.SetValid(valid, data) {
		changed = append(changed, "data_out")
	}
	return changed
}

func (m *MergeNoTEHB) Update() bool { return false }

// Merge is MergeNoTEHB buffered through a TEHB, so the caller behind
// it sees a registered, backpressure-absorbing output.
type Merge struct {
	DataIn  []HandshakeValue
	DataOut HandshakeValue
	tehb    *TEHB
}

// NewMerge returns a Merge with n data inputs.
func NewMerge(n int) *Merge { return &Merge{DataIn: make([]HandshakeValue, n), tehb: NewTEHB()} }

func (m *Merge) SetValue(port string, v HandshakeValue) {
	if port == "data_out" {
		m.DataOut = v
		return
	}
	if i, ok := inIndex(port); ok && i < len(m.DataIn) {
		m.DataIn[i] = v
	}
}

func (m *Merge) GetValue(port string) HandshakeValue {
	if port == "data_out" {
		return m.DataOut
	}
	if i, ok := inIndex(port); ok && i < len(m.DataIn) {
		return m.DataIn[i]
	}
	return HandshakeValue{}
}

func (m *Merge) IsValid() bool {
	if m.DataOut.Valid || m.tehb.IsValid() {
		return true
	}
	for _, in := range m.DataIn {
		if in.Valid {
			return true
		}
	}
	return false
}

func (m *Merge) Propagate() []string {
	data, valid := firstValid(m.DataIn)
	if m.tehb.DataIn.SetValid(valid, data) || m.tehb.DataOut.SetReadyFrom(m.DataOut) {
		m.tehb.Propagate()
	}
	var changed []string
	if m.DataOut.SetValidFrom(m.tehb.DataOut) {
		changed = append(changed, "data_out")
	}
	for i := range m.DataIn {
		if m.DataIn[i].SetReadyFrom(m.tehb.DataIn) {
			changed = append(changed, inName(i))
		}
	}
	return changed
}

func (m *Merge) Update() bool {
	if m.tehb.Update() {
		m.tehb.Propagate()
		return true
	}
	return false
}

// MuxDynamic picks data_in[condition] when condition is valid. The
// selected input's ready additionally requires the internal TEHB be
// ready; every input (selected or not) is also readied whenever it is
// not currently valid, so a stale token drains on the next cycle —
// ported as-is from the reference implementation rather than the
// simpler "always ready when unselected" reading of the prose
// description, since the two diverge when an unselected input is
// valid and the MuxDynamic specs in handshake_test.go exercise exactly
// that case.
type MuxDynamic struct {
	DataIn    []HandshakeValue
	DataOut   HandshakeValue
	Condition HandshakeValue
	tehb      *TEHB
}

// NewMuxDynamic returns a MuxDynamic over n data inputs.
func NewMuxDynamic(n int) *MuxDynamic {
	return &MuxDynamic{DataIn: make([]HandshakeValue, n), tehb: NewTEHB()}
}

func (m *MuxDynamic) SetValue(port string, v HandshakeValue) {
	switch port {
	case "data_out":
		m.DataOut = v
	case "condition":
		m.Condition = v
	default:
		if i, ok := inIndex(port); ok && i < len(m.DataIn) {
			m.DataIn[i] = v
		}
	}
}

func (m *MuxDynamic) GetValue(port string) HandshakeValue {
	switch port {
	case "data_out":
		return m.DataOut
	case "condition":
		return m.Condition
	default:
		if i, ok := inIndex(port); ok && i < len(m.DataIn) {
			return m.DataIn[i]
		}
	}
	return HandshakeValue{}
}

func (m *MuxDynamic) IsValid() bool {
	if m.DataOut.Valid || m.Condition.Valid || m.tehb.IsValid() {
		return true
	}
	for _, in := range m.DataIn {
		if in.Valid {
			return true
		}
	}
	return false
}

func (m *MuxDynamic) Propagate() []string {
	idx := int(m.Condition.Data.AsU32())
	tmpValid := false
	tmpData := value.Error
	if m.Condition.Valid && idx >= 0 && idx < len(m.DataIn) && m.DataIn[idx].Valid {
		tmpValid, tmpData = true, m.DataIn[idx].Data
	}

	if m.tehb.DataIn.SetValid(tmpValid, tmpData) || m.tehb.DataOut.SetReadyFrom(m.DataOut) {
		m.tehb.Propagate()
	}

	var changed []string
	if m.DataOut.SetValidFrom(m.tehb.DataOut) {
		changed = append(changed, "data_out")
	}
	for i := range m.DataIn {
		selected := i == idx && m.Condition.Valid && m.DataIn[i].Valid && m.tehb.DataIn.Ready
		if m.DataIn[i].SetReady(selected || !m.DataIn[i].Valid) {
			changed = append(changed, inName(i))
		}
	}
	if m.Condition.SetReady(!m.Condition.Valid || (tmpValid && m.tehb.DataIn.Ready)) {
		changed = append(changed, "condition")
	}
	return changed
}

func (m *MuxDynamic) Update() bool { return m.tehb.Update() }

// ControlMerge merges two control tokens, buffers the winner through
// a TEHB, and forks the result into a condition (which input won) and
// a data output, both sharing the same liveness.
type ControlMerge struct {
	DataIn    [2]HandshakeValue
	DataOut   HandshakeValue
	Condition HandshakeValue

	phi  *MergeNoTEHB
	tehb *TEHB
	fork *Fork
}

// NewControlMerge returns a ControlMerge over 2 inputs.
func NewControlMerge() *ControlMerge {
	return &ControlMerge{phi: NewMergeNoTEHB(2), tehb: NewTEHB(), fork: NewFork(2)}
}

func (c *ControlMerge) SetValue(port string, v HandshakeValue) {
	switch port {
	case "data_in.0":
		c.DataIn[0] = v
	case "data_in.1":
		c.DataIn[1] = v
	case "data_out":
		c.DataOut = v
	case "condition":
		c.Condition = v
	}
}

func (c *ControlMerge) GetValue(port string) HandshakeValue {
	switch port {
	case "data_in.0":
		return c.DataIn[0]
	case "data_in.1":
		return c.DataIn[1]
	case "data_out":
		return c.DataOut
	case "condition":
		return c.Condition
	}
	return HandshakeValue{}
}

func (c *ControlMerge) IsValid() bool {
	return c.DataIn[0].Valid || c.DataIn[1].Valid || c.DataOut.Valid || c.Condition.Valid
}

func (c *ControlMerge) Propagate() []string {
	phiReady := !c.tehb.full.Get().AsBool()
	if c.phi.DataOut.SetReady(phiReady) ||
		c.phi.DataIn[0].SetValidOnly(c.DataIn[0]) ||
		c.phi.DataIn[1].SetValidOnly(c.DataIn[1]) {
		c.phi.Propagate()
	}

	var changed []string
	if c.DataIn[0].SetReadyFrom(c.phi.DataIn[0]) {
		changed = append(changed, "data_in.0")
	}
	if c.DataIn[1].SetReadyFrom(c.phi.DataIn[1]) {
		changed = append(changed, "data_in.1")
	}

	tehbReady := forkReady(c.fork, []HandshakeValue{c.Condition, c.DataOut})
	if c.tehb.DataOut.SetReady(tehbReady) ||
		c.tehb.DataIn.SetValid(c.phi.DataOut.Valid, value.Bool(c.phi.In1Selected())) {
		c.tehb.Propagate()
	}

	if c.fork.DataIn.SetValid(c.tehb.DataOut.Valid, value.Bool(true)) ||
		c.fork.DataOut[0].SetReadyFrom(c.Condition) ||
		c.fork.DataOut[1].SetReadyFrom(c.DataOut) {
		c.fork.Propagate()
	}

	if c.Condition.SetValid(c.fork.DataOut[0].Valid, c.tehb.DataOut.Data) {
		changed = append(changed, "condition")
	}
	if c.DataOut.SetValid(c.fork.DataOut[1].Valid, c.tehb.DataOut.Data) {
		changed = append(changed, "data_out")
	}
	return changed
}

func (c *ControlMerge) Update() bool {
	flag := false
	if c.tehb.Update() {
		c.tehb.Propagate()
		flag = true
	}
	if c.fork.Update() {
		c.fork.Propagate()
		flag = true
	}
	return flag
}

// In1Selected reports whether phi's winning input was index 1 (input 0
// not valid), the value ControlMerge latches as its condition payload:
// false when input 0 won, true when input 1 won.
func (m *MergeNoTEHB) In1Selected() bool {
	return !m.DataIn[0].Valid
}

// forkReady mirrors Fork.get_ready: no output port among outs demands
// a stall given the fork's current sub-register state.
func forkReady(f *Fork, outs []HandshakeValue) bool {
	for i, o := range outs {
		if f.subReg[i].Get().AsBool() && !o.Ready {
			return false
		}
	}
	return true
}
