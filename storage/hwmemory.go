package storage

import (
	"github.com/pku-liang/hestia/timedvalue"
	"github.com/pku-liang/hestia/value"
)

// HardwarePort is one side of a HardwareMemory's dual-port access:
// read-enable, write-enable, address, and data. Reads use the address
// staged through a 1-cycle register (registered-read addressing);
// writes use the address as set.
type HardwarePort struct {
	REn   bool
	WEn   bool
	addr  *timedvalue.TimedValue
	wAddr value.Value
	Data  value.Value
}

func newPort(addrType string) *HardwarePort {
	return &HardwarePort{addr: timedvalue.New(addrType, 1)}
}

// SetAddr stages the port's address; it becomes the latched address
// for reads on the following Update, modeling a 1-cycle registered
// read, and is the address the next committed write goes to.
func (p *HardwarePort) SetAddr(a value.Value) {
	p.addr.Set(a)
	p.wAddr = a
}

// LatchedAddr returns the currently latched address.
func (p *HardwarePort) LatchedAddr() value.Value { return p.addr.Get() }

// HardwareMemory is the HEC dual-port RAM: two independent port sets
// sharing one backing array. A read returns the stored value at the
// currently latched address; writes commit at Update().
type HardwareMemory struct {
	name  string
	typ   string
	data  []value.Value
	portA *HardwarePort
	portB *HardwarePort
}

// NewHardwareMemory allocates a dual-port HEC memory of the given
// size and element type.
func NewHardwareMemory(name, typ string, size int) *HardwareMemory {
	zero := value.Build(typ, "0")
	data := make([]value.Value, size)
	for i := range data {
		data[i] = zero
	}
	return &HardwareMemory{
		name:  name,
		typ:   typ,
		data:  data,
		portA: newPort("u32"),
		portB: newPort("u32"),
	}
}

// Name returns the memory's declared name.
func (m *HardwareMemory) Name() string { return m.name }

// PortA and PortB expose the two independent access ports.
func (m *HardwareMemory) PortA() *HardwarePort { return m.portA }
func (m *HardwareMemory) PortB() *HardwarePort { return m.portB }

// ReadData returns the value currently stored at a port's latched
// address, or Error if the port's read-enable is not asserted.
func (m *HardwareMemory) ReadData(p *HardwarePort) value.Value {
	if !p.REn {
		return value.Error
	}
	idx := int(p.LatchedAddr().AsU32())
	if idx < 0 || idx >= len(m.data) {
		return value.Error
	}
	return m.data[idx]
}

// Update commits any pending write and advances both ports' address
// registers. Writes are combinational: a write goes to the address set
// on its port this cycle, not to the latched read address, matching
// §3's HEC Memory description.
func (m *HardwareMemory) Update() {
	m.commitWrite(m.portA)
	m.commitWrite(m.portB)
	m.portA.addr.Update()
	m.portB.addr.Update()
}

func (m *HardwareMemory) commitWrite(p *HardwarePort) {
	if !p.WEn {
		return
	}
	idx := int(p.wAddr.AsU32())
	if idx < 0 || idx >= len(m.data) {
		return
	}
	m.data[idx] = value.Convert(p.Data, m.typ)
}

// HardwareFIFO is the HEC bounded queue with ports
// {r_en, w_en, r_data, w_data}; writes and reads commit on Update().
type HardwareFIFO struct {
	name     string
	typ      string
	capacity int
	queue    []value.Value

	REn, WEn   bool
	WData      value.Value
	rDataValid bool
	rData      value.Value
}

// NewHardwareFIFO allocates a bounded HEC FIFO of the given capacity
// and element type.
func NewHardwareFIFO(name, typ string, capacity int) *HardwareFIFO {
	return &HardwareFIFO{name: name, typ: typ, capacity: capacity, WData: value.Error}
}

// Name returns the FIFO's declared name.
func (f *HardwareFIFO) Name() string { return f.name }

// IsEmpty reports whether the FIFO holds no tokens.
func (f *HardwareFIFO) IsEmpty() bool { return len(f.queue) == 0 }

// IsFull reports whether the FIFO is at capacity.
func (f *HardwareFIFO) IsFull() bool { return len(f.queue) >= f.capacity }

// RData returns the value popped by the most recent Update when REn
// was asserted, or Error otherwise.
func (f *HardwareFIFO) RData() value.Value {
	if !f.rDataValid {
		return value.Error
	}
	return f.rData
}

// Update commits the pending write (if WEn and not full) and the
// pending read (if REn and not empty) for this cycle.
func (f *HardwareFIFO) Update() {
	f.rDataValid = false
	if f.REn && !f.IsEmpty() {
		f.rData = f.queue[0]
		f.queue = f.queue[1:]
		f.rDataValid = true
	}
	if f.WEn && !f.IsFull() {
		f.queue = append(f.queue, value.Convert(f.WData, f.typ))
	}
}
