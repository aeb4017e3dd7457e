package handshake

import (
	"fmt"
	"strconv"

	"github.com/pku-liang/hestia/value"
)

// Load forwards an address through to memory and the returned data
// back to its consumer; it never stalls on its own account.
type Load struct {
	AddressIn, DataOut, AddressOut, DataIn, Control HandshakeValue
}

func (l *Load) SetValue(port string, v HandshakeValue) {
	switch port {
	case "address_in":
		l.AddressIn = v
	case "data_out":
		l.DataOut = v
	case "address_out":
		l.AddressOut = v
	case "data_in":
		l.DataIn = v
	case "control":
		l.Control = v
	}
}

func (l *Load) GetValue(port string) HandshakeValue {
	switch port {
	case "address_in":
		return l.AddressIn
	case "data_out":
		return l.DataOut
	case "address_out":
		return l.AddressOut
	case "data_in":
		return l.DataIn
	case "control":
		return l.Control
	}
	return HandshakeValue{}
}

func (l *Load) IsValid() bool {
	return l.AddressIn.Valid || l.DataOut.Valid || l.AddressOut.Valid || l.DataIn.Valid || l.Control.Valid
}

func (l *Load) Propagate() []string {
	var changed []string
	if l.AddressOut.SetValidFrom(l.AddressIn) {
		changed = append(changed, "address_out")
	}
	if l.AddressIn.SetReadyFrom(l.AddressOut) {
		changed = append(changed, "address_in")
	}
	if l.DataOut.SetValidFrom(l.DataIn) {
		changed = append(changed, "data_out")
	}
	if l.DataIn.SetReadyFrom(l.DataOut) {
		changed = append(changed, "data_in")
	}
	if l.Control.SetReady(true) {
		changed = append(changed, "control")
	}
	return changed
}

func (l *Load) Update() bool { return false }

// Store buffers its address and data through independent
// ElasticBuffers before presenting them to memory, absorbing
// backpressure on each side separately.
type Store struct {
	AddressIn, DataOut, AddressOut, DataIn, Control HandshakeValue
	addr, data                                      *ElasticBuffer
}

// NewStore returns a Store with its address/data buffers ready.
func NewStore() *Store { return &Store{addr: NewElasticBuffer(), data: NewElasticBuffer()} }

func (s *Store) SetValue(port string, v HandshakeValue) {
	switch port {
	case "address_in":
		s.AddressIn = v
	case "data_out":
		s.DataOut = v
	case "address_out":
		s.AddressOut = v
	case "data_in":
		s.DataIn = v
	case "control":
		s.Control = v
	}
}

func (s *Store) GetValue(port string) HandshakeValue {
	switch port {
	case "address_in":
		return s.AddressIn
	case "data_out":
		return s.DataOut
	case "address_out":
		return s.AddressOut
	case "data_in":
		return s.DataIn
	case "control":
		return s.Control
	}
	return HandshakeValue{}
}

func (s *Store) IsValid() bool {
	return s.AddressIn.Valid || s.DataOut.Valid || s.AddressOut.Valid || s.DataIn.Valid || s.Control.Valid
}

func (s *Store) Propagate() []string {
	if s.addr.DataIn.SetValidFrom(s.AddressIn) || s.addr.DataOut.SetReadyFrom(s.AddressOut) {
		s.addr.Propagate()
	}
	var changed []string
	if s.AddressOut.SetValidFrom(s.addr.DataOut) {
		changed = append(changed, "address_out")
	}
	if s.AddressIn.SetReadyFrom(s.addr.DataIn) {
		changed = append(changed, "address_in")
	}

	if s.data.DataIn.SetValidFrom(s.DataIn) || s.data.DataOut.SetReadyFrom(s.DataOut) {
		s.data.Propagate()
	}
	if s.DataOut.SetValidFrom(s.data.DataOut) {
		changed = append(changed, "data_out")
	}
	if s.DataIn.SetReadyFrom(s.data.DataIn) {
		changed = append(changed, "data_in")
	}
	if s.Control.SetReady(true) {
		changed = append(changed, "control")
	}
	return changed
}

func (s *Store) Update() bool {
	flag := false
	if s.addr.Update() {
		s.addr.Propagate()
		flag = true
	}
	if s.data.Update() {
		s.data.Propagate()
		flag = true
	}
	return flag
}

// DynMem is a single-ported memory array shared by a set of dynamic
// load or store requesters. Two request shapes are supported, matching
// the two that ever reach a real dataflow compile: a single store port
// (no arbitration needed) or N load ports arbitrated by fixed priority
// (lowest index wins ties), with one TEHB per load port so a winner
// that stalls downstream doesn't lose its slot.
type DynMem struct {
	LoadAddress, LoadData   []HandshakeValue
	StoreAddress, StoreData []HandshakeValue

	mem    []value.Value
	wEn    bool
	addr   int
	wData  value.Value
	buffer []*TEHB

	arbOutValid *Reg
	address     *Reg
}

// NewDynMem returns a DynMem for a store-only (loads==0, stores==1) or
// load-only (stores==0, any loads) port configuration. The combined
// one-load-plus-one-store shape is explicitly unsupported — the
// upstream primitive this is grounded on never implements it either —
// so it is rejected here rather than silently misbehaving.
func NewDynMem(loads, stores, size int, zero value.Value) (*DynMem, error) {
	supported := (loads == 0 && stores == 1) || stores == 0
	if !supported {
		return nil, fmt.Errorf("dynmem: unsupported port configuration loads=%d stores=%d", loads, stores)
	}
	d := &DynMem{
		LoadAddress:  make([]HandshakeValue, loads),
		LoadData:     make([]HandshakeValue, loads),
		StoreAddress: make([]HandshakeValue, stores),
		StoreData:    make([]HandshakeValue, stores),
		mem:          make([]value.Value, size),
		arbOutValid:  NewReg(value.U64(uint64(loads) + 1)),
		address:      NewReg(value.Error),
	}
	for i := range d.mem {
		d.mem[i] = zero
	}
	d.buffer = make([]*TEHB, loads)
	for i := range d.buffer {
		d.buffer[i] = NewTEHB()
	}
	return d, nil
}

// SetMemory overwrites the backing array, e.g. to seed a test fixture.
func (d *DynMem) SetMemory(vals []value.Value) {
	copy(d.mem, vals)
}

// Memory returns the backing array for inspection.
func (d *DynMem) Memory() []value.Value { return d.mem }

func (d *DynMem) SetValue(port string, v HandshakeValue) {
	unit, idx := dynMemPort(port)
	switch unit {
	case "load_address":
		if idx < len(d.LoadAddress) {
			d.LoadAddress[idx] = v
		}
	case "load_data":
		if idx < len(d.LoadData) {
			d.LoadData[idx] = v
		}
	case "store_address":
		if idx < len(d.StoreAddress) {
			d.StoreAddress[idx] = v
		}
	case "store_data":
		if idx < len(d.StoreData) {
			d.StoreData[idx] = v
		}
	}
}

func (d *DynMem) GetValue(port string) HandshakeValue {
	unit, idx := dynMemPort(port)
	switch unit {
	case "load_address":
		if idx < len(d.LoadAddress) {
			return d.LoadAddress[idx]
		}
	case "load_data":
		if idx < len(d.LoadData) {
			return d.LoadData[idx]
		}
	case "store_address":
		if idx < len(d.StoreAddress) {
			return d.StoreAddress[idx]
		}
	case "store_data":
		if idx < len(d.StoreData) {
			return d.StoreData[idx]
		}
	}
	return HandshakeValue{}
}

func dynMemPort(port string) (string, int) {
	for i := len(port) - 1; i >= 0; i-- {
		if port[i] == '.' {
			idx, _ := strconv.Atoi(port[i+1:])
			return port[:i], idx
		}
	}
	return port, 0
}

func (d *DynMem) IsValid() bool {
	for _, h := range d.LoadAddress {
		if h.Valid {
			return true
		}
	}
	for _, h := range d.LoadData {
		if h.Valid {
			return true
		}
	}
	for _, h := range d.StoreAddress {
		if h.Valid {
			return true
		}
	}
	for _, h := range d.StoreData {
		if h.Valid {
			return true
		}
	}
	return false
}

func (d *DynMem) Propagate() []string {
	var changed []string
	loadNum, storeNum := len(d.LoadAddress), len(d.StoreAddress)

	if loadNum == 0 && storeNum == 1 {
		j := NewJoin(2)
		j.In[0] = d.StoreAddress[0]
		j.In[1] = d.StoreData[0]
		j.Propagate()
		d.wEn = j.Out.Valid
		d.addr = int(d.StoreAddress[0].Data.AsU64())
		d.wData = d.StoreData[0].Data
		if d.StoreAddress[0].SetReadyFrom(j.In[0]) {
			changed = append(changed, "store_address.0")
		}
		if d.StoreData[0].SetReadyFrom(j.In[1]) {
			changed = append(changed, "store_data.0")
		}
		return changed
	}

	// storeNum == 0: priority-arbitrated loads.
	d.wEn = false
	arbInValid := make([]bool, loadNum)
	for i := 0; i < loadNum; i++ {
		arbInValid[i] = d.buffer[i].Ready() && d.LoadAddress[i].Valid
	}
	winner := -1
	for i, ok := range arbInValid {
		if ok {
			winner = i
			break
		}
	}

	for idx := 0; idx < loadNum; idx++ {
		newValid := int(d.arbOutValid.Get().AsU64()) == idx
		newData := value.Error
		if newValid {
			newData = d.mem[int(d.address.Get().AsU64())]
		}
		if d.buffer[idx].DataOut.SetReadyFrom(d.LoadData[idx]) || d.buffer[idx].DataIn.SetValid(newValid, newData) {
			d.buffer[idx].Propagate()
		}
	}

	for idx := 0; idx < loadNum; idx++ {
		if d.LoadData[idx].SetValidFrom(d.buffer[idx].DataOut) {
			changed = append(changed, "load_data."+strconv.Itoa(idx))
		}
	}

	if winner < 0 {
		d.arbOutValid.SetEnable(true, value.U64(uint64(loadNum)+1))
	} else {
		d.arbOutValid.SetEnable(true, value.U64(uint64(winner)))
		d.address.SetEnable(true, d.LoadAddress[winner].Data)
	}

	seenEarlierValid := false
	for idx := 0; idx < loadNum; idx++ {
		ready := !seenEarlierValid && d.buffer[idx].DataIn.Ready
		if d.LoadAddress[idx].SetReady(ready) {
			changed = append(changed, "load_address."+strconv.Itoa(idx))
		}
		seenEarlierValid = seenEarlierValid || arbInValid[idx]
	}
	return changed
}

func (d *DynMem) Update() bool {
	flag := false
	if d.wEn {
		d.mem[d.addr] = d.wData
	}
	for _, b := range d.buffer {
		if b.Update() {
			flag = true
		}
	}
	if d.address.Update() {
		flag = true
	}
	if d.arbOutValid.Update() {
		flag = true
	}
	return flag
}
