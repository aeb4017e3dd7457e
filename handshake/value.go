// Package handshake implements the elastic valid/ready primitive
// network a Handshake-strategy module compiles to: a closed catalog of
// units communicating through change-detecting ports, scheduled to a
// per-cycle fixed point by a work-list.
package handshake

import "github.com/pku-liang/hestia/value"

// HandshakeValue is one port's wire state: a valid/ready handshake
// pair plus the data riding it. Every setter reports whether it
// actually changed anything, which is what drives the work-list
// scheduler's re-queue decisions.
type HandshakeValue struct {
	Valid bool
	Ready bool
	Data  value.Value
}

// SetValid sets valid and data together, as most propagate() steps
// compute them from the same decision.
func (h *HandshakeValue) SetValid(valid bool, data value.Value) bool {
	changed := h.Valid != valid || !h.Data.Equal(data)
	h.Valid, h.Data = valid, data
	return changed
}

// SetValidOnly sets valid from another port without touching data,
// used where a unit's own data field is independently driven (e.g. a
// join's internal condition/data inputs).
func (h *HandshakeValue) SetValidOnly(other HandshakeValue) bool {
	changed := h.Valid != other.Valid
	h.Valid = other.Valid
	return changed
}

// SetValidFrom copies both valid and data from another port.
func (h *HandshakeValue) SetValidFrom(other HandshakeValue) bool {
	return h.SetValid(other.Valid, other.Data)
}

// SetReady sets the ready field.
func (h *HandshakeValue) SetReady(ready bool) bool {
	changed := h.Ready != ready
	h.Ready = ready
	return changed
}

// SetReadyFrom copies ready from another port.
func (h *HandshakeValue) SetReadyFrom(other HandshakeValue) bool {
	return h.SetReady(other.Ready)
}

// Reg is a one-slot register that settles into newValue during
// propagate() and commits it during update(), reporting whether the
// committed value actually changed — the building block every
// sequential primitive (TEHB/OEHB/Fork's sub-registers) is built from.
type Reg struct {
	value    value.Value
	newValue value.Value
	enable   bool
	set      bool
}

// NewReg returns a Reg initialized to v.
func NewReg(v value.Value) *Reg { return &Reg{value: v} }

// Get returns the register's currently committed value.
func (r *Reg) Get() value.Value { return r.value }

// SetEnable stages a conditional write for the next Update.
func (r *Reg) SetEnable(enable bool, v value.Value) {
	r.enable, r.newValue, r.set = enable, v, true
}

// Update commits a staged write and reports whether the value changed.
func (r *Reg) Update() bool {
	if !r.set {
		return false
	}
	defer func() { r.newValue, r.set = value.Error, false }()
	if !r.enable {
		return false
	}
	changed := !r.value.Equal(r.newValue)
	r.value = r.newValue
	return changed
}
