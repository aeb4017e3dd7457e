// Package equivalence couples a ToR engine and a HEC engine running
// the same program, cross-checking that a named operation on the ToR
// side produces exactly the same sequence of values as its paired
// primitive on the HEC side.
package equivalence

import "github.com/pku-liang/hestia/ir"

// Mapping is one equivalence-file entry: an operation on the ToR
// (timed) side paired with a primitive on the HEC (hardware) side,
// plus the node identifiers the original synthesis flow used to trace
// the pairing back to source. It is the ir package's decoded shape —
// an equivalence file pairs two already-loaded programs rather than
// describing one, so there is no bundle header or runtime lowering
// step for this package to add on top.
type Mapping = ir.EquivalenceMapping
