package equivalence

import "github.com/pku-liang/hestia/ir"

// Load decodes an equivalence file's bare JSON array of mappings.
func Load(data []byte) ([]Mapping, error) {
	return ir.DecodeEquivalence(data)
}
