// Package ir is the typed decode layer sitting between raw JSON IR
// bundle files and the runtime model built by the software, tor, and
// hec packages. It is the external collaborator that does the
// decoding and schema dispatch before handing typed data to the
// engines, keeping JSON mechanics out of the engine packages.
package ir

import (
	"encoding/json"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// SupportedSchema is the schema constraint every bundle file must
// satisfy; bundles are versioned "1.x" and a forward-incompatible
// major bump fails at load with a clear message instead of a
// confusing decode error deep inside an engine.
const SupportedSchema = "~1"

// Level is the level field selecting which loader a bundle dispatches
// to.
type Level string

const (
	LevelSoftware Level = "software"
	LevelToR      Level = "tor"
	LevelHEC      Level = "hec"
)

// Header is the common envelope every IR bundle file carries: which
// level it describes and which schema version it was authored
// against.
type Header struct {
	Level  Level  `json:"level"`
	Schema string `json:"schema"`
}

// Peek decodes only the Header from raw bundle bytes, validating the
// schema version, so callers can dispatch to the right typed loader
// before paying for a full decode.
func Peek(data []byte) (Header, error) {
	var h Header
	if err := json.Unmarshal(data, &h); err != nil {
		return Header{}, fmt.Errorf("ir: malformed bundle: %w", err)
	}
	if h.Level == "" {
		return Header{}, fmt.Errorf("ir: bundle is missing required field \"level\"")
	}
	if h.Schema != "" {
		if err := checkSchema(h.Schema); err != nil {
			return Header{}, err
		}
	}
	return h, nil
}

func checkSchema(s string) error {
	v, err := semver.NewVersion(s)
	if err != nil {
		return fmt.Errorf("ir: unparsable schema version %q: %w", s, err)
	}
	c, err := semver.NewConstraint(SupportedSchema)
	if err != nil {
		return err
	}
	if !c.Check(v) {
		return fmt.Errorf("ir: bundle schema %s is not compatible with supported range %s", s, SupportedSchema)
	}
	return nil
}

// MemoryDef decodes a memory entry: {name, size, type}.
type MemoryDef struct {
	Name string `json:"name"`
	Size int    `json:"size"`
	Type string `json:"type"`
}

// StreamDef decodes a stream entry: {name, depth, type}.
type StreamDef struct {
	Name  string `json:"name"`
	Depth int    `json:"depth"`
	Type  string `json:"type"`
}

// ConstantDef decodes a constant entry: {name, literal, type}. Some
// bundle producers emit the literal under an "operands" array of one
// element instead of a bare "literal" string; both are accepted.
type ConstantDef struct {
	Name     string          `json:"name"`
	Literal  string          `json:"literal"`
	Operands []string        `json:"operands"`
	Type     string          `json:"type"`
	Raw      json.RawMessage `json:"-"`
}

// LiteralValue returns the decoded literal regardless of which of the
// two accepted shapes produced it.
func (c ConstantDef) LiteralValue() string {
	if c.Literal != "" {
		return c.Literal
	}
	if len(c.Operands) > 0 {
		return c.Operands[0]
	}
	return ""
}

// ComputeDef decodes a Computation IR node: {name, op_type,
// return_type, operands[]}.
type ComputeDef struct {
	Name       string   `json:"name"`
	OpType     string   `json:"op_type"`
	ReturnType string   `json:"return_type"`
	Operands   []string `json:"operands"`
}

// EquivalenceMapping decodes one entry of the equivalence file:
// {start, end, start_node, end_node, op, primitive}.
type EquivalenceMapping struct {
	Start     string `json:"start"`
	End       string `json:"end"`
	StartNode uint64 `json:"start_node"`
	EndNode   uint64 `json:"end_node"`
	Op        string `json:"op"`
	Primitive string `json:"primitive"`
}

// DecodeEquivalence decodes an equivalence file's top-level array.
func DecodeEquivalence(data []byte) ([]EquivalenceMapping, error) {
	var mappings []EquivalenceMapping
	if err := json.Unmarshal(data, &mappings); err != nil {
		return nil, fmt.Errorf("ir: malformed equivalence file: %w", err)
	}
	return mappings, nil
}
