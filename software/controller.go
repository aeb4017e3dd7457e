package software

import "github.com/pku-liang/hestia/value"

// ControllerKind tags the operation stack's controller variant:
// Function | For | If | Call.
type ControllerKind int

const (
	ControllerFunction ControllerKind = iota
	ControllerFor
	ControllerIf
	ControllerCall
)

// Controller owns a cursor into its own body and is pushed onto the
// interpreter's single operation stack. For and Call controllers
// share their originating ForSpec/CallSpec/caller scope so Return and
// Yield can unwind or restart without walking back through the IR.
type Controller struct {
	Kind ControllerKind
	Name string // function name, for root-level Return printing

	Scope *Scope
	Body  []Op
	OpNow int

	ForSpec   *ForSpec
	IterValue value.Value // current induction-variable value, Kind==ControllerFor only

	IfSpec *IfSpec

	CallSpec    *CallSpec
	CallerScope *Scope
}

func (c *Controller) done() bool { return c.OpNow >= len(c.Body) }
