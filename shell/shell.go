// Package shell drives the three engines (and the cosim coordinator)
// from a batch script of shell verbs, in place of an interactive
// readline loop — it exists to exercise the engines, not to provide a
// general-purpose debugger front end.
package shell

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pku-liang/hestia/equivalence"
	"github.com/pku-liang/hestia/hec"
	"github.com/pku-liang/hestia/ir"
	"github.com/pku-liang/hestia/session"
	"github.com/pku-liang/hestia/software"
	"github.com/pku-liang/hestia/storage"
	"github.com/pku-liang/hestia/tor"
	"github.com/pku-liang/hestia/value"
)

// LoadScript decodes a session script: a YAML list of command lines,
// run in order by RunScript in place of the original's newline-
// delimited, comment-filtered text file.
func LoadScript(data []byte) ([]string, error) {
	var lines []string
	if err := yaml.Unmarshal(data, &lines); err != nil {
		return nil, fmt.Errorf("shell: malformed session script: %w", err)
	}
	return lines, nil
}

// Shell holds whichever of the three engines have been loaded so far
// plus the breakpoint/watchpoint/current-level Session every engine
// entry point takes explicitly, and dispatches one command line at a
// time against whichever engine Session.Level currently selects.
type Shell struct {
	Sess *session.Session
	Out  io.Writer

	Software *software.Interp
	ToR      *tor.Engine
	HEC      *hec.Engine

	equalMappings []equivalence.Mapping
}

// New returns an empty Shell, printing command output to out.
func New(out io.Writer) *Shell {
	return &Shell{Sess: session.New(), Out: out}
}

// RunScript executes every line in lines in order, stopping at a
// quit/exit/q line or at the first unrecoverable load error so a
// caller can report a non-zero exit code for an auto-run script.
func (sh *Shell) RunScript(lines []string) error {
	for _, line := range lines {
		if f := strings.Fields(line); len(f) > 0 && (f[0] == "quit" || f[0] == "exit" || f[0] == "q") {
			return nil
		}
		if err := sh.Exec(line); err != nil {
			return err
		}
	}
	return nil
}

// Exec runs one command line. An unknown verb, or a verb whose
// arguments don't resolve, prints a diagnostic to Out and returns nil;
// only a top-level load failure returns an error.
func (sh *Shell) Exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}
	verb, args := fields[0], fields[1:]

	switch verb {
	case "load":
		return sh.cmdLoad(args)
	case "load_memory":
		sh.cmdLoadMemory(args)
	case "load_memory_file":
		sh.cmdLoadMemoryFile(args)
	case "load_equal":
		return sh.cmdLoadEqual(args)
	case "call":
		sh.cmdCall(args)
	case "step", "s":
		sh.cmdStep(args)
	case "continue", "c":
		sh.cmdContinue()
	case "switch":
		sh.cmdSwitch(args)
	case "cosim":
		sh.cmdCosim()
	case "breakpoint":
		sh.withTag(args, sh.Sess.SetBreakpoint)
	case "unset_breakpoint":
		sh.withTag(args, sh.Sess.UnsetBreakpoint)
	case "show_breakpoint":
		fmt.Fprintln(sh.Out, strings.Join(sh.Sess.Breakpoints(), " "))
	case "watch":
		sh.withTag(args, sh.Sess.SetWatchpoint)
	case "unset_watchpoint":
		sh.withTag(args, sh.Sess.UnsetWatchpoint)
	case "show_watchpoint":
		fmt.Fprintln(sh.Out, strings.Join(sh.Sess.Watchpoints(), " "))
	case "show_active":
		eng := sh.activeEngine()
		fmt.Fprintf(sh.Out, "%t\n", eng != nil && eng.active())
	case "show_stack":
		sh.cmdShowStack()
	case "show_var":
		sh.cmdShowVar(args)
	case "show_mem":
		sh.cmdShowMem(args)
	case "show_op":
		sh.cmdShowOp()
	case "ready", "valid", "invalid":
		fmt.Fprintf(sh.Out, "%s: not supported — no top-level handshake input port is registered\n", verb)
	case "quit", "exit", "q":
		// RunScript stops at this verb without running any later line;
		// a direct Exec call has nothing more to do.
	default:
		fmt.Fprintf(sh.Out, "unknown command %q\n", verb)
	}
	return nil
}

func (sh *Shell) withTag(args []string, fn func(string)) {
	if len(args) < 1 {
		fmt.Fprintln(sh.Out, "missing tag argument")
		return
	}
	fn(args[0])
}

// cmdLoad dispatches on the bundle's level field, replacing whichever
// engine already occupied that level.
func (sh *Shell) cmdLoad(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(sh.Out, "load: missing path")
		return nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	header, err := ir.Peek(data)
	if err != nil {
		return fmt.Errorf("load %s: %w", args[0], err)
	}
	switch header.Level {
	case ir.LevelSoftware:
		prog, err := software.Load(data)
		if err != nil {
			return err
		}
		sh.Software = software.NewInterp(prog, sh.Out)
		sh.Sess.Level = session.LevelSoftware
	case ir.LevelToR:
		prog, err := tor.Load(data)
		if err != nil {
			return err
		}
		sh.ToR = tor.NewEngine(prog)
		sh.Sess.Level = session.LevelToR
	case ir.LevelHEC:
		prog, err := hec.Load(data)
		if err != nil {
			return err
		}
		sh.HEC = hec.NewEngine(prog)
		sh.Sess.Level = session.LevelHEC
	default:
		return fmt.Errorf("load %s: undefined level %q", args[0], header.Level)
	}
	fmt.Fprintf(sh.Out, "loaded %s (%s)\n", args[0], header.Level)
	return nil
}

func (sh *Shell) cmdLoadEqual(args []string) error {
	if len(args) < 1 {
		fmt.Fprintln(sh.Out, "load_equal: missing path")
		return nil
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("load_equal %s: %w", args[0], err)
	}
	mappings, err := equivalence.Load(data)
	if err != nil {
		return err
	}
	sh.equalMappings = mappings
	fmt.Fprintf(sh.Out, "loaded %d equivalence mapping(s)\n", len(mappings))
	return nil
}

// cmdLoadMemory bulk-populates a memory named by its first argument
// with the remaining arguments as literals, looked up across whichever
// level engines are currently loaded.
func (sh *Shell) cmdLoadMemory(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.Out, "load_memory: missing memory name")
		return
	}
	mem := sh.findMemory(args[0])
	if mem == nil {
		fmt.Fprintf(sh.Out, "load_memory: undefined memory %q\n", args[0])
		return
	}
	if err := mem.LoadBulk(args[1:]); err != nil {
		fmt.Fprintln(sh.Out, err)
	}
}

func (sh *Shell) cmdLoadMemoryFile(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(sh.Out, "load_memory_file: usage: load_memory_file <mem> <path>")
		return
	}
	mem := sh.findMemory(args[0])
	if mem == nil {
		fmt.Fprintf(sh.Out, "load_memory_file: undefined memory %q\n", args[0])
		return
	}
	data, err := os.ReadFile(args[1])
	if err != nil {
		fmt.Fprintln(sh.Out, err)
		return
	}
	if err := mem.LoadBulk(strings.Fields(string(data))); err != nil {
		fmt.Fprintln(sh.Out, err)
	}
}

func (sh *Shell) findMemory(name string) *storage.Memory {
	if sh.Software != nil {
		if m, ok := sh.Software.Program.Memories[name]; ok {
			return m
		}
	}
	if sh.ToR != nil {
		if m, ok := sh.ToR.Program.Memories[name]; ok {
			return m
		}
	}
	return nil
}

// cmdCall starts a root instance on whichever engine the current level
// selects.
func (sh *Shell) cmdCall(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.Out, "call: missing function/module name")
		return
	}
	fn, argVals := args[0], parseArgs(args[1:])
	switch sh.Sess.Level {
	case session.LevelSoftware:
		if sh.Software == nil {
			fmt.Fprintln(sh.Out, "call: no software program loaded")
			return
		}
		if err := sh.Software.CallFunction(fn, argVals); err != nil {
			fmt.Fprintln(sh.Out, err)
		}
	case session.LevelToR:
		if sh.ToR == nil {
			fmt.Fprintln(sh.Out, "call: no tor program loaded")
			return
		}
		if err := sh.ToR.CallFunction(fn, argVals); err != nil {
			fmt.Fprintln(sh.Out, err)
		}
	case session.LevelHEC:
		if sh.HEC == nil {
			fmt.Fprintln(sh.Out, "call: no hec program loaded")
			return
		}
		sh.HEC.CallFunction(fn, argVals)
	default:
		fmt.Fprintln(sh.Out, "call: select a level with switch first")
	}
}

// parseArgs decodes each argument as a literal through the value
// package's kind-inferring builder: a bare integer literal becomes
// i32, "true"/"false" becomes bool, and anything with a decimal point
// becomes f64 — good enough for a batch script's literal call
// arguments, which is all this front door needs to carry.
func parseArgs(args []string) []value.Value {
	out := make([]value.Value, len(args))
	for i, a := range args {
		out[i] = inferLiteral(a)
	}
	return out
}

func inferLiteral(lit string) value.Value {
	switch lit {
	case "true", "false":
		return value.Build("bool", lit)
	}
	if strings.ContainsAny(lit, ".eE") {
		if _, err := strconv.ParseFloat(lit, 64); err == nil {
			return value.Build("f64", lit)
		}
	}
	return value.Build("i32", lit)
}

// cmdStep advances the currently selected engine by n cycles/
// operations (default 1), stopping early on a breakpoint, and prints
// any watched values that changed as a result.
func (sh *Shell) cmdStep(args []string) {
	n := 1
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil {
			n = v
		}
	}
	eng := sh.activeEngine()
	if eng == nil {
		fmt.Fprintln(sh.Out, "step: select a level with switch first")
		return
	}
	if tag := eng.step(n, sh.Sess); tag != "" {
		fmt.Fprintf(sh.Out, "breakpoint %q hit\n", tag)
	}
	sh.printWatches(eng)
}

// cmdContinue runs the current engine one cycle at a time until its
// active set empties or a breakpoint fires.
func (sh *Shell) cmdContinue() {
	eng := sh.activeEngine()
	if eng == nil {
		fmt.Fprintln(sh.Out, "continue: select a level with switch first")
		return
	}
	for eng.active() {
		if tag := eng.step(1, sh.Sess); tag != "" {
			fmt.Fprintf(sh.Out, "breakpoint %q hit\n", tag)
			sh.printWatches(eng)
			return
		}
		sh.printWatches(eng)
	}
}

func (sh *Shell) printWatches(eng engineHandle) {
	vals := eng.watchValues(sh.Sess)
	for _, tag := range sh.Sess.Watchpoints() {
		if v, ok := vals[tag]; ok {
			fmt.Fprintf(sh.Out, "watch %s = %s\n", tag, v)
		}
	}
}

func (sh *Shell) cmdSwitch(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(sh.Out, "switch: missing level")
		return
	}
	switch args[0] {
	case "software":
		sh.Sess.Level = session.LevelSoftware
	case "tor":
		sh.Sess.Level = session.LevelToR
	case "hec":
		sh.Sess.Level = session.LevelHEC
	default:
		fmt.Fprintf(sh.Out, "switch: undefined level %q\n", args[0])
	}
}

// cmdCosim runs the ToR and HEC engines coupled until both finish,
// installing the equivalence mappings loaded by load_equal first.
func (sh *Shell) cmdCosim() {
	if sh.ToR == nil || sh.HEC == nil {
		fmt.Fprintln(sh.Out, "cosim: both a tor and a hec program must be loaded")
		return
	}
	coord := equivalence.NewCoordinator(sh.ToR, sh.HEC)
	coord.Load(sh.equalMappings)
	sh.Sess.Level = session.LevelCosim
	result := coord.Run(sh.Sess)
	fmt.Fprintln(sh.Out, "Cosimulation success")
	fmt.Fprintf(sh.Out, "tor cycles: %d, hec cycles: %d\n", result.ToRCycles, result.HECCycles)
}

func (sh *Shell) cmdShowStack() {
	if sh.Sess.Level == session.LevelSoftware && sh.Software != nil {
		fmt.Fprintln(sh.Out, strings.Join(sh.Software.ShowStack(), " > "))
		return
	}
	fmt.Fprintln(sh.Out, "show_stack: only the software level keeps an explicit call stack")
}

func (sh *Shell) cmdShowVar(args []string) {
	eng := sh.activeEngine()
	if eng == nil {
		fmt.Fprintln(sh.Out, "show_var: select a level with switch first")
		return
	}
	sess := session.New()
	for _, name := range args {
		sess.SetWatchpoint(name)
	}
	vals := eng.watchValues(sess)
	for _, name := range args {
		if v, ok := vals[name]; ok {
			fmt.Fprintf(sh.Out, "%s = %s\n", name, v)
		} else {
			fmt.Fprintf(sh.Out, "%s = <unresolved>\n", name)
		}
	}
}

func (sh *Shell) cmdShowMem(args []string) {
	for _, name := range args {
		mem := sh.findMemory(name)
		if mem == nil {
			fmt.Fprintf(sh.Out, "show_mem: undefined memory %q\n", name)
			continue
		}
		vals := mem.Snapshot()
		strs := make([]string, len(vals))
		for i, v := range vals {
			strs[i] = v.String()
		}
		fmt.Fprintf(sh.Out, "%s = [%s]\n", name, strings.Join(strs, ", "))
	}
}

func (sh *Shell) cmdShowOp() {
	fmt.Fprintf(sh.Out, "level: %s\n", sh.Sess.Level)
}

// engineHandle is the shared surface cmdStep/cmdContinue/printWatches
// drive without caring which of the three engines is actually
// selected.
type engineHandle interface {
	active() bool
	step(n int, sess *session.Session) string
	watchValues(sess *session.Session) map[string]value.Value
}

type softwareHandle struct{ in *software.Interp }

func (h softwareHandle) active() bool { return h.in.Active() }
func (h softwareHandle) step(n int, sess *session.Session) string {
	return h.in.Step(n, sess)
}
func (h softwareHandle) watchValues(sess *session.Session) map[string]value.Value { return nil }

type torHandle struct{ eng *tor.Engine }

func (h torHandle) active() bool { return h.eng.Active() }
func (h torHandle) step(n int, sess *session.Session) string {
	return h.eng.Step(n, sess)
}
func (h torHandle) watchValues(sess *session.Session) map[string]value.Value {
	return h.eng.WatchValues(sess)
}

type hecHandle struct{ eng *hec.Engine }

func (h hecHandle) active() bool { return h.eng.Active() }
func (h hecHandle) step(n int, sess *session.Session) string {
	return h.eng.Step(n, sess)
}
func (h hecHandle) watchValues(sess *session.Session) map[string]value.Value {
	return h.eng.WatchValues(sess)
}

func (sh *Shell) activeEngine() engineHandle {
	switch sh.Sess.Level {
	case session.LevelSoftware:
		if sh.Software == nil {
			return nil
		}
		return softwareHandle{sh.Software}
	case session.LevelToR:
		if sh.ToR == nil {
			return nil
		}
		return torHandle{sh.ToR}
	case session.LevelHEC:
		if sh.HEC == nil {
			return nil
		}
		return hecHandle{sh.HEC}
	default:
		return nil
	}
}
