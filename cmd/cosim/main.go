// Command cosim runs a ToR-level and a HEC-level bundle under the
// equivalence coordinator, cross-checking every mapped operation
// cycle by cycle as both sides run.
//
// Usage:
//
//	go run ./cmd/cosim -tor <tor.json> -hec <hec.json> -equal <equal.json> -call <function>
//
// A -script flag runs a full YAML session script instead, for cases
// that need memory loads or breakpoints/watchpoints set up before the
// cosim verb runs.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pku-liang/hestia/shell"
)

var (
	torPath   = flag.String("tor", "", "Path to a ToR-level IR bundle")
	hecPath   = flag.String("hec", "", "Path to a HEC-level IR bundle")
	equalPath = flag.String("equal", "", "Path to an equivalence mapping file")
	call      = flag.String("call", "", "Function/module name and arguments to call on both sides, e.g. \"mulfn 3 4\"")
	script    = flag.String("script", "", "Path to a YAML session script (overrides the flags above)")
)

func main() {
	flag.Parse()

	var lines []string
	switch {
	case *script != "":
		data, err := os.ReadFile(*script)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cosim: %v\n", err)
			os.Exit(1)
		}
		lines, err = shell.LoadScript(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "cosim: %v\n", err)
			os.Exit(1)
		}
	case *torPath != "" && *hecPath != "" && *equalPath != "":
		lines = []string{
			"load " + *torPath,
			"load " + *hecPath,
			"load_equal " + *equalPath,
		}
		if *call != "" {
			lines = append(lines,
				"switch tor", "call "+*call,
				"switch hec", "call "+*call,
			)
		}
		lines = append(lines, "cosim")
	default:
		fmt.Fprintf(os.Stderr, "Usage: cosim -tor <tor.json> -hec <hec.json> -equal <equal.json> [-call <fn>] | -script <script.yaml>\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	sh := shell.New(os.Stdout)
	if err := sh.RunScript(lines); err != nil {
		fmt.Fprintf(os.Stderr, "cosim: %v\n", err)
		os.Exit(1)
	}
}
