// Package main provides the entry point for simstep, a batch runner
// over the software/ToR/HEC simulation engines.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pku-liang/hestia/shell"
)

var (
	scriptPath = flag.String("script", "", "Path to a YAML session script")
	verb       = flag.String("c", "", "Run a single verb instead of a script")
)

func main() {
	flag.Parse()

	if *scriptPath == "" && *verb == "" {
		fmt.Fprintf(os.Stderr, "Usage: simstep -script <script.yaml> | -c \"<verb> <args...>\"\n")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var lines []string
	if *scriptPath != "" {
		data, err := os.ReadFile(*scriptPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "simstep: %v\n", err)
			os.Exit(1)
		}
		lines, err = shell.LoadScript(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "simstep: %v\n", err)
			os.Exit(1)
		}
	}
	if *verb != "" {
		lines = append(lines, *verb)
	}

	sh := shell.New(os.Stdout)
	if err := sh.RunScript(lines); err != nil {
		fmt.Fprintf(os.Stderr, "simstep: %v\n", err)
		os.Exit(1)
	}
}
