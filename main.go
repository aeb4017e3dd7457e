// Package main prints a pointer to the real entry points.
//
// For the full CLI, use: go run ./cmd/simstep or go run ./cmd/cosim
package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("hestia - three-level hardware-synthesis IR simulator")
	fmt.Println("")
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/simstep -script <script.yaml>")
	fmt.Println("  go run ./cmd/cosim -tor <tor.json> -hec <hec.json> -equal <equal.json>")
	fmt.Println("")
	fmt.Println("Run 'go run ./cmd/simstep' or 'go run ./cmd/cosim' for the full CLI.")

	if len(os.Args) > 1 {
		fmt.Println("\nNote: you provided arguments. Use 'go run ./cmd/simstep' or 'go run ./cmd/cosim' instead.")
	}
}
