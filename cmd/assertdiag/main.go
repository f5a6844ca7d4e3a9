// Package main is the entry point for the assertdiag application
package main

import "github.com/ethpandaops/assertdiag/cmd"

func main() {
	cmd.Execute()
}
