// Package main is the entry point for the parsegen CLI.
package main

import (
	"os"

	"github.com/jmylchreest/parsegen/cmd/parsegen/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
