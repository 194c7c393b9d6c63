// Package main provides the CLI entry point for flowcraft.
package main

import (
	"os"

	"github.com/flowcraft-dev/flowcraft/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
