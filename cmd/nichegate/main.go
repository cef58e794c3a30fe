package main

import (
	"os"

	"github.com/wonny/nichegate/cmd/nichegate/commands"
)

// main is the entry point for the nichegate CLI
// ⭐ single CLI entry point: go run ./cmd/nichegate [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
