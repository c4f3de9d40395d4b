// Package main is the entry point for the odoo-graph CLI.
package main

import (
	"os"

	"odoo-graph/cmd/cli/cmd"
	"odoo-graph/internal/logging"
)

func main() {
	defer logging.Sync()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
