// cfgbench compares JSON-schema function tools with grammar-constrained
// custom tools on fixed tool-calling scenarios.
package main

import (
	"os"

	"github.com/loopworks/cfgbench/cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
