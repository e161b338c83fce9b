// The main package for the inventory-sync executable.
package main

import (
	"github.com/autolot/inventory-sync/cmd"
)

// main defers all execution to the Cobra CLI.
func main() {
	cmd.Execute()
}
