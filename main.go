// ./main.go
package main

import (
	"github.com/periscope-sec/periscope-cli/cmd"
)

// main is the entry point for the Periscope CLI application.
func main() {
	// Execute the root command defined in the cmd package.
	// This handles all command-line parsing, configuration, and execution.
	cmd.Execute()
}
