// Command tcmigrate drives the migration execution core from the command
// line: load a run config, resolve the two providers it names, run the
// controller to completion, and print a styled summary.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
