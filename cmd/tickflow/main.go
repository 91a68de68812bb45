// Command tickflow compiles, runs and replays synchronous dataflow programs.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/tickflow/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "tickflow: %v\n", err)
		os.Exit(cli.GetExitCode(err))
	}
}
