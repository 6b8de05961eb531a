// Command cliptrack validates, plays and records timeline assets.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/cliptrack/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.Execute(); err != nil {
		if !cli.Reported(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
