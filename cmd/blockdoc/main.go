// Command blockdoc edits blocks documents from the command line.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/roach88/blockdoc/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}

	// Commands report their own failures; ExitError only carries the code.
	var exitErr *cli.ExitError
	if !errors.As(err, &exitErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	os.Exit(cli.GetExitCode(err))
}
