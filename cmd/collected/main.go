// Command collected builds, queries, and publishes SQLite databases.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/roach88/collected/internal/cli"
)

func main() {
	cmd := cli.NewRootCommand()
	if err := cmd.ExecuteContext(context.Background()); err != nil {
		if cli.GetExitCode(err) == cli.ExitCommandError {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(cli.GetExitCode(err))
	}
}
