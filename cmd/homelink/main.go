// Package main provides the entry point for the homelink daemon.
package main

import (
	"context"
	"os"

	"homelink/internal/cli"
)

func main() {
	ctx := context.Background()
	if err := cli.Execute(ctx); err != nil {
		os.Exit(cli.ExitCodeForError(err))
	}
}
