package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rapids-dev/rapids/internal/cli"
	"github.com/rapids-dev/rapids/internal/rerr"
)

var version = "0.1.0-dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command tree and maps failures to exit codes. An
// interrupt cancels the context; multi-step commands stop between steps.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCommand(version)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		return rerr.ExitCode(err)
	}
	return 0
}
