package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mrclmr/n2a/cmd/n2a"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := cmd.ExecuteContext(ctx, version)
	if err != nil && !errors.Is(err, context.Canceled) {
		stop()
		_, _ = fmt.Fprintf(os.Stderr, "n2a: %v\n", err)
		os.Exit(1)
	}
}
