// ABOUTME: Entry point for ogginspect, a tool for looking inside Ogg streams
// ABOUTME: Runs the cobra command tree and maps failures to exit codes
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ogginspect: %v\n", err)
		os.Exit(1)
	}
}
