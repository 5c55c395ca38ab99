package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"

	"github.com/okian/syncops/internal/ctl"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := ctl.NewApp(os.Stdout).RunContext(ctx, os.Args); err != nil {
		color.New(color.FgRed).Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}
