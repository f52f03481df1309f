package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-keyframe/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCmd(newViewCmd)
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
