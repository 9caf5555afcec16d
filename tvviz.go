package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fredbi/tvviz/internal/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli := cmd.NewCommand()

	if err := cli.Execute(ctx); err != nil {
		stop()
		cli.Fatalf(err)
	}
}
