package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/vantle/sibyl/internal/sibylctl/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := cmd.NewDefaultSibylCtlCommand()
	if err := command.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
