// Command exoscan is the offline front end: ingest, extract, train and score.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/myrmlbst/NASA-SpaceApps-Hackathon/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := cli.NewRootCommand().ExecuteContext(ctx)
	stop()
	os.Exit(cli.GetExitCode(err))
}
