package main

import (
	"context"
	"log"
	"os"

	"github.com/dmitrijs2005/secretsync/internal/client/cli"
	"github.com/dmitrijs2005/secretsync/internal/client/config"
	"github.com/dmitrijs2005/secretsync/internal/flagx"
)

func main() {

	ctx := context.Background()
	cfg := config.LoadConfig()
	app, err := cli.NewApp(cfg)

	if err != nil {
		log.Fatalf("%v", err)
	}

	args := flagx.PositionalArgs(os.Args[1:], config.ValueFlagNames())
	os.Exit(app.Run(ctx, args))
}
