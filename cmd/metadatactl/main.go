/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Command metadatactl validates metadata store deployments and prints entity mappings.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/suparena/metadatastore/cmd/metadatactl/internal/commands"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
