// Package main is the entry point for the Bandroom sync API server.
package main

import (
	"os"

	"github.com/bandroom-dev/bandroom-sync-server/cmd/bandroom-sync-api/app"
	"github.com/bandroom-dev/bandroom-sync-server/internal/logger"
)

func main() {
	logger.Initialize()

	if err := app.NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
