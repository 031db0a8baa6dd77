// Package main starts the rooms API service and handles termination.
//
// The process is a transport adapter around the room catalog and the per-room
// broadcast engine; all room state lives in memory for the process lifetime.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	apicmd "github.com/louisbranch/roomrant/internal/cmd/api"
	"github.com/louisbranch/roomrant/internal/platform/logging"
)

func main() {
	logger := logging.NewConsole("info")

	cfg, err := apicmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		logger.Fatal().Err(err).Msg("parse flags")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := apicmd.Run(ctx, cfg); err != nil {
		logger.Fatal().Err(err).Msg("failed to serve")
	}
}
