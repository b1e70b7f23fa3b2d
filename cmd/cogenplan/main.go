package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/levenlabs/go-lflag"

	"github.com/cogenplan/cogenplan/pkg/export"
	"github.com/cogenplan/cogenplan/pkg/log"
	"github.com/cogenplan/cogenplan/pkg/server"
	"github.com/cogenplan/cogenplan/pkg/storage"
)

func main() {
	// init packages
	s := storage.Configured()
	x := export.Configured()

	// init server
	srv := server.Configured(s, x)

	// parse flags
	lflag.Configure()
	log.Setup(os.Stdout, true)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// initialization failures inside lflag.Do panic before we get here
	defer func() {
		if err := s.Close(); err != nil {
			log.Ctx(ctx).ErrorContext(ctx, "failed to close storage", "error", err)
		}
		x.Close()
	}()

	// Run blocks until the context is canceled or the server fails
	if err := srv.Run(ctx); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "server exited cleanly")
}
