package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/tomasstrnad1997/sweeper/config"
	"github.com/tomasstrnad1997/sweeper/logging"
	"github.com/tomasstrnad1997/sweeper/server"
)

func main() {
	cfg, err := config.Load("sweeper-server", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Must(cfg.LogLevel)
	defer logger.Sync()

	srv, err := server.SpawnServer("0.0.0.0", uint16(cfg.Port), logger)
	if err != nil {
		logger.Fatalw("Failed to start server", "error", err)
	}
	logger.Infow("Server started", "name", srv.Name, "port", srv.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("Shutting down")
	if err := srv.Close(); err != nil {
		logger.Warnw("Close failed", "error", err)
	}
}
