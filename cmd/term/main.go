package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/pflag"

	"github.com/tomasstrnad1997/sweeper/config"
	"github.com/tomasstrnad1997/sweeper/db"
	"github.com/tomasstrnad1997/sweeper/logging"
	"github.com/tomasstrnad1997/sweeper/mines"
	"github.com/tomasstrnad1997/sweeper/protocol"
	"github.com/tomasstrnad1997/sweeper/term"
)

// usage: sweeper-term [flags] [local|remote]
func main() {
	cfg, err := config.Load("sweeper-term", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Must(cfg.LogLevel)
	defer logger.Sync()

	var recorder term.WinRecorder
	if cfg.RecordsEnabled() {
		store, service, err := db.OpenService(cfg.DBPath)
		if err != nil {
			logger.Fatalw("Failed to open records database", "path", cfg.DBPath, "error", err)
		}
		defer store.Close()
		r, err := service.Recorder(cfg.Player, cfg.Password)
		if err != nil {
			logger.Fatalw("Login failed", "player", cfg.Player, "error", err)
		}
		recorder = r
	}

	mode := "local"
	if len(cfg.Args) > 0 {
		mode = cfg.Args[0]
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var session term.Session
	switch mode {
	case "local":
		game, err := mines.CreateGame(cfg.GameParams())
		if err != nil {
			logger.Fatalw("Cannot start game", "error", err)
		}
		session = term.NewLocal(game, os.Stdout, recorder, logger)
	case "remote":
		controller := protocol.CreateConnectionController(logger)
		if err := controller.Connect(cfg.Host, uint16(cfg.Port)); err != nil {
			logger.Fatalw("Failed to connect", "host", cfg.Host, "port", cfg.Port, "error", err)
		}
		defer controller.Close()
		session = term.NewRemote(controller, cfg.GameParams(), os.Stdout, recorder, logger)
		go func() {
			if err := controller.ReadServerResponse(); err != nil {
				logger.Errorw("Connection lost", "error", err)
			}
			stop()
		}()
	default:
		fmt.Fprintf(os.Stderr, "unknown mode %q, use local or remote\n", mode)
		os.Exit(2)
	}

	if err := term.Run(ctx, os.Stdin, os.Stdout, session); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorw("Session ended", "error", err)
	}
}
