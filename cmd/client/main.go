package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/tomasstrnad1997/sweeper/client"
	"github.com/tomasstrnad1997/sweeper/config"
	"github.com/tomasstrnad1997/sweeper/db"
	"github.com/tomasstrnad1997/sweeper/logging"
)

func main() {
	cfg, err := config.Load("sweeper", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Must(cfg.LogLevel)

	opts := client.Options{
		Params:   cfg.GameParams(),
		TileSize: cfg.TileSize,
		Logger:   logger,
	}
	if cfg.RecordsEnabled() {
		store, service, err := db.OpenService(cfg.DBPath)
		if err != nil {
			logger.Fatalw("Failed to open records database", "path", cfg.DBPath, "error", err)
		}
		defer store.Close()
		recorder, err := service.Recorder(cfg.Player, cfg.Password)
		if err != nil {
			logger.Fatalw("Login failed, wins will not be recorded", "player", cfg.Player, "error", err)
		}
		opts.Recorder = recorder
		opts.Best = service
	}
	if err := client.RunClient(opts); err != nil {
		logger.Fatalw("Cannot start game", "error", err)
	}
}
