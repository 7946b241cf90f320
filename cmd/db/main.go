package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/tomasstrnad1997/sweeper/config"
	"github.com/tomasstrnad1997/sweeper/db"
	"github.com/tomasstrnad1997/sweeper/logging"
)

// usage: sweeper-db --db path [init|register|best]
func main() {
	cfg, err := config.Load("sweeper-db", os.Args[1:])
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger := logging.Must(cfg.LogLevel)
	defer logger.Sync()

	store, service, err := db.OpenService(cfg.DBPath)
	if err != nil {
		logger.Fatalw("Failed to create store", "path", cfg.DBPath, "error", err)
	}
	defer store.Close()

	action := "init"
	if len(cfg.Args) > 0 {
		action = cfg.Args[0]
	}
	switch action {
	case "init":
		logger.Info("Tables created")
	case "register":
		if err := service.Register(cfg.Player, cfg.Password); err != nil {
			logger.Fatalw("Failed to register player", "player", cfg.Player, "error", err)
		}
		logger.Infow("Player registered", "player", cfg.Player)
	case "best":
		params := cfg.GameParams().Resolve()
		records, err := service.Best(params, 10)
		if err != nil {
			logger.Fatalw("Failed to load records", "error", err)
		}
		fmt.Printf("Best times for %dx%d with %d mines\n", params.Width, params.Height, params.Mines)
		for i, record := range records {
			fmt.Printf("%2d. %-20s %10s  %s\n", i+1, record.PlayerName,
				record.Elapsed.Round(time.Millisecond), record.FinishedAt.Format(time.DateTime))
		}
	default:
		logger.Fatalw("Unknown action", "action", action)
	}
}
