package players

import (
	"time"

	"github.com/tomasstrnad1997/sweeper/mines"
)

type Player struct {
	ID           uint32
	Name         string
	PasswordHash string
}

// Record is one won game in the best-times table.
type Record struct {
	ID         string
	PlayerID   uint32
	PlayerName string
	Params     mines.GameParams
	Elapsed    time.Duration
	FinishedAt time.Time
}

type PlayerStore interface {
	CreatePlayer(username, hash string) error
	FindPlayerByName(username string) (*Player, error)
}

type RecordStore interface {
	InsertRecord(record Record) error
	// Best returns the fastest records for exactly these params.
	Best(params mines.GameParams, limit int) ([]Record, error)
}
