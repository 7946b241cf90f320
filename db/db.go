package db

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/tomasstrnad1997/sweeper/mines"
	"github.com/tomasstrnad1997/sweeper/players"
)

//go:embed schema.sql
var ddl string

type SQLStore struct {
	DB  *sql.DB
	ctx context.Context
}

func InitializeTables(db *sql.DB) error {
	_, err := db.Exec(ddl)
	return err
}

func (store *SQLStore) InitializeTables() error {
	return InitializeTables(store.DB)
}

func InitStore(path string) (*SQLStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path not set")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// Need to ping the database to check if the file could be opened
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{DB: db, ctx: context.Background()}, nil
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

func (s *SQLStore) CreatePlayer(name, hash string) error {
	_, err := s.DB.ExecContext(s.ctx,
		`INSERT INTO players (username, password_hash) VALUES (?, ?)`, name, hash)
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
		return fmt.Errorf("%s: %w", name, players.ErrPlayerExists)
	}
	return err
}

func (s *SQLStore) FindPlayerByName(name string) (*players.Player, error) {
	row := s.DB.QueryRowContext(s.ctx,
		`SELECT id, username, password_hash FROM players WHERE username = ?`, name)
	var id int64
	plr := &players.Player{}
	if err := row.Scan(&id, &plr.Name, &plr.PasswordHash); err != nil {
		return nil, err
	}
	plr.ID = uint32(id)
	return plr, nil
}

func (s *SQLStore) InsertRecord(record players.Record) error {
	_, err := s.DB.ExecContext(s.ctx,
		`INSERT INTO records (id, player_id, width, height, mines, elapsed_ms, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID, int64(record.PlayerID),
		record.Params.Width, record.Params.Height, record.Params.Mines,
		record.Elapsed.Milliseconds(), record.FinishedAt.UnixMilli())
	return err
}

func (s *SQLStore) Best(params mines.GameParams, limit int) ([]players.Record, error) {
	rows, err := s.DB.QueryContext(s.ctx,
		`SELECT r.id, r.player_id, p.username, r.elapsed_ms, r.finished_at
		 FROM records r JOIN players p ON p.id = r.player_id
		 WHERE r.width = ? AND r.height = ? AND r.mines = ?
		 ORDER BY r.elapsed_ms ASC, r.finished_at ASC
		 LIMIT ?`,
		params.Width, params.Height, params.Mines, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []players.Record
	for rows.Next() {
		var playerID, elapsed, finished int64
		record := players.Record{Params: params}
		if err := rows.Scan(&record.ID, &playerID, &record.PlayerName, &elapsed, &finished); err != nil {
			return nil, err
		}
		record.PlayerID = uint32(playerID)
		record.Elapsed = time.Duration(elapsed) * time.Millisecond
		record.FinishedAt = time.UnixMilli(finished).UTC()
		records = append(records, record)
	}
	return records, rows.Err()
}

// OpenService opens (and if needed creates) the records database and wraps
// it in a players.Service.
func OpenService(path string) (*SQLStore, *players.Service, error) {
	store, err := InitStore(path)
	if err != nil {
		return nil, nil, err
	}
	if err := store.InitializeTables(); err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("create tables: %w", err)
	}
	return store, players.NewService(store, store), nil
}
