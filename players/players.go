package players

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomasstrnad1997/sweeper/mines"
)

type Service struct {
	Store   PlayerStore
	Records RecordStore
	now     func() time.Time
}

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrPlayerExists       = errors.New("player already exists")
	ErrEmptyName          = errors.New("player name is empty")
)

func NewService(store PlayerStore, records RecordStore) *Service {
	return &Service{Store: store, Records: records, now: time.Now}
}

func (s *Service) Register(username, password string) error {
	if username == "" {
		return ErrEmptyName
	}
	passwordHash, err := hashPassword(password)
	if err != nil {
		return err
	}
	return s.Store.CreatePlayer(username, passwordHash)
}

func (s *Service) Login(username, password string) (*Player, error) {
	player, err := s.Store.FindPlayerByName(username)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !checkPasswordHash(password, player.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return player, nil
}

func (s *Service) FindPlayerByName(name string) (*Player, error) {
	return s.Store.FindPlayerByName(name)
}

// Recorder logs the player in once and returns a handle that stores their
// wins. Front ends hold on to it for the whole session.
func (s *Service) Recorder(username, password string) (*Recorder, error) {
	player, err := s.Login(username, password)
	if err != nil {
		return nil, err
	}
	return &Recorder{service: s, player: player}, nil
}

func (s *Service) Best(params mines.GameParams, limit int) ([]Record, error) {
	return s.Records.Best(params, limit)
}

type Recorder struct {
	service *Service
	player  *Player
}

func (r *Recorder) Player() *Player {
	return r.player
}

// RecordWin stores a finished game. params must be the resolved params of
// the won board.
func (r *Recorder) RecordWin(params mines.GameParams, elapsed time.Duration) (*Record, error) {
	now := time.Now
	if r.service.now != nil {
		now = r.service.now
	}
	record := Record{
		ID:         uuid.NewString(),
		PlayerID:   r.player.ID,
		PlayerName: r.player.Name,
		Params:     params,
		Elapsed:    elapsed,
		FinishedAt: now().UTC(),
	}
	if err := r.service.Records.InsertRecord(record); err != nil {
		return nil, fmt.Errorf("insert record: %w", err)
	}
	return &record, nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
