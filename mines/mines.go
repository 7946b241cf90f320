package mines

import (
	"errors"
	"fmt"
	"time"
)

type CellState byte

const (
	Hidden CellState = iota
	Revealed
	Flagged
)

func (s CellState) String() string {
	switch s {
	case Hidden:
		return "hidden"
	case Revealed:
		return "revealed"
	case Flagged:
		return "flagged"
	default:
		return fmt.Sprintf("CellState(%d)", byte(s))
	}
}

type Cell struct {
	Mine          bool
	State         CellState
	NeighborMines int
}

type GameStatus byte

const (
	InProgress GameStatus = iota
	Won
	Lost
)

func (s GameStatus) String() string {
	switch s {
	case InProgress:
		return "in progress"
	case Won:
		return "won"
	case Lost:
		return "lost"
	default:
		return fmt.Sprintf("GameStatus(%d)", byte(s))
	}
}

type Position struct {
	X int
	Y int
}

type GameParams struct {
	Width  int
	Height int
	Mines  int
}

// DefaultMines is used whenever the requested mine count is not positive.
func DefaultMines(width, height int) int {
	return max(1, width*height/10)
}

// Resolve fills in the default mine count.
func (p GameParams) Resolve() GameParams {
	if p.Mines <= 0 {
		p.Mines = DefaultMines(p.Width, p.Height)
	}
	return p
}

// MaxCells bounds the board area so a requested size always fits in memory.
const MaxCells = 1 << 20

func tooLarge(width, height int) bool {
	return width > MaxCells || height > MaxCells || width*height > MaxCells
}

func (p GameParams) Validate() error {
	if p.Width <= 0 || p.Height <= 0 || tooLarge(p.Width, p.Height) || p.Mines < 1 || p.Mines >= p.Width*p.Height {
		return &InvalidBoardParamsError{height: p.Height, width: p.Width, mines: p.Mines}
	}
	return nil
}

type MoveType byte

const (
	Reveal MoveType = 0x01
	Flag   MoveType = 0x02
)

type Move struct {
	X    int
	Y    int
	Type MoveType
}

func (move Move) String() string {
	msg := fmt.Sprintf("(%d, %d) ", move.X, move.Y)
	switch move.Type {
	case Reveal:
		return msg + "Reveal"
	case Flag:
		return msg + "Flag"
	default:
		return msg + "UNKNOWN"
	}
}

var (
	ErrInvalidConfiguration = errors.New("invalid board configuration")
	ErrInvalidMoveType      = errors.New("invalid move type")
)

type InvalidBoardParamsError struct {
	height int
	width  int
	mines  int
	// set when a fixed layout holds a duplicate or out of range mine
	position *Position
}

func (e *InvalidBoardParamsError) Error() string {
	switch {
	case e.position != nil:
		return fmt.Sprintf("Cannot place mine at (%d, %d) on board (%d, %d)", e.position.X, e.position.Y, e.width, e.height)
	case e.width <= 0:
		return fmt.Sprintf("Cannot create a board with width: %d", e.width)
	case e.height <= 0:
		return fmt.Sprintf("Cannot create a board with height: %d", e.height)
	case tooLarge(e.width, e.height):
		return fmt.Sprintf("Board (%d, %d) exceeds %d cells", e.width, e.height, MaxCells)
	case e.mines < 1:
		return fmt.Sprintf("Cannot create a board with %d mines", e.mines)
	case e.mines >= e.width*e.height:
		return fmt.Sprintf("Not enough space for %d mines. (%d >= %d * %d)", e.mines, e.mines, e.width, e.height)
	default:
		return "Cannot construct board: unknown error"
	}
}

func (e *InvalidBoardParamsError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

type MoveResultType int

const (
	NoChange MoveResultType = iota
	MineBlown
	CellRevealed
	CellFlagged
	CellUnflagged
	GameWon
)

// MoveResult is what a front end needs to redraw after a move.
type MoveResult struct {
	Result       MoveResultType
	UpdatedCells []UpdatedCell
	// Mines is only set on MineBlown.
	Mines []Position
	// Elapsed is only set on GameWon.
	Elapsed time.Duration
}

type RevealResult struct {
	HitMine  bool
	Revealed []UpdatedCell
	Mines    []Position
	Status   GameStatus
	Elapsed  time.Duration
}

type FlagResult struct {
	NewState CellState
	Applied  bool
}

const (
	ShowCount byte = 0x00
	ShowMine  byte = 0x10
	ShowFlag  byte = 0x20
	Unflag    byte = 0x30
)

type UpdatedCell struct {
	X     int
	Y     int
	Value byte
}
