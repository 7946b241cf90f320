package mines

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Game owns a single board and its lifecycle. It is not safe for
// concurrent use: callers serialise every move.
type Game struct {
	Params   GameParams
	board    *Board
	status   GameStatus
	revealed int
	start    time.Time
	end      time.Time

	rng    *rand.Rand
	now    func() time.Time
	layout []Position
}

type Option func(*Game)

func WithRand(rng *rand.Rand) Option {
	return func(g *Game) { g.rng = rng }
}

func WithClock(now func() time.Time) Option {
	return func(g *Game) { g.now = now }
}

// WithMines fixes the mine layout of the first board. Restarts go back to
// random placement.
func WithMines(positions []Position) Option {
	return func(g *Game) { g.layout = positions }
}

func CreateGame(params GameParams, opts ...Option) (*Game, error) {
	game := &Game{now: time.Now}
	for _, opt := range opts {
		opt(game)
	}
	if game.rng == nil {
		game.rng = newRand()
	}
	var board *Board
	var err error
	if game.layout != nil {
		if params.Mines > 0 && params.Mines != len(game.layout) {
			return nil, fmt.Errorf("layout holds %d mines, expected %d: %w", len(game.layout), params.Mines, ErrInvalidConfiguration)
		}
		board, err = CreateBoardWithMines(params.Width, params.Height, game.layout)
		game.layout = nil
	} else {
		board, err = CreateBoardFromParams(params.Resolve(), game.rng)
	}
	if err != nil {
		return nil, err
	}
	game.reset(board)
	return game, nil
}

func (game *Game) reset(board *Board) {
	game.board = board
	game.Params = GameParams{Width: board.Width, Height: board.Height, Mines: board.Mines}
	game.status = InProgress
	game.revealed = 0
	game.start = game.now()
	game.end = time.Time{}
}

// Restart replaces the board. Non-positive width or height keep the current
// dimensions, a non-positive mine count uses DefaultMines. The current board
// is kept if the new parameters are rejected.
func (game *Game) Restart(params GameParams) error {
	if params.Width <= 0 {
		params.Width = game.Params.Width
	}
	if params.Height <= 0 {
		params.Height = game.Params.Height
	}
	board, err := CreateBoardFromParams(params.Resolve(), game.rng)
	if err != nil {
		return err
	}
	game.reset(board)
	return nil
}

func (game *Game) Board() *Board {
	return game.board
}

func (game *Game) Width() int {
	return game.board.Width
}

func (game *Game) Height() int {
	return game.board.Height
}

func (game *Game) Status() GameStatus {
	return game.status
}

func (game *Game) Cell(x, y int) (Cell, bool) {
	return game.board.Cell(x, y)
}

func (game *Game) RevealedCount() int {
	return game.revealed
}

func (game *Game) FlagCount() int {
	return game.board.countState(Flagged)
}

// RemainingMines is the mine count minus placed flags; it goes negative
// when the player over-flags.
func (game *Game) RemainingMines() int {
	return game.board.Mines - game.FlagCount()
}

func (game *Game) MinePositions() []Position {
	return game.board.MinePositions()
}

func (game *Game) StartedAt() time.Time {
	return game.start
}

// Elapsed is only reported for won games.
func (game *Game) Elapsed() (time.Duration, bool) {
	if game.status != Won {
		return 0, false
	}
	return game.end.Sub(game.start), true
}

func (game *Game) Reveal(x, y int) RevealResult {
	result := RevealResult{Status: game.status}
	if game.status != InProgress || !game.board.ValidCellIndex(x, y) {
		return result
	}
	cell := game.board.cell(x, y)
	if cell.State != Hidden {
		return result
	}
	if cell.Mine {
		game.status = Lost
		game.end = game.now()
		result.HitMine = true
		result.Mines = game.board.MinePositions()
		result.Status = game.status
		return result
	}
	result.Revealed = game.cascade(x, y)
	game.revealed += len(result.Revealed)
	game.CheckWin()
	result.Status = game.status
	result.Elapsed, _ = game.Elapsed()
	return result
}

// cascade reveals (x, y) and, through zero cells, everything connected to
// it. Flagged and mined cells are never opened.
func (game *Game) cascade(x, y int) []UpdatedCell {
	var updated []UpdatedCell
	stack := []Position{{x, y}}
	for len(stack) > 0 {
		pos := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cell := game.board.cell(pos.X, pos.Y)
		if cell.State != Hidden || cell.Mine {
			continue
		}
		cell.State = Revealed
		updated = append(updated, UpdatedCell{X: pos.X, Y: pos.Y, Value: ShowCount | byte(cell.NeighborMines)})
		if cell.NeighborMines != 0 {
			continue
		}
		for _, n := range game.board.neighbours(pos.X, pos.Y) {
			if game.board.cell(n.X, n.Y).State == Hidden {
				stack = append(stack, n)
			}
		}
	}
	return updated
}

func (game *Game) ToggleFlag(x, y int) FlagResult {
	if game.status != InProgress || !game.board.ValidCellIndex(x, y) {
		return FlagResult{}
	}
	cell := game.board.cell(x, y)
	switch cell.State {
	case Hidden:
		cell.State = Flagged
	case Flagged:
		cell.State = Hidden
	default:
		return FlagResult{}
	}
	return FlagResult{NewState: cell.State, Applied: true}
}

// CheckWin moves the game to Won once every safe cell is revealed.
func (game *Game) CheckWin() bool {
	if game.status == InProgress && game.board.Width*game.board.Height-game.revealed == game.board.Mines {
		game.status = Won
		game.end = game.now()
	}
	return game.status == Won
}

func (game *Game) MakeMove(move Move) (*MoveResult, error) {
	switch move.Type {
	case Reveal:
		res := game.Reveal(move.X, move.Y)
		switch {
		case res.HitMine:
			return &MoveResult{Result: MineBlown, Mines: res.Mines}, nil
		case len(res.Revealed) == 0:
			return &MoveResult{Result: NoChange}, nil
		case res.Status == Won:
			return &MoveResult{Result: GameWon, UpdatedCells: res.Revealed, Elapsed: res.Elapsed}, nil
		default:
			return &MoveResult{Result: CellRevealed, UpdatedCells: res.Revealed}, nil
		}
	case Flag:
		res := game.ToggleFlag(move.X, move.Y)
		if !res.Applied {
			return &MoveResult{Result: NoChange}, nil
		}
		if res.NewState == Flagged {
			return &MoveResult{Result: CellFlagged, UpdatedCells: []UpdatedCell{{X: move.X, Y: move.Y, Value: ShowFlag}}}, nil
		}
		return &MoveResult{Result: CellUnflagged, UpdatedCells: []UpdatedCell{{X: move.X, Y: move.Y, Value: Unflag}}}, nil
	default:
		return nil, fmt.Errorf("%w %x", ErrInvalidMoveType, byte(move.Type))
	}
}
