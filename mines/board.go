package mines

import (
	"math/rand/v2"
	"strconv"
	"strings"
)

type Board struct {
	Width  int
	Height int
	Mines  int
	cells  []Cell
}

func CreateBoardFromParams(params GameParams, rng *rand.Rand) (*Board, error) {
	return CreateBoard(params.Width, params.Height, params.Mines, rng)
}

// CreateBoard places mines uniformly at random, drawing until every mine
// lands on a distinct cell.
func CreateBoard(width, height, mines int, rng *rand.Rand) (*Board, error) {
	params := GameParams{Width: width, Height: height, Mines: mines}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		rng = newRand()
	}
	board := newBoard(width, height, mines)
	placed := 0
	for placed < mines {
		x := rng.IntN(width)
		y := rng.IntN(height)
		cell := board.cell(x, y)
		if !cell.Mine {
			cell.Mine = true
			placed++
		}
	}
	board.countNeighborMines()
	return board, nil
}

// CreateBoardWithMines builds a board with a fixed mine layout.
func CreateBoardWithMines(width, height int, positions []Position) (*Board, error) {
	params := GameParams{Width: width, Height: height, Mines: len(positions)}
	if err := params.Validate(); err != nil {
		return nil, err
	}
	board := newBoard(width, height, len(positions))
	for _, pos := range positions {
		if !board.ValidCellIndex(pos.X, pos.Y) || board.cell(pos.X, pos.Y).Mine {
			return nil, &InvalidBoardParamsError{height: height, width: width, mines: len(positions), position: &pos}
		}
		board.cell(pos.X, pos.Y).Mine = true
	}
	board.countNeighborMines()
	return board, nil
}

func newBoard(width, height, mines int) *Board {
	return &Board{
		Width:  width,
		Height: height,
		Mines:  mines,
		cells:  make([]Cell, width*height),
	}
}

func newRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

func (board *Board) ValidCellIndex(x, y int) bool {
	return !(x < 0 || x >= board.Width || y >= board.Height || y < 0)
}

func (board *Board) cell(x, y int) *Cell {
	return &board.cells[y*board.Width+x]
}

// Cell returns a copy of the cell at (x, y).
func (board *Board) Cell(x, y int) (Cell, bool) {
	if !board.ValidCellIndex(x, y) {
		return Cell{}, false
	}
	return *board.cell(x, y), true
}

func (board *Board) neighbours(x, y int) []Position {
	positions := make([]Position, 0, 8)
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if board.ValidCellIndex(x+dx, y+dy) {
				positions = append(positions, Position{x + dx, y + dy})
			}
		}
	}
	return positions
}

func (board *Board) countNeighborMines() {
	for y := 0; y < board.Height; y++ {
		for x := 0; x < board.Width; x++ {
			count := 0
			for _, pos := range board.neighbours(x, y) {
				if board.cell(pos.X, pos.Y).Mine {
					count++
				}
			}
			board.cell(x, y).NeighborMines = count
		}
	}
}

// MinePositions lists every mine in row-major order.
func (board *Board) MinePositions() []Position {
	positions := make([]Position, 0, board.Mines)
	for y := 0; y < board.Height; y++ {
		for x := 0; x < board.Width; x++ {
			if board.cell(x, y).Mine {
				positions = append(positions, Position{x, y})
			}
		}
	}
	return positions
}

func (board *Board) countState(state CellState) int {
	count := 0
	for i := range board.cells {
		if board.cells[i].State == state {
			count++
		}
	}
	return count
}

func (board *Board) String() string {
	return board.Render(false)
}

// Render draws the board as text with a column header and row numbers.
// Mines are drawn as '*' when showMines is set.
func (board *Board) Render(showMines bool) string {
	var sb strings.Builder
	sb.WriteString("X")
	for i := 0; i < board.Width; i++ {
		sb.WriteString(strconv.Itoa(i % 10))
	}
	sb.WriteByte('\n')
	for y := 0; y < board.Height; y++ {
		sb.WriteString(strconv.Itoa(y % 10))
		for x := 0; x < board.Width; x++ {
			cell := board.cell(x, y)
			switch {
			case showMines && cell.Mine:
				sb.WriteByte('*')
			case cell.State == Revealed && cell.NeighborMines == 0:
				sb.WriteByte('.')
			case cell.State == Revealed:
				sb.WriteString(strconv.Itoa(cell.NeighborMines))
			case cell.State == Flagged:
				sb.WriteByte('F')
			default:
				sb.WriteByte('#')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
