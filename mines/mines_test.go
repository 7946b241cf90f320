package mines_test

import (
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/tomasstrnad1997/sweeper/mines"
)

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// tickingClock returns a clock that advances by step on every call.
func tickingClock(step time.Duration) func() time.Time {
	t := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func countMines(t *testing.T, board *mines.Board) int {
	t.Helper()
	count := 0
	for y := 0; y < board.Height; y++ {
		for x := 0; x < board.Width; x++ {
			cell, ok := board.Cell(x, y)
			if !ok {
				t.Fatalf("Cell (%d, %d) reported out of bounds", x, y)
			}
			if cell.Mine {
				count++
			}
		}
	}
	return count
}

func bruteNeighbours(board *mines.Board, x, y int) int {
	count := 0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			if dx == 0 && dy == 0 {
				continue
			}
			if cell, ok := board.Cell(x+dx, y+dy); ok && cell.Mine {
				count++
			}
		}
	}
	return count
}

func TestBoardGeneration(t *testing.T) {
	params := []mines.GameParams{
		{Width: 1, Height: 2, Mines: 1},
		{Width: 3, Height: 3, Mines: 8},
		{Width: 5, Height: 5, Mines: 3},
		{Width: 10, Height: 7, Mines: 20},
		{Width: 30, Height: 16, Mines: 99},
	}
	for i, p := range params {
		board, err := mines.CreateBoardFromParams(p, seeded(uint64(i)))
		if err != nil {
			t.Fatalf("Failed to create board %+v: %v", p, err)
		}
		if got := countMines(t, board); got != p.Mines {
			t.Fatalf("Board %+v has %d mines", p, got)
		}
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				cell, _ := board.Cell(x, y)
				if want := bruteNeighbours(board, x, y); cell.NeighborMines != want {
					t.Fatalf("Neighbour count at (%d, %d) is %d, expected %d", x, y, cell.NeighborMines, want)
				}
				if cell.State != mines.Hidden {
					t.Fatalf("Fresh cell (%d, %d) is %s", x, y, cell.State)
				}
			}
		}
	}
}

func TestDefaultMineCount(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 10, Height: 10})
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	if game.Params.Mines != 10 {
		t.Fatalf("Expected 10 default mines, got %d", game.Params.Mines)
	}
	game, err = mines.CreateGame(mines.GameParams{Width: 3, Height: 3, Mines: -4})
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	if game.Params.Mines != 1 {
		t.Fatalf("Expected at least one mine on a small board, got %d", game.Params.Mines)
	}
	if countMines(t, game.Board()) != game.Params.Mines {
		t.Fatalf("Mine count does not match params")
	}
}

func TestInvalidConfiguration(t *testing.T) {
	invalid := []mines.GameParams{
		{Width: 1, Height: 1, Mines: 1},
		{Width: 1, Height: 1, Mines: 0},
		{Width: 0, Height: 5, Mines: 1},
		{Width: 5, Height: -1, Mines: 1},
		{Width: 4, Height: 4, Mines: 16},
		{Width: 4, Height: 4, Mines: 17},
	}
	for _, p := range invalid {
		_, err := mines.CreateGame(p)
		if err == nil {
			t.Fatalf("Game %+v should not be created", p)
		}
		if !errors.Is(err, mines.ErrInvalidConfiguration) {
			t.Fatalf("Expected ErrInvalidConfiguration for %+v, got: %v", p, err)
		}
	}
}

func TestBoardSizeLimit(t *testing.T) {
	oversized := []mines.GameParams{
		{Width: 1 << 24, Height: 1 << 24, Mines: 1},
		{Width: mines.MaxCells + 1, Height: 1, Mines: 1},
		{Width: 1, Height: 1 << 30, Mines: 0},
		{Width: 1025, Height: 1024, Mines: 10},
	}
	for _, p := range oversized {
		_, err := mines.CreateGame(p)
		if !errors.Is(err, mines.ErrInvalidConfiguration) {
			t.Fatalf("Expected ErrInvalidConfiguration for %+v, got: %v", p, err)
		}
	}

	game, err := mines.CreateGame(mines.GameParams{Width: 1024, Height: 1024, Mines: 1}, mines.WithRand(seeded(3)))
	if err != nil {
		t.Fatalf("Board of exactly %d cells rejected: %v", mines.MaxCells, err)
	}
	err = game.Restart(mines.GameParams{Width: 1 << 24, Height: 1 << 24, Mines: 1})
	if !errors.Is(err, mines.ErrInvalidConfiguration) {
		t.Fatalf("Expected oversized restart to fail, got %v", err)
	}
	if game.Width() != 1024 || game.Height() != 1024 {
		t.Fatalf("Rejected restart changed the board to %dx%d", game.Width(), game.Height())
	}
}

func TestInvalidLayout(t *testing.T) {
	layouts := [][]mines.Position{
		{{0, 0}, {0, 0}},
		{{3, 0}},
		{{0, -1}},
	}
	for _, layout := range layouts {
		_, err := mines.CreateBoardWithMines(3, 3, layout)
		if !errors.Is(err, mines.ErrInvalidConfiguration) {
			t.Fatalf("Expected ErrInvalidConfiguration for layout %v, got: %v", layout, err)
		}
	}
	_, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3, Mines: 2}, mines.WithMines([]mines.Position{{1, 1}}))
	if !errors.Is(err, mines.ErrInvalidConfiguration) {
		t.Fatalf("Expected mismatched layout to fail, got: %v", err)
	}
}

func TestRevealNumberedCell(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3}, mines.WithMines([]mines.Position{{1, 1}}))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	res := game.Reveal(0, 0)
	if res.HitMine {
		t.Fatalf("Revealing (0, 0) hit a mine")
	}
	if len(res.Revealed) != 1 {
		t.Fatalf("Expected a single revealed cell, got %v", res.Revealed)
	}
	if res.Revealed[0].X != 0 || res.Revealed[0].Y != 0 || res.Revealed[0].Count() != 1 {
		t.Fatalf("Unexpected update %+v", res.Revealed[0])
	}
	if game.RevealedCount() != 1 {
		t.Fatalf("Expected one revealed cell, got %d", game.RevealedCount())
	}
	cell, _ := game.Cell(1, 0)
	if cell.State != mines.Hidden {
		t.Fatalf("Neighbour of a numbered cell was revealed")
	}
}

func TestRevealCascade(t *testing.T) {
	layout := []mines.Position{{3, 4}, {4, 3}}
	game, err := mines.CreateGame(mines.GameParams{Width: 5, Height: 5}, mines.WithMines(layout))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	res := game.Reveal(0, 0)
	if len(res.Revealed) != 22 {
		t.Fatalf("Expected 22 revealed cells, got %d", len(res.Revealed))
	}
	cell, _ := game.Cell(4, 4)
	if cell.State != mines.Hidden {
		t.Fatalf("(4, 4) is not reachable through zero cells but was revealed")
	}
	if game.Status() != mines.InProgress {
		t.Fatalf("Game should still be running, got %s", game.Status())
	}
	res = game.Reveal(4, 4)
	if res.Status != mines.Won || !game.CheckWin() {
		t.Fatalf("Revealing the last safe cell should win, got %s", res.Status)
	}
}

// closure computes the cells a reveal of (x, y) must open on a fresh board.
func closure(board *mines.Board, x, y int) map[mines.Position]bool {
	seen := map[mines.Position]bool{}
	queue := []mines.Position{{x, y}}
	for len(queue) > 0 {
		pos := queue[0]
		queue = queue[1:]
		cell, ok := board.Cell(pos.X, pos.Y)
		if !ok || cell.Mine || seen[pos] {
			continue
		}
		seen[pos] = true
		if cell.NeighborMines != 0 {
			continue
		}
		for dx := -1; dx <= 1; dx++ {
			for dy := -1; dy <= 1; dy++ {
				queue = append(queue, mines.Position{X: pos.X + dx, Y: pos.Y + dy})
			}
		}
	}
	return seen
}

func TestRevealClosure(t *testing.T) {
	for seed := uint64(0); seed < 50; seed++ {
		game, err := mines.CreateGame(mines.GameParams{Width: 12, Height: 9, Mines: 12}, mines.WithRand(seeded(seed)))
		if err != nil {
			t.Fatalf("Failed to create game: %v", err)
		}
		var start mines.Position
		for y := 0; y < game.Height(); y++ {
			for x := 0; x < game.Width(); x++ {
				if cell, _ := game.Cell(x, y); !cell.Mine && cell.NeighborMines == 0 {
					start = mines.Position{X: x, Y: y}
				}
			}
		}
		expected := closure(game.Board(), start.X, start.Y)
		res := game.Reveal(start.X, start.Y)
		if len(res.Revealed) != len(expected) {
			t.Fatalf("Seed %d: revealed %d cells, expected %d", seed, len(res.Revealed), len(expected))
		}
		for y := 0; y < game.Height(); y++ {
			for x := 0; x < game.Width(); x++ {
				cell, _ := game.Cell(x, y)
				if (cell.State == mines.Revealed) != expected[mines.Position{X: x, Y: y}] {
					t.Fatalf("Seed %d: cell (%d, %d) state %s does not match closure", seed, x, y, cell.State)
				}
			}
		}
	}
}

func TestFlagProtectsCell(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 4, Height: 4}, mines.WithMines([]mines.Position{{3, 3}}))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	if res := game.ToggleFlag(0, 0); !res.Applied || res.NewState != mines.Flagged {
		t.Fatalf("Flagging a hidden cell failed: %+v", res)
	}
	if res := game.Reveal(0, 0); res.HitMine || len(res.Revealed) != 0 {
		t.Fatalf("Revealing a flagged cell changed the board: %+v", res)
	}
	if res := game.ToggleFlag(3, 3); !res.Applied {
		t.Fatalf("Flagging the mine failed")
	}
	if res := game.Reveal(3, 3); res.HitMine {
		t.Fatalf("Flagged mine exploded")
	}
	// cascade from the opposite corner must go around the flag
	res := game.Reveal(3, 0)
	if len(res.Revealed) != 14 {
		t.Fatalf("Expected 14 revealed cells, got %d", len(res.Revealed))
	}
	cell, _ := game.Cell(0, 0)
	if cell.State != mines.Flagged {
		t.Fatalf("Cascade opened a flagged cell")
	}
	if game.Status() != mines.InProgress {
		t.Fatalf("Game should not be won while a safe cell is flagged")
	}
	if res := game.ToggleFlag(1, 1); res.Applied {
		t.Fatalf("Flagging a revealed cell should not apply")
	}
	if game.RemainingMines() != -1 {
		t.Fatalf("Expected -1 remaining mines, got %d", game.RemainingMines())
	}
}

func TestToggleFlagTwice(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3, Mines: 1})
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	first := game.ToggleFlag(2, 2)
	second := game.ToggleFlag(2, 2)
	if !first.Applied || first.NewState != mines.Flagged {
		t.Fatalf("First toggle: %+v", first)
	}
	if !second.Applied || second.NewState != mines.Hidden {
		t.Fatalf("Second toggle: %+v", second)
	}
	if res := game.ToggleFlag(-1, 5); res.Applied {
		t.Fatalf("Out of range flag applied")
	}
}

func TestOutOfRangeReveal(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3, Mines: 1})
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	for _, pos := range []mines.Position{{-1, 0}, {0, -1}, {3, 0}, {0, 3}} {
		if res := game.Reveal(pos.X, pos.Y); res.HitMine || len(res.Revealed) != 0 {
			t.Fatalf("Out of range reveal at %v changed the board", pos)
		}
	}
	if game.RevealedCount() != 0 {
		t.Fatalf("Revealed count changed")
	}
}

func TestMineIsTerminal(t *testing.T) {
	layout := []mines.Position{{0, 0}, {2, 1}}
	game, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3}, mines.WithMines(layout))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	game.ToggleFlag(2, 2)
	res := game.Reveal(2, 1)
	if !res.HitMine || res.Status != mines.Lost {
		t.Fatalf("Expected a mine hit, got %+v", res)
	}
	if len(res.Mines) != 2 || res.Mines[0] != layout[0] || res.Mines[1] != layout[1] {
		t.Fatalf("Unexpected mine list %v", res.Mines)
	}
	cell, _ := game.Cell(2, 1)
	if cell.State != mines.Hidden {
		t.Fatalf("Exploded mine changed state to %s", cell.State)
	}
	if res := game.Reveal(1, 1); len(res.Revealed) != 0 || res.Status != mines.Lost {
		t.Fatalf("Reveal after loss changed the board")
	}
	if res := game.ToggleFlag(0, 1); res.Applied {
		t.Fatalf("Flag after loss applied")
	}
	if res := game.ToggleFlag(2, 2); res.Applied {
		t.Fatalf("Unflag after loss applied")
	}
	if _, ok := game.Elapsed(); ok {
		t.Fatalf("Elapsed time reported for a lost game")
	}
	if game.CheckWin() {
		t.Fatalf("Lost game reported as won")
	}
}

func TestWinInAnyOrder(t *testing.T) {
	for seed := uint64(0); seed < 20; seed++ {
		rng := seeded(seed)
		game, err := mines.CreateGame(mines.GameParams{Width: 8, Height: 6, Mines: 9}, mines.WithRand(rng), mines.WithClock(tickingClock(time.Second)))
		if err != nil {
			t.Fatalf("Failed to create game: %v", err)
		}
		var safe []mines.Position
		for y := 0; y < game.Height(); y++ {
			for x := 0; x < game.Width(); x++ {
				if cell, _ := game.Cell(x, y); !cell.Mine {
					safe = append(safe, mines.Position{X: x, Y: y})
				}
			}
		}
		rng.Shuffle(len(safe), func(i, j int) { safe[i], safe[j] = safe[j], safe[i] })
		for _, pos := range safe {
			// a cascade can open the last safe cells early
			if game.Status() == mines.Won {
				break
			}
			if res := game.Reveal(pos.X, pos.Y); res.HitMine {
				t.Fatalf("Seed %d: safe cell %v hit a mine", seed, pos)
			}
		}
		if game.Status() != mines.Won {
			t.Fatalf("Seed %d: expected a win, got %s", seed, game.Status())
		}
		if game.RevealedCount() != 8*6-9 {
			t.Fatalf("Seed %d: revealed %d cells", seed, game.RevealedCount())
		}
		elapsed, ok := game.Elapsed()
		if !ok || elapsed != time.Second {
			t.Fatalf("Seed %d: expected 1s elapsed, got %v (%v)", seed, elapsed, ok)
		}
	}
}

func TestRestart(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 10, Height: 10, Mines: 30})
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	if err := game.Restart(mines.GameParams{}); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if game.Params != (mines.GameParams{Width: 10, Height: 10, Mines: 10}) {
		t.Fatalf("Restart should keep dimensions and use the default mine count, got %+v", game.Params)
	}
	if err := game.Restart(mines.GameParams{Width: 4, Mines: 5}); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if game.Params != (mines.GameParams{Width: 4, Height: 10, Mines: 5}) {
		t.Fatalf("Unexpected params after restart %+v", game.Params)
	}
	if countMines(t, game.Board()) != 5 {
		t.Fatalf("Restarted board has wrong mine count")
	}

	game.ToggleFlag(0, 0)
	before := game.Board()
	err = game.Restart(mines.GameParams{Width: 2, Height: 2, Mines: 4})
	if !errors.Is(err, mines.ErrInvalidConfiguration) {
		t.Fatalf("Expected ErrInvalidConfiguration, got %v", err)
	}
	if game.Board() != before || game.FlagCount() != 1 || game.Status() != mines.InProgress {
		t.Fatalf("Rejected restart modified the game")
	}
}

func TestRestartAfterLoss(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3}, mines.WithMines([]mines.Position{{1, 1}}))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	game.Reveal(1, 1)
	if game.Status() != mines.Lost {
		t.Fatalf("Expected lost game")
	}
	if err := game.Restart(mines.GameParams{}); err != nil {
		t.Fatalf("Restart failed: %v", err)
	}
	if game.Status() != mines.InProgress || game.RevealedCount() != 0 || len(game.CellUpdates()) != 0 {
		t.Fatalf("Restarted game is not fresh")
	}
}

func TestMakeMove(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3}, mines.WithMines([]mines.Position{{2, 2}}))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	res, err := game.MakeMove(mines.Move{X: 2, Y: 2, Type: mines.Flag})
	if err != nil || res.Result != mines.CellFlagged || res.UpdatedCells[0].Value != mines.ShowFlag {
		t.Fatalf("Flag move: %+v %v", res, err)
	}
	res, err = game.MakeMove(mines.Move{X: 2, Y: 2, Type: mines.Flag})
	if err != nil || res.Result != mines.CellUnflagged || res.UpdatedCells[0].Value != mines.Unflag {
		t.Fatalf("Unflag move: %+v %v", res, err)
	}
	res, err = game.MakeMove(mines.Move{X: 1, Y: 1, Type: mines.Reveal})
	if err != nil || res.Result != mines.CellRevealed || len(res.UpdatedCells) != 1 {
		t.Fatalf("Reveal move: %+v %v", res, err)
	}
	res, err = game.MakeMove(mines.Move{X: 1, Y: 1, Type: mines.Reveal})
	if err != nil || res.Result != mines.NoChange {
		t.Fatalf("Repeated reveal: %+v %v", res, err)
	}
	res, err = game.MakeMove(mines.Move{X: 0, Y: 0, Type: mines.Reveal})
	if err != nil || res.Result != mines.GameWon {
		t.Fatalf("Winning move: %+v %v", res, err)
	}
	if _, err := game.MakeMove(mines.Move{Type: 0x7F}); !errors.Is(err, mines.ErrInvalidMoveType) {
		t.Fatalf("Expected ErrInvalidMoveType, got %v", err)
	}
}

func TestMakeMoveMineBlown(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3}, mines.WithMines([]mines.Position{{2, 2}}))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	res, err := game.MakeMove(mines.Move{X: 2, Y: 2, Type: mines.Reveal})
	if err != nil || res.Result != mines.MineBlown || len(res.Mines) != 1 {
		t.Fatalf("Mine move: %+v %v", res, err)
	}
	updates := game.CellUpdates()
	if len(updates) != 1 || updates[0].Value != mines.ShowMine {
		t.Fatalf("Lost game snapshot should show the mine, got %v", updates)
	}
}

func TestRender(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3}, mines.WithMines([]mines.Position{{1, 1}}))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	game.Reveal(0, 0)
	game.ToggleFlag(2, 2)
	expected := "X012\n01##\n1###\n2##F\n"
	if got := game.Board().String(); got != expected {
		t.Fatalf("Unexpected render:\n%s\nexpected:\n%s", got, expected)
	}
	if got := game.Board().Render(true); got != "X012\n01##\n1#*#\n2##F\n" {
		t.Fatalf("Unexpected render with mines:\n%s", got)
	}
}

func TestCellUpdates(t *testing.T) {
	game, err := mines.CreateGame(mines.GameParams{Width: 3, Height: 3}, mines.WithMines([]mines.Position{{X: 1, Y: 1}}))
	if err != nil {
		t.Fatalf("Failed to create game: %v", err)
	}
	if updates := game.CellUpdates(); updates == nil || len(updates) != 0 {
		t.Fatalf("Fresh game should have an empty snapshot, got %v", updates)
	}
	game.Reveal(0, 0)
	game.ToggleFlag(2, 2)
	updates := game.CellUpdates()
	if len(updates) != 2 {
		t.Fatalf("Expected 2 updates, got %v", updates)
	}
	if !updates[0].IsCount() || updates[0].Count() != 1 {
		t.Fatalf("Expected count 1 at (0, 0), got %+v", updates[0])
	}
	if updates[1].Value != mines.ShowFlag {
		t.Fatalf("Expected flag at (2, 2), got %+v", updates[1])
	}
	game.Reveal(1, 1)
	updates = game.CellUpdates()
	if len(updates) != 3 || updates[1] != (mines.UpdatedCell{X: 1, Y: 1, Value: mines.ShowMine}) {
		t.Fatalf("Lost snapshot should include the mine, got %v", updates)
	}
}
