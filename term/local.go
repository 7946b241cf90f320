package term

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/tomasstrnad1997/sweeper/mines"
)

// Local plays against an in-process game.
type Local struct {
	game     *mines.Game
	out      io.Writer
	recorder WinRecorder
	logger   *zap.SugaredLogger
}

// NewLocal wraps game. recorder may be nil when no records database is
// configured.
func NewLocal(game *mines.Game, out io.Writer, recorder WinRecorder, logger *zap.SugaredLogger) *Local {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Local{game: game, out: out, recorder: recorder, logger: logger}
}

func (local *Local) Start() error {
	local.printBoard()
	return nil
}

func (local *Local) printBoard() {
	game := local.game
	fmt.Fprint(local.out, game.Board().Render(game.Status() == mines.Lost))
	fmt.Fprintf(local.out, "%dx%d, mines left: %d\n", game.Width(), game.Height(), game.RemainingMines())
}

func (local *Local) Execute(cmd Command) (bool, error) {
	switch cmd.Kind {
	case QuitCommand:
		return true, nil
	case RestartCommand:
		if err := local.game.Restart(cmd.Params); err != nil {
			fmt.Fprintf(local.out, "Cannot restart: %v\n", err)
			return false, nil
		}
		local.printBoard()
		return false, nil
	}
	move, ok := cmd.Move()
	if !ok {
		return false, nil
	}
	if local.game.Status() != mines.InProgress {
		fmt.Fprintln(local.out, "Game not running, use r to restart")
		return false, nil
	}
	result, err := local.game.MakeMove(move)
	if err != nil {
		return false, err
	}
	switch result.Result {
	case mines.MineBlown:
		fmt.Fprintln(local.out, "BOOM")
		local.printBoard()
	case mines.GameWon:
		local.printBoard()
		fmt.Fprintf(local.out, "CLEARED in %s\n", formatElapsed(result.Elapsed))
		local.record(result)
	default:
		local.printBoard()
	}
	return false, nil
}

func (local *Local) record(result *mines.MoveResult) {
	if local.recorder == nil {
		return
	}
	record, err := local.recorder.RecordWin(local.game.Params, result.Elapsed)
	if err != nil {
		local.logger.Errorw("Failed to record win", "error", err)
		return
	}
	fmt.Fprintf(local.out, "Recorded as %s\n", record.PlayerName)
}
