package client

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gioui.org/app"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/unit"
	"gioui.org/widget"
	"gioui.org/widget/material"
	"go.uber.org/zap"

	"github.com/tomasstrnad1997/sweeper/mines"
	"github.com/tomasstrnad1997/sweeper/players"
)

type AppState int

const (
	GameStartMenu AppState = iota
	GameScreen
)

const bestTimesShown = 5

type WinRecorder interface {
	RecordWin(params mines.GameParams, elapsed time.Duration) (*players.Record, error)
}

type BestTimes interface {
	Best(params mines.GameParams, limit int) ([]players.Record, error)
}

type Options struct {
	Params mines.GameParams
	// TileSize is the cell size in dp.
	TileSize int
	// Recorder and Best are optional; without them wins are not stored.
	Recorder WinRecorder
	Best     BestTimes
	Logger   *zap.SugaredLogger
}

type Menu struct {
	widthEditor  widget.Editor
	heightEditor widget.Editor
	minesEditor  widget.Editor
	startButton  widget.Clickable

	restartButton widget.Clickable
	newGameButton widget.Clickable

	state   AppState
	message string
}

// GameManager owns the game. Only the window's event loop touches it.
type GameManager struct {
	game     *mines.Game
	tileSize int
	boardTag bool
	recorder WinRecorder
	best     BestTimes
	records  RecordsMenu
	now      func() time.Time
	logger   *zap.SugaredLogger
}

func newGameManager(opts Options) (*GameManager, error) {
	game, err := mines.CreateGame(opts.Params)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	tileSize := opts.TileSize
	if tileSize <= 0 {
		tileSize = 20
	}
	return &GameManager{
		game:     game,
		tileSize: tileSize,
		recorder: opts.Recorder,
		best:     opts.Best,
		now:      time.Now,
		logger:   logger,
	}, nil
}

func (manager *GameManager) press(cell mines.Position, button pressedMouseButton) *mines.MoveResult {
	var mType mines.MoveType
	switch button {
	case PrimaryButton:
		mType = mines.Reveal
	case SecondaryButton:
		mType = mines.Flag
	default:
		return nil
	}
	result, err := manager.game.MakeMove(mines.Move{X: cell.X, Y: cell.Y, Type: mType})
	if err != nil {
		manager.logger.Warnw("Move rejected", "error", err)
		return nil
	}
	if result.Result == mines.GameWon {
		manager.recordWin(result.Elapsed)
	}
	return result
}

func (manager *GameManager) recordWin(elapsed time.Duration) {
	if manager.recorder == nil {
		return
	}
	if _, err := manager.recorder.RecordWin(manager.game.Params, elapsed); err != nil {
		manager.logger.Errorw("Failed to record win", "error", err)
		return
	}
	if manager.best == nil {
		return
	}
	rows, err := manager.best.Best(manager.game.Params, bestTimesShown)
	if err != nil {
		manager.logger.Errorw("Failed to load best times", "error", err)
		return
	}
	manager.records.rows = rows
}

func (manager *GameManager) restart(params mines.GameParams) error {
	if err := manager.game.Restart(params); err != nil {
		return err
	}
	manager.records.rows = nil
	return nil
}

func (manager *GameManager) statusText() string {
	game := manager.game
	switch game.Status() {
	case mines.Won:
		elapsed, _ := game.Elapsed()
		return fmt.Sprintf("Cleared in %s", elapsed.Round(time.Millisecond))
	case mines.Lost:
		return "Game lost"
	default:
		running := manager.now().Sub(game.StartedAt()).Truncate(time.Second)
		return fmt.Sprintf("Mines left: %d   Time: %s", game.RemainingMines(), running)
	}
}

// parseField maps an empty or unparsable entry to 0, which Restart
// replaces with the previous dimension or the default mine count.
func parseField(text string) int {
	value, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0
	}
	return value
}

func parseParams(width, height, nMines string) mines.GameParams {
	return mines.GameParams{Width: parseField(width), Height: parseField(height), Mines: parseField(nMines)}
}

func drawConfigMenu(gtx layout.Context, th *material.Theme, menu *Menu) layout.Dimensions {
	return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{
			Axis:    layout.Vertical,
			Spacing: layout.SpaceAround,
		}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return material.Editor(th, &menu.widthEditor, "Width").Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Spacer{Height: unit.Dp(8)}.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return material.Editor(th, &menu.heightEditor, "Height").Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Spacer{Height: unit.Dp(8)}.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return material.Editor(th, &menu.minesEditor, "Number of Mines (empty for default)").Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Spacer{Height: unit.Dp(16)}.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return material.Body2(th, menu.message).Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return material.Button(th, &menu.startButton, "Start").Layout(gtx)
			}),
		)
	})
}

func drawGameScreen(gtx layout.Context, th *material.Theme, menu *Menu, manager *GameManager) layout.Dimensions {
	return layout.Center.Layout(gtx, func(gtx layout.Context) layout.Dimensions {
		return layout.Flex{
			Axis:      layout.Vertical,
			Spacing:   layout.SpaceAround,
			Alignment: layout.Middle,
		}.Layout(gtx,
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return material.H6(th, manager.statusText()).Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Spacer{Height: unit.Dp(8)}.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return drawBoard(gtx, th, manager)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Spacer{Height: unit.Dp(16)}.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{Axis: layout.Horizontal}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return material.Button(th, &menu.restartButton, "Restart").Layout(gtx)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return layout.Spacer{Width: unit.Dp(16)}.Layout(gtx)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return material.Button(th, &menu.newGameButton, "New game").Layout(gtx)
					}),
				)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return layout.Spacer{Height: unit.Dp(16)}.Layout(gtx)
			}),
			layout.Rigid(func(gtx layout.Context) layout.Dimensions {
				return drawRecordsMenu(gtx, th, &manager.records)
			}),
		)
	})
}

func handleStartGameButton(menu *Menu, manager *GameManager) {
	params := parseParams(menu.widthEditor.Text(), menu.heightEditor.Text(), menu.minesEditor.Text())
	if err := manager.restart(params); err != nil {
		menu.message = err.Error()
		return
	}
	menu.message = ""
	menu.state = GameScreen
}

func handleMenuButtons(gtx layout.Context, menu *Menu, manager *GameManager) {
	if menu.startButton.Clicked(gtx) {
		handleStartGameButton(menu, manager)
	}
	if menu.restartButton.Clicked(gtx) {
		if err := manager.restart(manager.game.Params); err != nil {
			manager.logger.Errorw("Restart failed", "error", err)
		}
	}
	if menu.newGameButton.Clicked(gtx) {
		menu.state = GameStartMenu
	}
}

func mainLoop(w *app.Window, th *material.Theme, menu *Menu, manager *GameManager) error {
	var ops op.Ops
	for {
		switch windowEvent := w.Event().(type) {
		case app.FrameEvent:
			gtx := app.NewContext(&ops, windowEvent)
			handleMenuButtons(gtx, menu, manager)
			switch menu.state {
			case GameStartMenu:
				drawConfigMenu(gtx, th, menu)
			case GameScreen:
				drawGameScreen(gtx, th, menu, manager)
			}
			windowEvent.Frame(gtx.Ops)
		case app.DestroyEvent:
			return windowEvent.Err
		}
	}
}

// invalidator redraws once a second so the running clock advances.
func invalidator(w *app.Window, done <-chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.Invalidate()
		case <-done:
			return
		}
	}
}

// RunClient opens the window and blocks until it is closed; it exits the
// process when the window goes away.
func RunClient(opts Options) error {
	manager, err := newGameManager(opts)
	if err != nil {
		return err
	}
	go func() {
		w := new(app.Window)
		w.Option(app.Title("Sweeper"))
		th := material.NewTheme()
		menu := &Menu{state: GameScreen}
		menu.widthEditor.SetText(strconv.Itoa(manager.game.Width()))
		menu.widthEditor.SingleLine = true
		menu.heightEditor.SetText(strconv.Itoa(manager.game.Height()))
		menu.heightEditor.SingleLine = true
		menu.minesEditor.SetText(strconv.Itoa(manager.game.Params.Mines))
		menu.minesEditor.SingleLine = true

		done := make(chan struct{})
		go invalidator(w, done)
		err := mainLoop(w, th, menu, manager)
		close(done)
		code := 0
		if err != nil {
			manager.logger.Errorw("Window closed with error", "error", err)
			code = 1
		}
		manager.logger.Sync()
		os.Exit(code)
	}()
	app.Main()
	return nil
}
