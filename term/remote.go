package term

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/tomasstrnad1997/sweeper/mines"
	"github.com/tomasstrnad1997/sweeper/protocol"
)

// Remote plays against a server session. Output is driven by the server's
// messages, which arrive on the controller's reader goroutine.
type Remote struct {
	controller *protocol.ConnectionController
	params     mines.GameParams
	out        io.Writer
	recorder   WinRecorder
	logger     *zap.SugaredLogger

	mu   sync.Mutex
	view *View
}

func NewRemote(controller *protocol.ConnectionController, params mines.GameParams, out io.Writer, recorder WinRecorder, logger *zap.SugaredLogger) *Remote {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	remote := &Remote{
		controller: controller,
		params:     params,
		out:        out,
		recorder:   recorder,
		logger:     logger,
	}
	remote.registerHandlers()
	return remote
}

func (remote *Remote) Start() error {
	return remote.send(protocol.EncodeGameStart(remote.params))
}

func (remote *Remote) send(msg []byte, err error) error {
	if err != nil {
		return err
	}
	return remote.controller.SendMessage(msg)
}

func (remote *Remote) Execute(cmd Command) (bool, error) {
	switch cmd.Kind {
	case QuitCommand:
		remote.controller.Close()
		return true, nil
	case RestartCommand:
		return false, remote.send(protocol.EncodeGameStart(cmd.Params))
	}
	move, ok := cmd.Move()
	if !ok {
		return false, nil
	}
	return false, remote.send(protocol.EncodeMove(move))
}

// printBoard must be called with mu held.
func (remote *Remote) printBoard() {
	if remote.view == nil {
		return
	}
	fmt.Fprint(remote.out, remote.view.String())
	fmt.Fprintf(remote.out, "%dx%d, mines left: %d\n", remote.view.Params.Width, remote.view.Params.Height, remote.view.Params.Mines-remote.view.FlagCount())
}

func (remote *Remote) registerHandlers() {
	remote.controller.RegisterHandler(protocol.TextMessage, func(data []byte) error {
		text, err := protocol.DecodeTextMessage(data)
		if err != nil {
			return err
		}
		remote.mu.Lock()
		defer remote.mu.Unlock()
		fmt.Fprintln(remote.out, text)
		return nil
	})
	remote.controller.RegisterHandler(protocol.StartGame, func(data []byte) error {
		params, err := protocol.DecodeGameStart(data)
		if err != nil {
			return err
		}
		if err := params.Validate(); err != nil {
			return fmt.Errorf("server sent unusable board: %w", err)
		}
		remote.mu.Lock()
		defer remote.mu.Unlock()
		remote.view = NewView(*params)
		return nil
	})
	remote.controller.RegisterHandler(protocol.CellUpdate, func(data []byte) error {
		cells, err := protocol.DecodeCellUpdates(data)
		if err != nil {
			return err
		}
		remote.mu.Lock()
		defer remote.mu.Unlock()
		if remote.view == nil {
			return fmt.Errorf("cell update before game start")
		}
		remote.view.Apply(cells)
		remote.printBoard()
		return nil
	})
	remote.controller.RegisterHandler(protocol.MineReveal, func(data []byte) error {
		positions, err := protocol.DecodeMineReveal(data)
		if err != nil {
			return err
		}
		remote.mu.Lock()
		defer remote.mu.Unlock()
		if remote.view != nil {
			remote.view.Apply(mines.MineUpdates(positions))
		}
		return nil
	})
	remote.controller.RegisterHandler(protocol.GameEnd, func(data []byte) error {
		info, err := protocol.DecodeGameEnd(data)
		if err != nil {
			return err
		}
		remote.mu.Lock()
		defer remote.mu.Unlock()
		switch info.Type {
		case protocol.Loss:
			fmt.Fprintln(remote.out, "BOOM")
			remote.printBoard()
		case protocol.Win:
			fmt.Fprintf(remote.out, "CLEARED in %s\n", formatElapsed(info.Elapsed))
			remote.record(info)
		default:
			fmt.Fprintln(remote.out, "Game aborted")
		}
		return nil
	})
}

func (remote *Remote) record(info *protocol.GameEndInfo) {
	if remote.recorder == nil || remote.view == nil {
		return
	}
	record, err := remote.recorder.RecordWin(remote.view.Params, info.Elapsed)
	if err != nil {
		remote.logger.Errorw("Failed to record win", "error", err)
		return
	}
	fmt.Fprintf(remote.out, "Recorded as %s\n", record.PlayerName)
}
