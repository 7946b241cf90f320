package term

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/tomasstrnad1997/sweeper/mines"
	"github.com/tomasstrnad1997/sweeper/players"
)

// Session executes parsed commands against a game, local or remote.
type Session interface {
	Start() error
	// Execute reports true once the session should end.
	Execute(cmd Command) (bool, error)
}

type WinRecorder interface {
	RecordWin(params mines.GameParams, elapsed time.Duration) (*players.Record, error)
}

func formatElapsed(elapsed time.Duration) string {
	return elapsed.Round(time.Millisecond).String()
}

// Run reads commands line by line until quit, EOF or ctx is done.
func Run(ctx context.Context, in io.Reader, out io.Writer, session Session) error {
	if err := session.Start(); err != nil {
		return err
	}
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case line := <-lines:
			cmd, err := ParseCommand(line)
			if errors.Is(err, ErrUnknownCommand) {
				fmt.Fprintf(out, "%v\n%s\n", err, Usage)
				continue
			}
			if cmd.Kind == HelpCommand {
				fmt.Fprintln(out, Usage)
				continue
			}
			quit, err := session.Execute(cmd)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}
