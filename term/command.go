package term

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tomasstrnad1997/sweeper/mines"
)

type CommandKind int

const (
	RevealCommand CommandKind = iota
	FlagCommand
	RestartCommand
	QuitCommand
	HelpCommand
)

type Command struct {
	Kind CommandKind
	X    int
	Y    int
	// Params is only used by restart; zero fields fall back to the engine
	// defaults.
	Params mines.GameParams
}

var ErrUnknownCommand = errors.New("unknown command")

const Usage = `commands:
  x y        reveal cell
  x y f      toggle flag
  r [w h m]  restart, optionally with a new size and mine count
  h          help
  q          quit`

func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return Command{}, fmt.Errorf("empty line: %w", ErrUnknownCommand)
	}
	switch strings.ToLower(fields[0]) {
	case "q", "quit", "exit":
		return Command{Kind: QuitCommand}, nil
	case "h", "help", "?":
		return Command{Kind: HelpCommand}, nil
	case "r", "restart":
		return parseRestart(fields[1:])
	}
	if len(fields) < 2 || len(fields) > 3 {
		return Command{}, fmt.Errorf("%q: %w", line, ErrUnknownCommand)
	}
	x, errX := strconv.Atoi(fields[0])
	y, errY := strconv.Atoi(fields[1])
	if errX != nil || errY != nil {
		return Command{}, fmt.Errorf("%q: coordinates must be integers: %w", line, ErrUnknownCommand)
	}
	cmd := Command{Kind: RevealCommand, X: x, Y: y}
	if len(fields) == 3 {
		if !strings.EqualFold(fields[2], "f") {
			return Command{}, fmt.Errorf("%q: %w", line, ErrUnknownCommand)
		}
		cmd.Kind = FlagCommand
	}
	return cmd, nil
}

func parseRestart(args []string) (Command, error) {
	cmd := Command{Kind: RestartCommand}
	if len(args) > 3 {
		return Command{}, fmt.Errorf("restart takes at most 3 numbers: %w", ErrUnknownCommand)
	}
	targets := []*int{&cmd.Params.Width, &cmd.Params.Height, &cmd.Params.Mines}
	for i, arg := range args {
		value, err := strconv.Atoi(arg)
		if err != nil {
			return Command{}, fmt.Errorf("restart argument %q: %w", arg, ErrUnknownCommand)
		}
		*targets[i] = value
	}
	return cmd, nil
}

func (cmd Command) Move() (mines.Move, bool) {
	switch cmd.Kind {
	case RevealCommand:
		return mines.Move{X: cmd.X, Y: cmd.Y, Type: mines.Reveal}, true
	case FlagCommand:
		return mines.Move{X: cmd.X, Y: cmd.Y, Type: mines.Flag}, true
	default:
		return mines.Move{}, false
	}
}
