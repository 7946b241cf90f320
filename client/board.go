package client

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"gioui.org/f32"
	"gioui.org/io/event"
	"gioui.org/io/input"
	"gioui.org/io/pointer"
	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/tomasstrnad1997/sweeper/mines"
)

const (
	cellSpacing int = 2
)

type pressedMouseButton byte

const (
	NoButton pressedMouseButton = iota
	PrimaryButton
	SecondaryButton
)

var (
	hiddenColor   = color.NRGBA{R: 0x30, G: 0x30, B: 0x30, A: 0xFF}
	revealedColor = color.NRGBA{R: 0xAA, G: 0xAA, B: 0xAA, A: 0xFF}
	flaggedColor  = color.NRGBA{R: 0xAA, G: 0x00, B: 0x00, A: 0xFF}
	mineColor     = color.NRGBA{R: 0xE0, G: 0x80, B: 0x00, A: 0xFF}
)

// CellAt maps a point in board coordinates to the cell under it. Points
// left of or above the board give negative coordinates, which the engine
// ignores.
func CellAt(pos f32.Point, tileSize int) mines.Position {
	return mines.Position{
		X: int(math.Floor(float64(pos.X) / float64(tileSize))),
		Y: int(math.Floor(float64(pos.Y) / float64(tileSize))),
	}
}

type boardPress struct {
	cell   mines.Position
	button pressedMouseButton
}

// readBoardPresses drains the press events delivered to the board area.
func readBoardPresses(tag event.Tag, q input.Source, tileSize int) []boardPress {
	var presses []boardPress
	for {
		ev, ok := q.Event(pointer.Filter{
			Target: tag,
			Kinds:  pointer.Press,
		})
		if !ok {
			break
		}
		x, ok := ev.(pointer.Event)
		if !ok || x.Kind != pointer.Press {
			continue
		}
		button := NoButton
		if x.Buttons.Contain(pointer.ButtonPrimary) {
			button = PrimaryButton
		} else if x.Buttons.Contain(pointer.ButtonSecondary) {
			button = SecondaryButton
		}
		if button != NoButton {
			presses = append(presses, boardPress{cell: CellAt(x.Position, tileSize), button: button})
		}
	}
	return presses
}

func getCellColorAndMark(cell mines.Cell, showMines bool) (c color.NRGBA, mark string) {
	switch {
	case showMines && cell.Mine:
		return mineColor, "X"
	case cell.State == mines.Revealed:
		if cell.NeighborMines > 0 {
			mark = strconv.Itoa(cell.NeighborMines)
		}
		return revealedColor, mark
	case cell.State == mines.Flagged:
		return flaggedColor, ""
	default:
		return hiddenColor, ""
	}
}

func drawMark(gtx layout.Context, th *material.Theme, mark string, tileDp int) {
	label := material.Label(th, unit.Sp(float32(tileDp)*0.7), mark)
	layout.Center.Layout(gtx, label.Layout)
}

// drawBoard handles pending presses and then paints every cell.
func drawBoard(gtx layout.Context, th *material.Theme, manager *GameManager) layout.Dimensions {
	tilePx := gtx.Dp(unit.Dp(manager.tileSize))
	for _, press := range readBoardPresses(&manager.boardTag, gtx.Source, tilePx) {
		manager.press(press.cell, press.button)
	}

	game := manager.game
	size := image.Point{X: game.Width() * tilePx, Y: game.Height() * tilePx}
	area := clip.Rect{Max: size}.Push(gtx.Ops)
	event.Op(gtx.Ops, &manager.boardTag)
	area.Pop()

	showMines := game.Status() == mines.Lost
	cellSize := image.Point{X: tilePx - cellSpacing, Y: tilePx - cellSpacing}
	for y := range game.Height() {
		for x := range game.Width() {
			cell, _ := game.Cell(x, y)
			c, mark := getCellColorAndMark(cell, showMines)
			stack := op.Offset(image.Point{X: x * tilePx, Y: y * tilePx}).Push(gtx.Ops)
			paint.FillShape(gtx.Ops, c, clip.Rect{Max: cellSize}.Op())
			if mark != "" {
				cellGtx := gtx
				cellGtx.Constraints = layout.Exact(cellSize)
				drawMark(cellGtx, th, mark, manager.tileSize)
			}
			stack.Pop()
		}
	}
	return layout.Dimensions{Size: size}
}
