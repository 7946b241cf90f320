package client

import (
	"fmt"
	"image"
	"image/color"
	"time"

	"gioui.org/layout"
	"gioui.org/op"
	"gioui.org/op/clip"
	"gioui.org/op/paint"
	"gioui.org/unit"
	"gioui.org/widget/material"

	"github.com/tomasstrnad1997/sweeper/players"
)

// RecordsMenu lists the best times for the board just won.
type RecordsMenu struct {
	rows []players.Record
	list layout.List
}

func drawRow(gtx layout.Context, th *material.Theme, background color.NRGBA, name, elapsed string) layout.Dimensions {
	return layout.Inset{Top: unit.Dp(2), Left: unit.Dp(16), Right: unit.Dp(16), Bottom: unit.Dp(2)}.Layout(gtx,
		func(gtx layout.Context) layout.Dimensions {
			ops := gtx.Ops
			macro := op.Record(ops)
			dims := layout.UniformInset(unit.Dp(6)).Layout(gtx, func(gtx layout.Context) layout.Dimensions {
				return layout.Flex{
					Alignment: layout.Middle,
				}.Layout(gtx,
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return material.Body1(th, name).Layout(gtx)
					}),
					layout.Flexed(1, func(gtx layout.Context) layout.Dimensions {
						return layout.Spacer{Width: unit.Dp(16)}.Layout(gtx)
					}),
					layout.Rigid(func(gtx layout.Context) layout.Dimensions {
						return material.Body1(th, elapsed).Layout(gtx)
					}),
				)
			})
			call := macro.Stop()
			rr := clip.RRect{
				Rect: image.Rect(0, 0, gtx.Constraints.Max.X, dims.Size.Y),
				SE:   8,
				SW:   8,
				NE:   8,
				NW:   8,
			}
			paint.FillShape(ops, background, rr.Op(ops))
			call.Add(ops)
			return dims
		})
}

func drawRecordsHeader(gtx layout.Context, th *material.Theme) layout.Dimensions {
	return drawRow(gtx, th, color.NRGBA{R: 200, G: 200, B: 200, A: 255}, "Player", "Time")
}

func drawRecordRow(gtx layout.Context, th *material.Theme, rank int, record players.Record) layout.Dimensions {
	name := fmt.Sprintf("%d. %s", rank, record.PlayerName)
	return drawRow(gtx, th, color.NRGBA{R: 240, G: 240, B: 240, A: 255}, name, record.Elapsed.Round(time.Millisecond).String())
}

func drawRecordsMenu(gtx layout.Context, th *material.Theme, records *RecordsMenu) layout.Dimensions {
	if len(records.rows) == 0 {
		return layout.Dimensions{}
	}
	records.list.Axis = layout.Vertical
	return layout.Flex{
		Axis: layout.Vertical,
	}.Layout(gtx,
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return drawRecordsHeader(gtx, th)
		}),
		layout.Rigid(func(gtx layout.Context) layout.Dimensions {
			return records.list.Layout(gtx, len(records.rows), func(gtx layout.Context, i int) layout.Dimensions {
				return drawRecordRow(gtx, th, i+1, records.rows[i])
			})
		}),
	)
}
