package term

import (
	"strconv"
	"strings"

	"github.com/tomasstrnad1997/sweeper/mines"
)

const hiddenCell = 0xFF

// View mirrors a board from cell updates alone. The remote client keeps
// one, since it never sees the mine layout until the game is lost.
type View struct {
	Params mines.GameParams
	cells  []byte
}

func NewView(params mines.GameParams) *View {
	view := &View{Params: params, cells: make([]byte, params.Width*params.Height)}
	for i := range view.cells {
		view.cells[i] = hiddenCell
	}
	return view
}

func (view *View) Apply(updates []mines.UpdatedCell) {
	for _, update := range updates {
		if update.X < 0 || update.Y < 0 || update.X >= view.Params.Width || update.Y >= view.Params.Height {
			continue
		}
		value := update.Value
		if value == mines.Unflag {
			value = hiddenCell
		}
		view.cells[update.Y*view.Params.Width+update.X] = value
	}
}

func (view *View) FlagCount() int {
	count := 0
	for _, value := range view.cells {
		if value == mines.ShowFlag {
			count++
		}
	}
	return count
}

// String uses the same layout as mines.Board.Render.
func (view *View) String() string {
	var sb strings.Builder
	sb.WriteString("X")
	for i := 0; i < view.Params.Width; i++ {
		sb.WriteString(strconv.Itoa(i % 10))
	}
	sb.WriteByte('\n')
	for y := 0; y < view.Params.Height; y++ {
		sb.WriteString(strconv.Itoa(y % 10))
		for x := 0; x < view.Params.Width; x++ {
			value := view.cells[y*view.Params.Width+x]
			cell := mines.UpdatedCell{Value: value}
			switch {
			case value == hiddenCell:
				sb.WriteByte('#')
			case value == mines.ShowMine:
				sb.WriteByte('*')
			case value == mines.ShowFlag:
				sb.WriteByte('F')
			case cell.IsCount() && cell.Count() == 0:
				sb.WriteByte('.')
			case cell.IsCount():
				sb.WriteString(strconv.Itoa(cell.Count()))
			default:
				sb.WriteByte('?')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
