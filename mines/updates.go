package mines

func updateValue(cell *Cell) byte {
	switch cell.State {
	case Revealed:
		return ShowCount | byte(cell.NeighborMines)
	case Flagged:
		return ShowFlag
	default:
		return Unflag
	}
}

// CellUpdates lists every cell a fresh view needs to draw: revealed and
// flagged cells, plus all mines once the game is lost.
func (game *Game) CellUpdates() []UpdatedCell {
	board := game.board
	updates := []UpdatedCell{}
	for y := 0; y < board.Height; y++ {
		for x := 0; x < board.Width; x++ {
			cell := board.cell(x, y)
			switch {
			case game.status == Lost && cell.Mine:
				updates = append(updates, UpdatedCell{X: x, Y: y, Value: ShowMine})
			case cell.State != Hidden:
				updates = append(updates, UpdatedCell{X: x, Y: y, Value: updateValue(cell)})
			}
		}
	}
	return updates
}

// MineUpdates turns mine positions into ShowMine updates.
func MineUpdates(positions []Position) []UpdatedCell {
	updates := make([]UpdatedCell, len(positions))
	for i, pos := range positions {
		updates[i] = UpdatedCell{X: pos.X, Y: pos.Y, Value: ShowMine}
	}
	return updates
}

// IsCount reports whether the update carries a neighbour count.
func (cell UpdatedCell) IsCount() bool {
	return cell.Value&0xF0 == ShowCount
}

func (cell UpdatedCell) Count() int {
	return int(cell.Value & 0x0F)
}
