package engine

import (
	"fmt"
	"strings"
)

// Board is the 4x4 grid; nil cells are empty
type Board [Size][Size]*Tile

// NewBoard returns an empty board
func NewBoard() Board {
	return Board{}
}

// BoardFromValues builds a board from a value matrix, 0 meaning empty.
// Tile ids are drawn from ids in row-major order.
func BoardFromValues(values [Size][Size]int, ids IDFunc) Board {
	var b Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if values[r][c] != 0 {
				b[r][c] = NewTile(ids(), values[r][c])
			}
		}
	}
	return b
}

// At returns the tile at row r, column c
func (b *Board) At(r, c int) *Tile {
	mustInBounds(r, c)
	return b[r][c]
}

// Set places t at row r, column c
func (b *Board) Set(r, c int, t *Tile) {
	mustInBounds(r, c)
	b[r][c] = t
}

// ResetFlags returns a clone whose tiles carry no isNew/isMerged marks.
// Used before every slide pass.
func (b Board) ResetFlags() Board {
	var out Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			t := b[r][c]
			if t == nil {
				continue
			}
			if !t.IsNew && !t.IsMerged {
				out[r][c] = t
				continue
			}
			out[r][c] = &Tile{ID: t.ID, Value: t.Value}
		}
	}
	return out
}

// Clone returns a board holding copies of every tile
func (b Board) Clone() Board {
	var out Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if t := b[r][c]; t != nil {
				cp := *t
				out[r][c] = &cp
			}
		}
	}
	return out
}

// EmptyCells enumerates empty positions in row-major order
func (b Board) EmptyCells() []Position {
	cells := make([]Position, 0, Size*Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == nil {
				cells = append(cells, Position{Row: r, Col: c})
			}
		}
	}
	return cells
}

// Occupied counts non-empty cells
func (b Board) Occupied() int {
	return Size*Size - len(b.EmptyCells())
}

// IsFull reports whether every cell holds a tile
func (b Board) IsFull() bool {
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if b[r][c] == nil {
				return false
			}
		}
	}
	return true
}

// Sum returns the total of all tile values
func (b Board) Sum() int {
	total := 0
	for _, row := range b {
		for _, t := range row {
			if t != nil {
				total += t.Value
			}
		}
	}
	return total
}

// MaxTile returns the largest tile value, 0 on an empty board
func (b Board) MaxTile() int {
	best := 0
	for _, row := range b {
		for _, t := range row {
			if t != nil && t.Value > best {
				best = t.Value
			}
		}
	}
	return best
}

// PlacedTile is a tile together with its cell
type PlacedTile struct {
	Tile
	Position
}

// Tiles lists occupied cells in row-major order
func (b Board) Tiles() []PlacedTile {
	out := make([]PlacedTile, 0, Size*Size)
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if t := b[r][c]; t != nil {
				out = append(out, PlacedTile{Tile: *t, Position: Position{Row: r, Col: c}})
			}
		}
	}
	return out
}

// Values returns the value matrix, 0 for empty cells
func (b Board) Values() [Size][Size]int {
	var out [Size][Size]int
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if t := b[r][c]; t != nil {
				out[r][c] = t.Value
			}
		}
	}
	return out
}

// Transpose swaps rows and columns. It is its own inverse.
func (b Board) Transpose() Board {
	var out Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			out[c][r] = b[r][c]
		}
	}
	return out
}

// ReverseRows mirrors every row left to right
func (b Board) ReverseRows() Board {
	var out Board
	for r := 0; r < Size; r++ {
		out[r] = reverseLine(b[r])
	}
	return out
}

// String renders the value matrix, one row per line, "." for empty cells
func (b Board) String() string {
	var sb strings.Builder
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			if c > 0 {
				sb.WriteByte(' ')
			}
			if t := b[r][c]; t != nil {
				fmt.Fprintf(&sb, "%5d", t.Value)
			} else {
				sb.WriteString("    .")
			}
		}
		if r < Size-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func reverseLine(line [Size]*Tile) [Size]*Tile {
	var out [Size]*Tile
	for i := 0; i < Size; i++ {
		out[i] = line[Size-1-i]
	}
	return out
}

func mustInBounds(r, c int) {
	if r < 0 || r >= Size || c < 0 || c >= Size {
		panic(fmt.Sprintf("engine: position (%d,%d) out of range", r, c))
	}
}
