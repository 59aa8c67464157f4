package engine

// IsGameOver reports whether b is full and no two horizontally or vertically
// adjacent cells hold equal values
func IsGameOver(b Board) bool {
	if !b.IsFull() {
		return false
	}
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			v := b[r][c].Value
			if c < Size-1 && v == b[r][c+1].Value {
				return false
			}
			if r < Size-1 && v == b[r+1][c].Value {
				return false
			}
		}
	}
	return true
}

// HasTile reports whether any tile on b has reached value
func HasTile(b Board, value int) bool {
	return b.MaxTile() >= value
}

// PossibleMoves returns the directions that would change b
func PossibleMoves(b Board) []Direction {
	var moves []Direction
	for _, d := range Directions {
		if CanSlide(b, d) {
			moves = append(moves, d)
		}
	}
	return moves
}
