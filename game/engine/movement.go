package engine

// SlideResult is the outcome of sliding a board in one direction
type SlideResult struct {
	Board      Board
	ScoreDelta int
	Merges     int
	Changed    bool
}

// Apply slides every line of b toward direction d and merges equal neighbours.
// Flags from the previous tick are cleared first. Merged tiles take fresh ids
// from ids. An invalid direction returns b unchanged.
func Apply(b Board, d Direction, ids IDFunc) SlideResult {
	src := b.ResetFlags()

	var out SlideResult
	switch d {
	case Left:
		out = slideLeft(src, ids)
	case Right:
		out = slideRight(src, ids)
	case Up:
		out = slideLeft(src.Transpose(), ids)
		out.Board = out.Board.Transpose()
	case Down:
		out = slideRight(src.Transpose(), ids)
		out.Board = out.Board.Transpose()
	default:
		return SlideResult{Board: b}
	}
	return out
}

// slideLeft is the primitive every other direction is expressed in
func slideLeft(b Board, ids IDFunc) SlideResult {
	res := SlideResult{}
	for r := 0; r < Size; r++ {
		line, score, merges := slideLine(b[r], ids)
		res.Board[r] = line
		res.ScoreDelta += score
		res.Merges += merges
		if !sameLine(b[r], line) {
			res.Changed = true
		}
	}
	return res
}

func slideRight(b Board, ids IDFunc) SlideResult {
	res := slideLeft(b.ReverseRows(), ids)
	res.Board = res.Board.ReverseRows()
	return res
}

// slideLine compresses a line toward index 0, merges adjacent equal tiles in a
// single pass and compresses once more. A merged tile is never re-examined.
func slideLine(line [Size]*Tile, ids IDFunc) ([Size]*Tile, int, int) {
	arr := compact(line[:])
	score, merges := 0, 0

	for i := 0; i < len(arr)-1; i++ {
		if arr[i] == nil || arr[i+1] == nil || arr[i].Value != arr[i+1].Value {
			continue
		}
		v := arr[i].Value * 2
		score += v
		merges++
		arr[i] = &Tile{ID: ids(), Value: v, IsMerged: true}
		arr[i+1] = nil
	}

	var out [Size]*Tile
	copy(out[:], compact(arr))
	return out, score, merges
}

func compact(tiles []*Tile) []*Tile {
	out := make([]*Tile, 0, len(tiles))
	for _, t := range tiles {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}

// sameLine compares the ordered (id, value) sequence of two lines
func sameLine(a, b [Size]*Tile) bool {
	for i := 0; i < Size; i++ {
		switch {
		case a[i] == nil && b[i] == nil:
		case a[i] == nil || b[i] == nil:
			return false
		case a[i].ID != b[i].ID || a[i].Value != b[i].Value:
			return false
		}
	}
	return true
}

// CanSlide reports whether sliding b toward d would change it
func CanSlide(b Board, d Direction) bool {
	if !d.Valid() {
		return false
	}
	return Apply(b, d, func() string { return "" }).Changed
}
