package engine

import (
	"math/rand"
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// DefaultFourProbability is the chance a spawned tile is a 4 instead of a 2
const DefaultFourProbability = 0.1

// Spawner places randomized tiles on empty cells
type Spawner struct {
	rng             *rand.Rand
	fourProbability float64
	ids             IDFunc
}

// NewSpawner creates a spawner drawing from rng. fourProbability must be in [0,1].
func NewSpawner(rng *rand.Rand, fourProbability float64, ids IDFunc) *Spawner {
	if ids == nil {
		ids = UUIDs
	}
	return &Spawner{
		rng:             rng,
		fourProbability: fourProbability,
		ids:             ids,
	}
}

// Spawn returns b with one new tile on a uniformly chosen empty cell.
// When b is full it is returned unchanged and ok is false.
func (s *Spawner) Spawn(b Board) (out Board, pos Position, ok bool) {
	empty := b.EmptyCells()
	if len(empty) == 0 {
		return b, Position{}, false
	}

	pos = empty[s.rng.Intn(len(empty))]
	value := 2
	if s.rng.Float64() >= 1-s.fourProbability {
		value = 4
	}

	tile := NewTile(s.ids(), value)
	tile.IsNew = true

	out = b
	out.Set(pos.Row, pos.Col, tile)
	return out, pos, true
}

// UUIDs is the default IDFunc
func UUIDs() string {
	return uuid.NewString()
}

// SequentialIDs returns an IDFunc yielding prefix1, prefix2, ... for
// reproducible output
func SequentialIDs(prefix string) IDFunc {
	var n atomic.Int64
	return func() string {
		return prefix + strconv.FormatInt(n.Add(1), 10)
	}
}
