package engine

import (
	"fmt"
	"strings"
)

// Direction is a move request direction
type Direction int

const (
	// NoDirection is the zero value and never a valid move
	NoDirection Direction = iota
	Up
	Down
	Left
	Right
)

const (
	// Size is the board edge length
	Size = 4

	// Validation constants
	MinTileValue    = 2
	DefaultWinTile  = 2048
	MaxInitialTiles = Size * Size
	MaxBulkMoves    = 100
)

// Directions lists every valid direction in a stable order
var Directions = []Direction{Up, Down, Left, Right}

// String returns the lowercase name used by controllers
func (d Direction) String() string {
	switch d {
	case Up:
		return "up"
	case Down:
		return "down"
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "none"
	}
}

// Valid reports whether d is one of the four move directions
func (d Direction) Valid() bool {
	return d >= Up && d <= Right
}

// ParseDirection maps controller input to a Direction.
// Accepts "up", "ArrowUp", "u" and friends, case-insensitive.
func ParseDirection(s string) (Direction, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up", "arrowup", "u":
		return Up, true
	case "down", "arrowdown", "d":
		return Down, true
	case "left", "arrowleft", "l":
		return Left, true
	case "right", "arrowright", "r":
		return Right, true
	default:
		return NoDirection, false
	}
}

// Tile is a numbered cell entity. Tiles are never mutated once placed on a
// board; every change produces a new Tile.
type Tile struct {
	ID       string `json:"id"`
	Value    int    `json:"value"`
	IsNew    bool   `json:"is_new,omitempty"`
	IsMerged bool   `json:"is_merged,omitempty"`
}

// NewTile creates a tile, panicking when value is not a power of two >= 2
func NewTile(id string, value int) *Tile {
	if !IsTileValue(value) {
		panic(fmt.Sprintf("engine: invalid tile value %d", value))
	}
	return &Tile{ID: id, Value: value}
}

// IsTileValue reports whether v is a power of two >= 2
func IsTileValue(v int) bool {
	return v >= MinTileValue && v&(v-1) == 0
}

// Position represents row/column coordinates on the board
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// IDFunc produces identities for spawned and merged tiles
type IDFunc func() string

// GameConfig represents a game preset
type GameConfig struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	FourProbability float64 `json:"four_probability"`
	InitialTiles    int     `json:"initial_tiles"`
	WinTile         int     `json:"win_tile"`
	WinDetection    bool    `json:"win_detection"`
}

// GameState represents the complete game state
type GameState struct {
	Board       Board              `json:"board"`
	Score       int                `json:"score"`
	GameOver    bool               `json:"game_over"`
	Won         bool               `json:"won"`
	Moves       int                `json:"moves"`
	ConfigName  string             `json:"config_name"`
	MoveHistory []MoveHistoryEntry `json:"move_history"`
}

// MoveHistoryEntry represents a single committed move
type MoveHistoryEntry struct {
	Direction  string    `json:"direction"`
	ScoreDelta int       `json:"score_delta"`
	Score      int       `json:"score"`
	Merges     int       `json:"merges"`
	Spawned    *Position `json:"spawned,omitempty"`
	MoveNumber int       `json:"move_number"`
	Timestamp  int64     `json:"timestamp"`
}

// Outcome is the result of running the admission path for one direction
type Outcome int

const (
	// OutcomeRejected means the request was ignored: invalid direction or terminal game
	OutcomeRejected Outcome = iota
	// OutcomeUnchanged means the slide moved nothing; no state was touched
	OutcomeUnchanged
	// OutcomeCommitted means a new board, score and spawn were committed
	OutcomeCommitted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeCommitted:
		return "committed"
	default:
		return "rejected"
	}
}

// MarshalText encodes the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// MarshalText encodes the direction by name
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText accepts anything ParseDirection does; unknown input decodes
// to NoDirection rather than failing
func (d *Direction) UnmarshalText(text []byte) error {
	*d, _ = ParseDirection(string(text))
	return nil
}
