package engine

import (
	"math/rand"
	"time"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Game state management
	GetState() *GameState
	Reset() *GameState
	IsGameOver() bool
	IsVictory() bool
	GetScore() int

	// Movement operations
	Move(direction Direction) MoveResult
	CanMove(direction Direction) bool
	GetPossibleMoves() []Direction

	// Configuration
	GetConfig() *GameConfig

	// History
	GetMoveHistory() []MoveHistoryEntry
	GetLastMove() *MoveHistoryEntry
}

// MoveResult describes one pass through the admission path
type MoveResult struct {
	Outcome    Outcome   `json:"outcome"`
	Direction  Direction `json:"direction"`
	ScoreDelta int       `json:"score_delta"`
	Merges     int       `json:"merges"`
	Spawned    *Position `json:"spawned,omitempty"`
}

// Committed reports whether the move mutated the game
func (r MoveResult) Committed() bool {
	return r.Outcome == OutcomeCommitted
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; a session loop owns it.
type GameEngine struct {
	state   *GameState
	config  *GameConfig
	spawner *Spawner
	ids     IDFunc
	now     func() time.Time
}

// Option customizes a GameEngine
type Option func(*GameEngine)

// WithSeed makes spawning reproducible
func WithSeed(seed int64) Option {
	return func(e *GameEngine) {
		e.spawner = NewSpawner(rand.New(rand.NewSource(seed)), e.config.FourProbability, e.ids)
	}
}

// WithIDs replaces the tile id generator
func WithIDs(ids IDFunc) Option {
	return func(e *GameEngine) {
		e.ids = ids
		if e.spawner != nil {
			e.spawner.ids = ids
		}
	}
}

// WithNow replaces the clock used for history timestamps
func WithNow(now func() time.Time) Option {
	return func(e *GameEngine) {
		e.now = now
	}
}

// NewEngine creates a new game engine with the provided configuration and
// places the starting tiles
func NewEngine(config *GameConfig, opts ...Option) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := &GameEngine{
		config: config,
		ids:    UUIDs,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.spawner == nil {
		e.spawner = NewSpawner(rand.New(rand.NewSource(time.Now().UnixNano())), config.FourProbability, e.ids)
	}

	e.state = e.initState()
	return e, nil
}

// NewEngineWithDefaults creates a new game engine with the classic preset
func NewEngineWithDefaults(opts ...Option) *GameEngine {
	e, err := NewEngine(DefaultGameConfig(), opts...)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *GameEngine) initState() *GameState {
	board := NewBoard()
	for i := 0; i < e.config.InitialTiles; i++ {
		board, _, _ = e.spawner.Spawn(board)
	}

	return &GameState{
		Board:       board,
		Score:       0,
		GameOver:    IsGameOver(board),
		Won:         false,
		Moves:       0,
		ConfigName:  e.config.Name,
		MoveHistory: []MoveHistoryEntry{},
	}
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// SetBoard replaces the board with a copy of b, recomputing the terminal
// flag. Score and history are kept. Used by tools and tests to start from a
// known position.
func (e *GameEngine) SetBoard(b Board) {
	e.state.Board = b.Clone()
	e.state.GameOver = IsGameOver(b)
}

// Reset discards the current game and starts a fresh one
func (e *GameEngine) Reset() *GameState {
	e.state = e.initState()
	return e.state
}

// IsGameOver returns whether the game is over
func (e *GameEngine) IsGameOver() bool {
	return e.state.GameOver
}

// IsVictory returns whether the win tile was reached. Always false unless the
// preset enables win detection.
func (e *GameEngine) IsVictory() bool {
	return e.state.Won
}

// GetScore returns the current score
func (e *GameEngine) GetScore() int {
	return e.state.Score
}

// Move runs the admission path: slide, spawn, terminal check, commit.
// Nothing is mutated unless the outcome is OutcomeCommitted.
func (e *GameEngine) Move(direction Direction) MoveResult {
	result := MoveResult{Outcome: OutcomeRejected, Direction: direction}
	if !direction.Valid() || e.state.GameOver {
		return result
	}

	slid := Apply(e.state.Board, direction, e.ids)
	if !slid.Changed {
		result.Outcome = OutcomeUnchanged
		return result
	}

	board, pos, spawned := e.spawner.Spawn(slid.Board)

	e.state.Board = board
	e.state.Score += slid.ScoreDelta
	e.state.Moves++
	e.state.GameOver = IsGameOver(board)
	if e.config.WinDetection && !e.state.Won && HasTile(board, e.config.WinTile) {
		e.state.Won = true
	}

	result.Outcome = OutcomeCommitted
	result.ScoreDelta = slid.ScoreDelta
	result.Merges = slid.Merges
	if spawned {
		result.Spawned = &pos
	}

	e.state.AddMoveToHistory(result, e.now())
	return result
}

// CanMove checks if sliding in the specified direction would change the board
func (e *GameEngine) CanMove(direction Direction) bool {
	if e.state.GameOver {
		return false
	}
	return CanSlide(e.state.Board, direction)
}

// GetPossibleMoves returns all directions that would change the board
func (e *GameEngine) GetPossibleMoves() []Direction {
	if e.state.GameOver {
		return nil
	}
	return PossibleMoves(e.state.Board)
}

// GetConfig returns the current game configuration
func (e *GameEngine) GetConfig() *GameConfig {
	return e.config
}

// GetMoveHistory returns the complete move history
func (e *GameEngine) GetMoveHistory() []MoveHistoryEntry {
	return e.state.MoveHistory
}

// GetLastMove returns the last move made, or nil if no moves
func (e *GameEngine) GetLastMove() *MoveHistoryEntry {
	if len(e.state.MoveHistory) == 0 {
		return nil
	}
	return &e.state.MoveHistory[len(e.state.MoveHistory)-1]
}

// AddMoveToHistory appends a committed move to the game's history
func (gs *GameState) AddMoveToHistory(result MoveResult, at time.Time) {
	gs.MoveHistory = append(gs.MoveHistory, MoveHistoryEntry{
		Direction:  result.Direction.String(),
		ScoreDelta: result.ScoreDelta,
		Score:      gs.Score,
		Merges:     result.Merges,
		Spawned:    result.Spawned,
		MoveNumber: gs.Moves,
		Timestamp:  at.Unix(),
	})
}
