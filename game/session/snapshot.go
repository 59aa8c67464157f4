package session

import (
	"github.com/wricardo/mcp-training/game2048/game/engine"
)

// Event names the change that produced a snapshot
type Event string

const (
	EventInit  Event = "init"
	EventMove  Event = "move"
	EventReset Event = "reset"
	EventSetup Event = "setup"
)

// Snapshot is a view of a session after one published change. Every copy
// handed out owns its tiles; editing one never reaches the session.
type Snapshot struct {
	SessionID  string                        `json:"session_id"`
	Seq        uint64                        `json:"seq"`
	Event      Event                         `json:"event"`
	Board      engine.Board                  `json:"-"`
	Grid       [engine.Size][engine.Size]int `json:"grid"`
	Tiles      []engine.PlacedTile           `json:"tiles"`
	Score      int                           `json:"score"`
	Terminal   bool                          `json:"terminal"`
	Won        bool                          `json:"won"`
	Moves      int                           `json:"moves"`
	ConfigName string                        `json:"config_name"`
	LastMove   *engine.MoveResult            `json:"last_move,omitempty"`
}

// PossibleMoves lists directions that would change the board, none once terminal
func (s Snapshot) PossibleMoves() []engine.Direction {
	if s.Terminal {
		return nil
	}
	return engine.PossibleMoves(s.Board)
}

func newSnapshot(id string, seq uint64, event Event, state *engine.GameState, last *engine.MoveResult) *Snapshot {
	return &Snapshot{
		SessionID:  id,
		Seq:        seq,
		Event:      event,
		Board:      state.Board.Clone(),
		Grid:       state.Board.Values(),
		Tiles:      state.Board.Tiles(),
		Score:      state.Score,
		Terminal:   state.GameOver,
		Won:        state.Won,
		Moves:      state.Moves,
		ConfigName: state.ConfigName,
		LastMove:   copyMove(last),
	}
}

// clone returns a copy sharing no tiles, slices or pointers with s
func (s *Snapshot) clone() Snapshot {
	out := *s
	out.Board = s.Board.Clone()
	out.Tiles = make([]engine.PlacedTile, len(s.Tiles))
	copy(out.Tiles, s.Tiles)
	out.LastMove = copyMove(s.LastMove)
	return out
}

func copyMove(m *engine.MoveResult) *engine.MoveResult {
	if m == nil {
		return nil
	}
	out := *m
	if m.Spawned != nil {
		pos := *m.Spawned
		out.Spawned = &pos
	}
	return &out
}
