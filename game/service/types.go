package service

import (
	"time"

	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/scheduler"
	"github.com/wricardo/mcp-training/game2048/game/session"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	State          *session.Snapshot  `json:"state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// StateInfo is a snapshot plus the hints a controller needs to pick a move
type StateInfo struct {
	*session.Snapshot
	PossibleMoves []string `json:"possible_moves"`
	Animating     bool     `json:"animating"`
}

// MoveResult contains the result of a move request
type MoveResult struct {
	Success       bool               `json:"success"`
	Decision      scheduler.Decision `json:"decision"`
	Direction     string             `json:"direction"`
	Message       string             `json:"message"`
	State         *session.Snapshot  `json:"state"`
	PossibleMoves []string           `json:"possible_moves,omitempty"`
}

// BulkMoveResult contains the result of multiple moves
type BulkMoveResult struct {
	// Summary
	MovesExecuted  int               `json:"moves_executed"`
	RequestedMoves int               `json:"requested_moves"`
	Success        bool              `json:"success"`
	State          *session.Snapshot `json:"state"`
	Events         []GameEvent       `json:"events"`
	StoppedReason  string            `json:"stopped_reason,omitempty"`
	StopReasonCode string            `json:"stop_reason_code,omitempty"` // game_over|invalid_direction|cancelled
	StoppedOnMove  int               `json:"stopped_on_move,omitempty"`  // 1-based
	Truncated      bool              `json:"truncated,omitempty"`
	Limit          int               `json:"limit,omitempty"`

	StartScore int `json:"start_score"`
	EndScore   int `json:"end_score"`
	ScoreDelta int `json:"score_delta"`

	Steps []StepInfo `json:"steps,omitempty"`

	GameOver      bool     `json:"game_over"`
	Message       string   `json:"message,omitempty"`
	PossibleMoves []string `json:"possible_moves,omitempty"`
}

// StepInfo is a compact record for each requested move in a bulk call
type StepInfo struct {
	Idx         int                `json:"idx"`
	Dir         string             `json:"dir"`
	Decision    scheduler.Decision `json:"decision"`
	ScoreBefore int                `json:"score_before"`
	ScoreAfter  int                `json:"score_after"`
	Merges      int                `json:"merges,omitempty"`
	MaxTile     int                `json:"max_tile"`
	Spawned     *engine.Position   `json:"spawned,omitempty"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "move", "merge", "win", "game_over"
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryOptions configures move history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated move history
type HistoryResponse struct {
	Moves       []engine.MoveHistoryEntry `json:"moves"`
	TotalMoves  int                       `json:"total_moves"`
	Page        int                       `json:"page"`
	PageSize    int                       `json:"page_size"`
	TotalPages  int                       `json:"total_pages"`
	HasNext     bool                      `json:"has_next"`
	HasPrevious bool                      `json:"has_previous"`
}

// ConfigInfo describes a game preset
type ConfigInfo struct {
	ConfigID        string  `json:"config_id"` // The identifier to use for session creation
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	Source          string  `json:"source"` // "builtin" or the preset file path
	FourProbability float64 `json:"four_probability"`
	InitialTiles    int     `json:"initial_tiles"`
	WinTile         int     `json:"win_tile"`
	WinDetection    bool    `json:"win_detection"`
}
