package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/scheduler"
	"github.com/wricardo/mcp-training/game2048/game/session"
)

// Pagination defaults for GetMoveHistory
const (
	DefaultHistoryLimit = 20
	MaxHistoryLimit     = 100
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	logger   *zap.Logger
	now      func() time.Time
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateSession creates a new game session from a preset. An empty name uses
// the default preset.
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	var config *engine.GameConfig
	if configName != "" {
		var err error
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			if ids := s.configIDs(); len(ids) > 0 {
				return nil, fmt.Errorf("load config %q (available: %s): %w", configName, strings.Join(ids, ", "), err)
			}
			return nil, fmt.Errorf("load config %q: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", config)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	s.logger.Info("session started",
		zap.String("session_id", sess.ID),
		zap.String("config", config.Name))

	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// Move submits one direction. Invalid directions and moves on a finished game
// are reported as rejected, not as errors. With wait set, Move returns after
// the settle window closes and any buffered move has been applied.
func (s *gameServiceImpl) Move(ctx context.Context, sessionID, direction string, wait bool) (*MoveResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	dir, ok := engine.ParseDirection(direction)
	if !ok {
		snap := sess.Snapshot()
		return &MoveResult{
			Decision:      scheduler.Rejected,
			Direction:     direction,
			Message:       fmt.Sprintf("Invalid direction %q. Use up, down, left or right.", direction),
			State:         &snap,
			PossibleMoves: possibleMoves(snap),
		}, nil
	}

	before := sess.Snapshot()
	decision, err := sess.RequestMove(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("move %s: %w", dir, err)
	}
	if wait {
		if err := sess.WaitIdle(ctx); err != nil {
			return nil, fmt.Errorf("wait for settle: %w", err)
		}
	}

	snap := sess.Snapshot()
	s.logger.Debug("move requested",
		zap.String("session_id", sess.ID),
		zap.Stringer("direction", dir),
		zap.Stringer("decision", decision),
		zap.Int("score", snap.Score))

	return &MoveResult{
		Success:       decision == scheduler.Admitted || decision == scheduler.Buffered,
		Decision:      decision,
		Direction:     dir.String(),
		Message:       moveMessage(dir, decision, before, snap),
		State:         &snap,
		PossibleMoves: possibleMoves(snap),
	}, nil
}

// BulkMove plays moves one after another. Each move waits for the previous
// settle window so none are coalesced. Moves that change nothing are recorded
// and skipped; the sequence stops at game over or an invalid direction.
func (s *gameServiceImpl) BulkMove(ctx context.Context, sessionID string, moves []string) (*BulkMoveResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.WaitIdle(ctx); err != nil {
		return nil, fmt.Errorf("wait for settle: %w", err)
	}

	start := sess.Snapshot()
	result := &BulkMoveResult{
		RequestedMoves: len(moves),
		Success:        true,
		Events:         make([]GameEvent, 0),
		StartScore:     start.Score,
	}

	// Limit moves to prevent abuse
	if len(moves) > engine.MaxBulkMoves {
		result.Truncated = true
		result.Limit = engine.MaxBulkMoves
		moves = moves[:engine.MaxBulkMoves]
	}

	wasWon := start.Won
	for i, move := range moves {
		before := sess.Snapshot()
		if before.Terminal {
			result.stop(i+1, "game_over", "Game over: no tile can move")
			break
		}

		dir, ok := engine.ParseDirection(move)
		if !ok {
			result.Success = false
			result.stop(i+1, "invalid_direction", fmt.Sprintf("Invalid direction %q", move))
			break
		}

		decision, err := sess.RequestMove(ctx, dir)
		if err == nil {
			err = sess.WaitIdle(ctx)
		}
		if err != nil {
			if ctx.Err() == nil {
				return nil, fmt.Errorf("move %d (%s): %w", i+1, dir, err)
			}
			result.Success = false
			result.stop(i+1, "cancelled", ctx.Err().Error())
			break
		}

		after := sess.Snapshot()
		step := StepInfo{
			Idx:         i + 1,
			Dir:         dir.String(),
			Decision:    decision,
			ScoreBefore: before.Score,
			ScoreAfter:  after.Score,
			MaxTile:     after.Board.MaxTile(),
		}
		if decision == scheduler.Admitted && after.LastMove != nil {
			step.Merges = after.LastMove.Merges
			step.Spawned = after.LastMove.Spawned
			result.MovesExecuted++
			result.Events = append(result.Events, GameEvent{
				Type:      "move",
				Message:   fmt.Sprintf("Moved %s (+%d)", dir, after.LastMove.ScoreDelta),
				Timestamp: s.now(),
			})
		}
		result.Steps = append(result.Steps, step)

		if after.Won && !wasWon {
			wasWon = true
			result.Events = append(result.Events, GameEvent{
				Type:      "win",
				Message:   fmt.Sprintf("Reached %d", sess.Config.WinTile),
				Timestamp: s.now(),
			})
		}
		if after.Terminal {
			result.Events = append(result.Events, GameEvent{
				Type:      "game_over",
				Message:   fmt.Sprintf("Game over with score %d", after.Score),
				Timestamp: s.now(),
			})
		}
	}

	end := sess.Snapshot()
	result.State = &end
	result.EndScore = end.Score
	result.ScoreDelta = end.Score - start.Score
	result.GameOver = end.Terminal
	result.PossibleMoves = possibleMoves(end)
	if result.Message == "" {
		result.Message = fmt.Sprintf("Executed %d of %d moves. Score: %d", result.MovesExecuted, len(moves), end.Score)
	}

	s.logger.Debug("bulk move finished",
		zap.String("session_id", sess.ID),
		zap.Int("executed", result.MovesExecuted),
		zap.Int("score", end.Score))

	return result, nil
}

// Reset starts the session's game over
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*session.Snapshot, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	snap, err := sess.Reset(ctx)
	if err != nil {
		return nil, fmt.Errorf("reset session %s: %w", sessionID, err)
	}
	return &snap, nil
}

// GetGameState returns the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*StateInfo, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	animating, err := sess.Animating(ctx)
	if err != nil {
		return nil, fmt.Errorf("game state %s: %w", sessionID, err)
	}
	snap := sess.Snapshot()
	return &StateInfo{
		Snapshot:      &snap,
		PossibleMoves: possibleMoves(snap),
		Animating:     animating,
	}, nil
}

// GetMoveHistory returns paginated move history
func (s *gameServiceImpl) GetMoveHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	history, err := sess.History(ctx)
	if err != nil {
		return nil, fmt.Errorf("move history %s: %w", sessionID, err)
	}
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultHistoryLimit
	}
	if opts.Limit > MaxHistoryLimit {
		opts.Limit = MaxHistoryLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := min(start+opts.Limit, total)

	moves := []engine.MoveHistoryEntry{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				moves = append(moves, history[i])
			}
		} else {
			moves = append(moves, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Moves:       moves,
		TotalMoves:  total,
		Page:        opts.Page,
		PageSize:    opts.Limit,
		TotalPages:  totalPages,
		HasNext:     opts.Page < totalPages,
		HasPrevious: opts.Page > 1,
	}, nil
}

// ListConfigs returns available game presets
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

// LoadConfig loads a specific game preset
func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(configName)
}

// session looks up a session and marks it as accessed
func (s *gameServiceImpl) session(id string) (*session.Session, error) {
	sess, err := s.sessions.Get(id)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", id, err)
	}
	_ = s.sessions.UpdateLastAccessed(id)
	return sess, nil
}

func (s *gameServiceImpl) configIDs() []string {
	configs, err := s.configs.ListConfigs()
	if err != nil {
		return nil
	}
	ids := make([]string, 0, len(configs))
	for _, cfg := range configs {
		ids = append(ids, cfg.ConfigID)
	}
	return ids
}

func (r *BulkMoveResult) stop(move int, code, reason string) {
	r.StoppedOnMove = move
	r.StopReasonCode = code
	r.StoppedReason = reason
	r.Message = reason
}

func sessionInfo(sess *session.Session) *SessionInfo {
	snap := sess.Snapshot()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigName:     sess.Config.Name,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		State:          &snap,
		GameConfig:     sess.Config,
	}
}

func possibleMoves(snap session.Snapshot) []string {
	dirs := snap.PossibleMoves()
	names := make([]string, 0, len(dirs))
	for _, d := range dirs {
		names = append(names, d.String())
	}
	return names
}

func moveMessage(dir engine.Direction, decision scheduler.Decision, before, after session.Snapshot) string {
	switch decision {
	case scheduler.Admitted:
		msg := fmt.Sprintf("Moved %s. Score: %d", dir, after.Score)
		if after.LastMove != nil && after.LastMove.ScoreDelta > 0 {
			msg = fmt.Sprintf("Moved %s (+%d). Score: %d", dir, after.LastMove.ScoreDelta, after.Score)
		}
		if after.Won && !before.Won {
			msg += ". You win!"
		}
		if after.Terminal {
			msg += ". Game over"
		}
		return msg
	case scheduler.Buffered:
		return fmt.Sprintf("Queued %s until the current move settles", dir)
	case scheduler.Unchanged:
		return fmt.Sprintf("Nothing moved %s", dir)
	default:
		if before.Terminal {
			return "Game over: start a new game with reset"
		}
		return fmt.Sprintf("Move %s rejected", dir)
	}
}
