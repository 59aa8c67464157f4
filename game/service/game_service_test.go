package service_test

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/scheduler"
	"github.com/wricardo/mcp-training/game2048/game/service"
	"github.com/wricardo/mcp-training/game2048/game/session"
)

var errConfigMissing = errors.New("configuration not found")

// MockConfigManager implements service.ConfigManager for testing
type MockConfigManager struct {
	configs map[string]*engine.GameConfig
}

func NewMockConfigManager() *MockConfigManager {
	classic := engine.DefaultGameConfig()
	practice := engine.DefaultGameConfig()
	practice.Name = "practice"
	practice.FourProbability = 0
	return &MockConfigManager{
		configs: map[string]*engine.GameConfig{
			classic.Name:  classic,
			practice.Name: practice,
		},
	}
}

func (m *MockConfigManager) LoadConfig(name string) (*engine.GameConfig, error) {
	config, ok := m.configs[name]
	if !ok {
		return nil, errConfigMissing
	}
	return config, nil
}

func (m *MockConfigManager) ListConfigs() ([]*service.ConfigInfo, error) {
	var result []*service.ConfigInfo
	for name, config := range m.configs {
		result = append(result, &service.ConfigInfo{
			ConfigID:        name,
			Name:            config.Name,
			Source:          "builtin",
			FourProbability: config.FourProbability,
			InitialTiles:    config.InitialTiles,
			WinTile:         config.WinTile,
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ConfigID < result[j].ConfigID })
	return result, nil
}

func (m *MockConfigManager) GetDefault() *engine.GameConfig {
	return m.configs["classic"]
}

func createTestService(t *testing.T) (service.GameService, *session.Manager) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sessions := session.NewManager(logger, session.WithSessionOptions(
		session.WithSettle(0),
		session.WithEngineOptions(engine.WithSeed(1)),
	))
	t.Cleanup(func() { _ = sessions.CloseAll() })
	return service.NewGameService(sessions, NewMockConfigManager(), logger), sessions
}

// startFrom creates a session and replaces its board
func startFrom(t *testing.T, svc service.GameService, sessions *session.Manager, values [engine.Size][engine.Size]int) string {
	t.Helper()
	info, err := svc.CreateSession(context.Background(), "")
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	sess, err := sessions.Get(info.ID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sess.SetBoard(context.Background(), engine.BoardFromValues(values, engine.SequentialIDs("b"))); err != nil {
		t.Fatal(err)
	}
	return info.ID
}

func TestCreateSession(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	t.Run("default config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.ConfigName != "classic" {
			t.Errorf("Expected classic config, got %s", info.ConfigName)
		}
		if info.State == nil || len(info.State.Tiles) != 2 {
			t.Error("Expected a fresh board with two tiles")
		}
	})

	t.Run("named config", func(t *testing.T) {
		info, err := svc.CreateSession(ctx, "practice")
		if err != nil {
			t.Fatalf("Failed to create session: %v", err)
		}
		if info.GameConfig.FourProbability != 0 {
			t.Error("Expected practice preset")
		}
	})

	t.Run("unknown config", func(t *testing.T) {
		_, err := svc.CreateSession(ctx, "nope")
		if !errors.Is(err, errConfigMissing) {
			t.Fatalf("Expected wrapped config error, got %v", err)
		}
		if !strings.Contains(err.Error(), "classic, practice") {
			t.Errorf("Expected available configs in error, got %v", err)
		}
	})
}

func TestGetSession(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	created, _ := svc.CreateSession(ctx, "")
	info, err := svc.GetSession(ctx, strings.ToUpper(created.ID))
	if err != nil {
		t.Fatalf("Failed to get session: %v", err)
	}
	if info.ID != created.ID {
		t.Errorf("Expected %s, got %s", created.ID, info.ID)
	}

	if _, err := svc.GetSession(ctx, "missing"); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}
}

func TestListAndDeleteSessions(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.CreateSession(ctx, ""); err != nil {
			t.Fatal(err)
		}
	}
	sessions, _ := svc.ListSessions(ctx)
	if len(sessions) != 3 {
		t.Fatalf("Expected 3 sessions, got %d", len(sessions))
	}

	if err := svc.DeleteSession(ctx, sessions[0].ID); err != nil {
		t.Fatalf("Failed to delete session: %v", err)
	}
	if _, err := svc.GetSession(ctx, sessions[0].ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Error("Expected deleted session to be gone")
	}
	if err := svc.DeleteSession(ctx, sessions[0].ID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestMove(t *testing.T) {
	svc, sessions := createTestService(t)
	ctx := context.Background()

	t.Run("committed", func(t *testing.T) {
		id := startFrom(t, svc, sessions, [engine.Size][engine.Size]int{{2, 2, 0, 0}})
		result, err := svc.Move(ctx, id, "ArrowLeft", true)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if !result.Success || result.Decision != scheduler.Admitted {
			t.Errorf("Expected admitted move, got %s", result.Decision)
		}
		if result.Direction != "left" {
			t.Errorf("Expected direction left, got %s", result.Direction)
		}
		if result.State.Score != 4 || result.State.Moves != 1 {
			t.Errorf("Expected score 4 after one move, got %d after %d", result.State.Score, result.State.Moves)
		}
		if !strings.Contains(result.Message, "+4") {
			t.Errorf("Expected score delta in message, got %q", result.Message)
		}
	})

	t.Run("unchanged", func(t *testing.T) {
		id := startFrom(t, svc, sessions, [engine.Size][engine.Size]int{{2, 4, 8, 16}})
		result, err := svc.Move(ctx, id, "left", true)
		if err != nil {
			t.Fatalf("Move failed: %v", err)
		}
		if result.Success || result.Decision != scheduler.Unchanged {
			t.Errorf("Expected unchanged, got %s", result.Decision)
		}
		if result.State.Moves != 0 {
			t.Error("Expected no committed move")
		}
	})

	t.Run("invalid direction is not an error", func(t *testing.T) {
		id := startFrom(t, svc, sessions, [engine.Size][engine.Size]int{{2, 2, 0, 0}})
		result, err := svc.Move(ctx, id, "sideways", false)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if result.Success || result.Decision != scheduler.Rejected {
			t.Errorf("Expected rejected, got %s", result.Decision)
		}
		if len(result.PossibleMoves) == 0 {
			t.Error("Expected possible moves hint")
		}
	})

	t.Run("missing session", func(t *testing.T) {
		if _, err := svc.Move(ctx, "missing", "up", false); !errors.Is(err, session.ErrSessionNotFound) {
			t.Errorf("Expected ErrSessionNotFound, got %v", err)
		}
	})
}

func TestBulkMove(t *testing.T) {
	svc, sessions := createTestService(t)
	ctx := context.Background()

	t.Run("stops at invalid direction", func(t *testing.T) {
		id := startFrom(t, svc, sessions, [engine.Size][engine.Size]int{
			{2, 2, 0, 0},
			{4, 4, 0, 0},
		})
		result, err := svc.BulkMove(ctx, id, []string{"left", "bogus", "up"})
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if result.Success {
			t.Error("Expected failure on invalid direction")
		}
		if result.StopReasonCode != "invalid_direction" || result.StoppedOnMove != 2 {
			t.Errorf("Expected stop at move 2, got %s at %d", result.StopReasonCode, result.StoppedOnMove)
		}
		if result.MovesExecuted != 1 || len(result.Steps) != 1 {
			t.Errorf("Expected one executed step, got %d", result.MovesExecuted)
		}
		if result.ScoreDelta != 12 || result.Steps[0].Merges != 2 {
			t.Errorf("Expected +12 from two merges, got %+v", result.Steps[0])
		}
	})

	t.Run("stops at game over", func(t *testing.T) {
		id := startFrom(t, svc, sessions, [engine.Size][engine.Size]int{
			{0, 4096, 8192, 16384},
			{128, 256, 512, 1024},
			{256, 512, 1024, 2048},
			{512, 1024, 2048, 4096},
		})
		result, err := svc.BulkMove(ctx, id, []string{"left", "up", "down"})
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if !result.GameOver || result.StopReasonCode != "game_over" || result.StoppedOnMove != 2 {
			t.Errorf("Expected game over stop at move 2, got %+v", result)
		}
		if len(result.PossibleMoves) != 0 {
			t.Error("Expected no possible moves")
		}
		last := result.Events[len(result.Events)-1]
		if last.Type != "game_over" {
			t.Errorf("Expected game_over event, got %s", last.Type)
		}
	})

	t.Run("unchanged moves are skipped", func(t *testing.T) {
		id := startFrom(t, svc, sessions, [engine.Size][engine.Size]int{{2, 4, 8, 16}})
		result, err := svc.BulkMove(ctx, id, []string{"left", "down"})
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if len(result.Steps) != 2 || result.Steps[0].Decision != scheduler.Unchanged {
			t.Errorf("Expected first step unchanged, got %+v", result.Steps)
		}
		if result.MovesExecuted != 1 {
			t.Errorf("Expected one executed move, got %d", result.MovesExecuted)
		}
	})

	t.Run("truncated", func(t *testing.T) {
		info, _ := svc.CreateSession(ctx, "")
		moves := make([]string, engine.MaxBulkMoves+50)
		for i := range moves {
			moves[i] = []string{"up", "left", "down", "right"}[i%4]
		}
		result, err := svc.BulkMove(ctx, info.ID, moves)
		if err != nil {
			t.Fatalf("BulkMove failed: %v", err)
		}
		if !result.Truncated || result.Limit != engine.MaxBulkMoves {
			t.Error("Expected truncation at the bulk limit")
		}
		if result.RequestedMoves != len(moves) || len(result.Steps) > engine.MaxBulkMoves {
			t.Errorf("Unexpected counts: requested %d, steps %d", result.RequestedMoves, len(result.Steps))
		}
		if result.State.Moves != result.MovesExecuted {
			t.Errorf("Expected %d committed moves, got %d", result.MovesExecuted, result.State.Moves)
		}
	})
}

func TestReset(t *testing.T) {
	svc, sessions := createTestService(t)
	ctx := context.Background()

	id := startFrom(t, svc, sessions, [engine.Size][engine.Size]int{{2, 2, 0, 0}})
	if _, err := svc.Move(ctx, id, "left", true); err != nil {
		t.Fatal(err)
	}

	snap, err := svc.Reset(ctx, id)
	if err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if snap.Score != 0 || snap.Moves != 0 || snap.Event != session.EventReset {
		t.Errorf("Expected fresh game, got score %d moves %d", snap.Score, snap.Moves)
	}
}

func TestGetGameState(t *testing.T) {
	svc, sessions := createTestService(t)
	id := startFrom(t, svc, sessions, [engine.Size][engine.Size]int{{2, 4, 8, 16}})

	state, err := svc.GetGameState(context.Background(), id)
	if err != nil {
		t.Fatalf("GetGameState failed: %v", err)
	}
	if state.Animating {
		t.Error("Expected idle session")
	}
	want := map[string]bool{"down": true}
	if len(state.PossibleMoves) != len(want) || !want[state.PossibleMoves[0]] {
		t.Errorf("Expected only down to be possible, got %v", state.PossibleMoves)
	}
}

func TestGetMoveHistory(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	info, _ := svc.CreateSession(ctx, "")
	dirs := []string{"left", "up", "right", "down"}
	for i := 0; i < 100; i++ {
		result, err := svc.Move(ctx, info.ID, dirs[i%4], true)
		if err != nil {
			t.Fatal(err)
		}
		if result.State.Moves == 5 {
			break
		}
	}

	tests := []struct {
		name      string
		opts      service.HistoryOptions
		wantLen   int
		wantFirst int
		wantPages int
		wantNext  bool
	}{
		{"defaults", service.HistoryOptions{}, 5, 5, 1, false},
		{"desc first page", service.HistoryOptions{Page: 1, Limit: 2}, 2, 5, 3, true},
		{"asc first page", service.HistoryOptions{Page: 1, Limit: 2, Order: "asc"}, 2, 1, 3, true},
		{"asc last page", service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"}, 1, 5, 3, false},
		{"desc last page", service.HistoryOptions{Page: 3, Limit: 2}, 1, 1, 3, false},
		{"past the end", service.HistoryOptions{Page: 9, Limit: 2}, 0, 0, 3, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetMoveHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetMoveHistory failed: %v", err)
			}
			if resp.TotalMoves != 5 {
				t.Fatalf("Expected 5 moves in history, got %d", resp.TotalMoves)
			}
			if len(resp.Moves) != tt.wantLen {
				t.Fatalf("Expected %d moves, got %d", tt.wantLen, len(resp.Moves))
			}
			if tt.wantLen > 0 && resp.Moves[0].MoveNumber != tt.wantFirst {
				t.Errorf("Expected first move %d, got %d", tt.wantFirst, resp.Moves[0].MoveNumber)
			}
			if resp.TotalPages != tt.wantPages || resp.HasNext != tt.wantNext {
				t.Errorf("Expected %d pages (next=%v), got %d (next=%v)", tt.wantPages, tt.wantNext, resp.TotalPages, resp.HasNext)
			}
		})
	}

	resp, _ := svc.GetMoveHistory(ctx, info.ID, service.HistoryOptions{Limit: 1000})
	if resp.PageSize != service.MaxHistoryLimit {
		t.Errorf("Expected limit capped at %d, got %d", service.MaxHistoryLimit, resp.PageSize)
	}
}

func TestConfigs(t *testing.T) {
	svc, _ := createTestService(t)
	ctx := context.Background()

	configs, err := svc.ListConfigs(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(configs) != 2 {
		t.Errorf("Expected 2 configs, got %d", len(configs))
	}

	config, err := svc.LoadConfig(ctx, "practice")
	if err != nil {
		t.Fatal(err)
	}
	if config.Name != "practice" {
		t.Errorf("Expected practice, got %s", config.Name)
	}
}

func ExampleGameService_Move() {
	sessions := session.NewManager(nil, session.WithSessionOptions(session.WithSettle(0)))
	defer sessions.CloseAll()
	svc := service.NewGameService(sessions, NewMockConfigManager(), nil)

	ctx := context.Background()
	info, _ := svc.CreateSession(ctx, "classic")
	sess, _ := sessions.Get(info.ID)
	_, _ = sess.SetBoard(ctx, engine.BoardFromValues([engine.Size][engine.Size]int{{2, 2, 4, 0}}, engine.SequentialIDs("x")))

	result, _ := svc.Move(ctx, info.ID, "left", true)
	fmt.Println(result.Decision, result.State.Grid[0][:2], result.State.Score)
	// Output: admitted [4 4] 4
}
