package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/wricardo/mcp-training/game2048/game/config"
	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/service"
	"github.com/wricardo/mcp-training/game2048/game/session"
)

func newTestServer(t *testing.T) (*Server, *session.Manager) {
	t.Helper()
	logger := zaptest.NewLogger(t)
	sessions := session.NewManager(logger, session.WithSessionOptions(
		session.WithSettle(0),
		session.WithEngineOptions(engine.WithSeed(5)),
	))
	t.Cleanup(func() { _ = sessions.CloseAll() })

	configs, err := config.NewManager("")
	require.NoError(t, err)

	return NewServer(service.NewGameService(sessions, configs, logger), logger), sessions
}

func call(t *testing.T, handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]interface{}) (string, bool) {
	t.Helper()
	var request mcp.CallToolRequest
	request.Params.Arguments = args

	result, err := handler(context.Background(), request)
	require.NoError(t, err, "tool failures are reported in the result")
	require.NotEmpty(t, result.Content)

	switch c := result.Content[0].(type) {
	case mcp.TextContent:
		return c.Text, result.IsError
	case *mcp.TextContent:
		return c.Text, result.IsError
	}
	t.Fatalf("unexpected content %T", result.Content[0])
	return "", false
}

// newSession creates a session through the tool and puts values on its board
func newSession(t *testing.T, s *Server, sessions *session.Manager, values [engine.Size][engine.Size]int) string {
	t.Helper()
	text, isErr := call(t, s.handleCreateSession, map[string]interface{}{})
	require.False(t, isErr, text)
	require.Contains(t, text, "Created session:")

	var id string
	_, err := fmt.Sscanf(text, "Created session: %s", &id)
	require.NoError(t, err)
	sess, err := sessions.Get(id)
	require.NoError(t, err)
	_, err = sess.SetBoard(context.Background(), engine.BoardFromValues(values, engine.SequentialIDs("b")))
	require.NoError(t, err)
	return sess.ID
}

func TestServer_ListsTools(t *testing.T) {
	s, _ := newTestServer(t)

	raw := json.RawMessage(`{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	resp := s.MCPServer().HandleMessage(context.Background(), raw)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var decoded struct {
		Result struct {
			Tools []struct {
				Name        string `json:"name"`
				InputSchema struct {
					Properties map[string]struct {
						OneOf []struct {
							Type string `json:"type"`
						} `json:"oneOf"`
					} `json:"properties"`
				} `json:"inputSchema"`
			} `json:"tools"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(data, &decoded))

	var names []string
	for _, tool := range decoded.Result.Tools {
		names = append(names, tool.Name)
		if tool.Name == "bulk_move" {
			moves := tool.InputSchema.Properties["moves"]
			var types []string
			for _, alt := range moves.OneOf {
				types = append(types, alt.Type)
			}
			assert.ElementsMatch(t, []string{"array", "string"}, types, "bulk_move accepts arrays and compact strings")
		}
	}
	assert.ElementsMatch(t, []string{
		"create_session", "list_sessions", "get_session", "game_state", "move",
		"bulk_move", "reset_game", "move_history", "list_configs", "game_instructions",
	}, names)
}

func TestHandleCreateSession(t *testing.T) {
	s, _ := newTestServer(t)

	text, isErr := call(t, s.handleCreateSession, map[string]interface{}{"config_name": "hard"})
	assert.False(t, isErr)
	assert.Contains(t, text, "Config: hard")
	assert.Contains(t, text, "Possible moves:")

	text, isErr = call(t, s.handleCreateSession, map[string]interface{}{"config_name": "nope"})
	assert.True(t, isErr)
	assert.Contains(t, text, "classic")
}

func TestHandleMove(t *testing.T) {
	s, sessions := newTestServer(t)
	id := newSession(t, s, sessions, [engine.Size][engine.Size]int{{2, 2, 0, 0}})

	text, isErr := call(t, s.handleMove, map[string]interface{}{"session_id": id, "direction": "left"})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Moved left (+4)")
	assert.Contains(t, text, "Score: 4 | Moves: 1")

	text, isErr = call(t, s.handleMove, map[string]interface{}{"session_id": id, "direction": "sideways"})
	assert.False(t, isErr, "invalid direction is a no-op, not a failure")
	assert.Contains(t, text, "Invalid direction")
	assert.Contains(t, text, "Board unchanged.")

	text, isErr = call(t, s.handleMove, map[string]interface{}{"session_id": "zzzz", "direction": "up"})
	assert.True(t, isErr)
	assert.Contains(t, text, "session not found")
}

func TestHandleBulkMove(t *testing.T) {
	s, sessions := newTestServer(t)

	t.Run("array", func(t *testing.T) {
		id := newSession(t, s, sessions, [engine.Size][engine.Size]int{{2, 2, 0, 0}, {4, 4, 0, 0}})
		text, isErr := call(t, s.handleBulkMove, map[string]interface{}{
			"session_id": id,
			"moves":      []interface{}{"left", "bogus"},
		})
		require.False(t, isErr, text)
		assert.Contains(t, text, "executed 1 of 2")
		assert.Contains(t, text, "Score: 0 -> 12 (+12)")
		assert.Contains(t, text, "[invalid_direction]")
	})

	t.Run("compact string", func(t *testing.T) {
		id := newSession(t, s, sessions, [engine.Size][engine.Size]int{{2, 2, 0, 0}})
		text, isErr := call(t, s.handleBulkMove, map[string]interface{}{"session_id": id, "moves": "LD"})
		require.False(t, isErr, text)
		assert.Contains(t, text, "1. left admitted")
		assert.Contains(t, text, "2. down")
	})

	t.Run("no moves", func(t *testing.T) {
		_, isErr := call(t, s.handleBulkMove, map[string]interface{}{"session_id": "x"})
		assert.True(t, isErr)
	})
}

func TestHandleStateResetAndHistory(t *testing.T) {
	s, sessions := newTestServer(t)
	id := newSession(t, s, sessions, [engine.Size][engine.Size]int{{2, 4, 8, 16}})
	args := map[string]interface{}{"session_id": id}

	text, isErr := call(t, s.handleGameState, args)
	require.False(t, isErr, text)
	assert.Contains(t, text, "Possible moves: down")
	assert.Contains(t, text, "|    2 |    4 |    8 |   16 |")

	_, isErr = call(t, s.handleMove, map[string]interface{}{"session_id": id, "direction": "down"})
	require.False(t, isErr)

	text, isErr = call(t, s.handleMoveHistory, map[string]interface{}{"session_id": id, "limit": float64(5)})
	require.False(t, isErr, text)
	assert.Contains(t, text, "Total: 1")
	assert.Contains(t, text, "1. down +0")

	text, isErr = call(t, s.handleReset, args)
	require.False(t, isErr, text)
	assert.Contains(t, text, "Game reset")
	assert.Contains(t, text, "Score: 0 | Moves: 0")

	text, isErr = call(t, s.handleGetSession, args)
	require.False(t, isErr, text)
	assert.Contains(t, text, "Session: "+id)

	text, isErr = call(t, s.handleListSessions, nil)
	require.False(t, isErr)
	assert.Contains(t, text, "Active Sessions (1)")
}

func TestHandleGameOverState(t *testing.T) {
	s, sessions := newTestServer(t)
	id := newSession(t, s, sessions, [engine.Size][engine.Size]int{
		{0, 4096, 8192, 16384},
		{128, 256, 512, 1024},
		{256, 512, 1024, 2048},
		{512, 1024, 2048, 4096},
	})

	text, _ := call(t, s.handleMove, map[string]interface{}{"session_id": id, "direction": "left"})
	assert.Contains(t, text, "GAME OVER")
	assert.NotContains(t, text, "Possible moves")

	text, _ = call(t, s.handleMove, map[string]interface{}{"session_id": id, "direction": "up"})
	assert.Contains(t, text, "start a new game with reset")
}

func TestHandleListConfigsAndInstructions(t *testing.T) {
	s, _ := newTestServer(t)

	text, isErr := call(t, s.handleListConfigs, nil)
	require.False(t, isErr)
	for _, id := range []string{"classic", "practice", "hard"} {
		assert.Contains(t, text, "• "+id)
	}
	assert.Contains(t, text, "Fours: 50%")

	text, _ = call(t, s.handleGameInstructions, nil)
	assert.Contains(t, text, "[2,2,2,2] sliding left gives [4,4,_,_]")
}

func TestParseMoves(t *testing.T) {
	tests := []struct {
		name string
		raw  interface{}
		want []string
	}{
		{"json array", []interface{}{"up", 3, "left"}, []string{"up", "left"}},
		{"string slice", []string{"down"}, []string{"down"}},
		{"letters", "LLUR", []string{"L", "L", "U", "R"}},
		{"comma separated", "left, up", []string{"left", "up"}},
		{"missing", nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, parseMoves(tt.raw))
		})
	}
}

func TestFormatGrid(t *testing.T) {
	got := formatGrid([engine.Size][engine.Size]int{{2, 0, 0, 2048}})
	want := "+------+------+------+------+\n" +
		"|    2 |      |      | 2048 |\n" +
		"+------+------+------+------+\n" +
		"|      |      |      |      |\n" +
		"+------+------+------+------+\n" +
		"|      |      |      |      |\n" +
		"+------+------+------+------+\n" +
		"|      |      |      |      |\n" +
		"+------+------+------+------+\n"
	assert.Equal(t, want, got)
}
