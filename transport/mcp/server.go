package mcp

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/game2048/game/service"
)

const (
	serverName    = "2048"
	serverVersion = "1.0.0"
)

// Server exposes a GameService as MCP tools
type Server struct {
	service   service.GameService
	mcpServer *server.MCPServer
	logger    *zap.Logger
}

// NewServer creates an MCP server with every game tool registered
func NewServer(svc service.GameService, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service: svc,
		logger:  logger,
	}
	s.initMCPServer()
	return s
}

// initMCPServer initializes the MCP server with all tools
func (s *Server) initMCPServer() {
	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
		server.WithInstructions(`2048 - MCP Interface

Slide numbered tiles on a 4x4 board. Equal tiles that collide merge into one
tile of double value and add that value to the score. After every move that
changes the board a new 2 (sometimes 4) appears on an empty cell. The game is
over when the board is full and no two neighbours are equal.

AVAILABLE TOOLS:
- create_session: Start a new game (optional preset)
- list_sessions / get_session: Inspect games
- game_state: Board, score and the moves that would change the board
- move: One move (up/down/left/right)
- bulk_move: Several moves in order, e.g. ["left","up"] or "LLUR"
- reset_game: Start the session over
- move_history: Committed moves, newest first
- list_configs: Available presets
- game_instructions: Rules and tips`),
	)

	s.registerTools()
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	sessionID := map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}

	// Session management
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_name": map[string]interface{}{
					"type":        "string",
					"description": "Preset to use (optional, see list_configs)",
				},
			},
		},
	}, s.handleCreateSession)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListSessions)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionID},
			Required:   []string{"session_id"},
		},
	}, s.handleGetSession)

	// Game operations
	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current board, score and possible moves",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionID},
			Required:   []string{"session_id"},
		},
	}, s.handleGameState)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move",
		Description: "Slide all tiles in a direction",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionID,
				"direction": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"up", "down", "left", "right"},
					"description": "Direction to slide",
				},
				"wait": map[string]interface{}{
					"type":        "boolean",
					"description": "Wait for the move animation to settle before returning (default true)",
				},
			},
			Required: []string{"session_id", "direction"},
		},
	}, s.handleMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "bulk_move",
		Description: "Execute multiple moves in sequence. Stops at game over or an invalid direction.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionID,
				"moves": map[string]interface{}{
					"oneOf": []interface{}{
						map[string]interface{}{
							"type": "array",
							"items": map[string]interface{}{
								"type": "string",
								"enum": []string{"up", "down", "left", "right"},
							},
						},
						map[string]interface{}{"type": "string"},
					},
					"description": `Array of moves, or a compact string such as "LLUR" or "left, up"`,
				},
			},
			Required: []string{"session_id", "moves"},
		},
	}, s.handleBulkMove)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "reset_game",
		Description: "Start the session's game over",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{"session_id": sessionID},
			Required:   []string{"session_id"},
		},
	}, s.handleReset)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "move_history",
		Description: "Get move history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionID,
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Oldest first (asc) or newest first (desc, default)",
				},
			},
			Required: []string{"session_id"},
		},
	}, s.handleMoveHistory)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleListConfigs)

	s.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get game rules and tips",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, s.handleGameInstructions)
}

// MCPServer returns the underlying MCP server
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// Serve runs the MCP server on stdio until stdin closes
func (s *Server) Serve() error {
	s.logger.Info("serving MCP on stdio")
	if err := server.ServeStdio(s.mcpServer); err != nil {
		return fmt.Errorf("serve MCP: %w", err)
	}
	return nil
}

// Tool handlers

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configName, _ := args["config_name"].(string)

	info, err := s.service.CreateSession(ctx, configName)
	if err != nil {
		return s.toolError("create_session", err), nil
	}

	result := fmt.Sprintf("Created session: %s\nConfig: %s\n\n%s", info.ID, info.ConfigName, formatGameState(info.State, nil))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := s.service.ListSessions(ctx)
	if err != nil {
		return s.toolError("list_sessions", err), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", len(sessions))
	for _, sess := range sessions {
		status := "playing"
		if sess.State.Terminal {
			status = "game over"
		}
		fmt.Fprintf(&b, "- %s (Config: %s, Score: %d, %s, Created: %s)\n",
			sess.ID, sess.ConfigName, sess.State.Score, status, sess.CreatedAt.Format("15:04:05"))
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	info, err := s.service.GetSession(ctx, sessionID)
	if err != nil {
		return s.toolError("get_session", err), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(info)), nil
}

func (s *Server) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	state, err := s.service.GetGameState(ctx, sessionID)
	if err != nil {
		return s.toolError("game_state", err), nil
	}

	return mcp.NewToolResultText(formatGameState(state.Snapshot, state.PossibleMoves)), nil
}

func (s *Server) handleMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	direction, _ := args["direction"].(string)
	wait, ok := args["wait"].(bool)
	if !ok {
		wait = true
	}

	result, err := s.service.Move(ctx, sessionID, direction, wait)
	if err != nil {
		return s.toolError("move", err), nil
	}

	return mcp.NewToolResultText(formatMoveResult(result)), nil
}

func (s *Server) handleBulkMove(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)
	moves := parseMoves(args["moves"])
	if len(moves) == 0 {
		return mcp.NewToolResultError("moves must be a non-empty array of directions"), nil
	}

	result, err := s.service.BulkMove(ctx, sessionID, moves)
	if err != nil {
		return s.toolError("bulk_move", err), nil
	}

	return mcp.NewToolResultText(formatBulkMoveResult(sessionID, result)), nil
}

func (s *Server) handleReset(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	snap, err := s.service.Reset(ctx, sessionID)
	if err != nil {
		return s.toolError("reset_game", err), nil
	}

	result := fmt.Sprintf("Game reset\n\n%s", formatGameState(snap, nil))
	return mcp.NewToolResultText(result), nil
}

func (s *Server) handleMoveHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, _ := args["session_id"].(string)

	opts := service.HistoryOptions{}
	if page, ok := args["page"].(float64); ok {
		opts.Page = int(page)
	}
	if limit, ok := args["limit"].(float64); ok {
		opts.Limit = int(limit)
	}
	opts.Order, _ = args["order"].(string)

	history, err := s.service.GetMoveHistory(ctx, sessionID, opts)
	if err != nil {
		return s.toolError("move_history", err), nil
	}

	return mcp.NewToolResultText(formatHistory(history)), nil
}

func (s *Server) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	configs, err := s.service.ListConfigs(ctx)
	if err != nil {
		return s.toolError("list_configs", err), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		win := "off"
		if config.WinDetection {
			win = fmt.Sprintf("at %d", config.WinTile)
		}
		fmt.Fprintf(&b, "• %s\n  %s\n  Start tiles: %d, Fours: %.0f%%, Win: %s\n\n",
			config.ConfigID, config.Description, config.InitialTiles, config.FourProbability*100, win)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (s *Server) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(instructions), nil
}

// toolError reports a failed call as a tool result, not a protocol error
func (s *Server) toolError(tool string, err error) *mcp.CallToolResult {
	s.logger.Debug("tool failed", zap.String("tool", tool), zap.Error(err))
	return mcp.NewToolResultError(err.Error())
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	return args
}

// parseMoves accepts an array of direction names or a compact string such as
// "LLUR" or "left,up"
func parseMoves(raw interface{}) []string {
	switch v := raw.(type) {
	case []interface{}:
		moves := make([]string, 0, len(v))
		for _, m := range v {
			if move, ok := m.(string); ok {
				moves = append(moves, move)
			}
		}
		return moves
	case []string:
		return v
	case string:
		if strings.ContainsAny(v, ", ") {
			return strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
		}
		moves := make([]string, 0, len(v))
		for _, r := range v {
			moves = append(moves, string(r))
		}
		return moves
	}
	return nil
}

const instructions = `2048 - Instructions

BOARD:
A 4x4 grid of numbered tiles. Every tile is a power of two.

MOVES:
• up, down, left, right slide every tile as far as it goes
• Two equal tiles that meet merge into one tile of double value
• A tile produced by a merge does not merge again in the same move
• [2,2,2,2] sliding left gives [4,4,_,_], never [8,_,_,_]
• A move that changes nothing is ignored and spawns nothing

SPAWNS:
After each move that changes the board one tile appears on a random empty
cell: a 2 most of the time, a 4 otherwise (see list_configs for odds).

SCORING:
Each merge adds the value of the merged tile to the score.

GAME OVER:
The board is full and no two horizontal or vertical neighbours are equal.
Presets with win detection also report when the win tile appears; play
continues after a win.

TIMING:
After a move the board animates for a short settle window. A move sent during
the window is queued; only the latest queued move is kept. The move tool waits
for the window by default, and bulk_move always does, so no move is dropped.

TIPS:
• Keep the largest tile in a corner and build a chain along one edge
• Prefer moves that keep the corner row full
• game_state lists the moves that would change the board`
