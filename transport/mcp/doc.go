// Package mcp provides a Model Context Protocol server for the 2048 game.
//
// The mcp package implements:
//   - Tool definitions for every GameService operation
//   - Text rendering of boards, moves and history for AI agents
//   - Stdio transport
//
// MCP Tools:
//
// The package exposes the following tools for AI agents:
//   - create_session: Create a new game session with preset selection
//   - list_sessions: List all active sessions
//   - get_session: Get specific session details
//   - game_state: Board, score and possible moves
//   - move: Slide in one direction, optionally waiting for the settle window
//   - bulk_move: Several moves in order, as an array or a string like "LLUR"
//   - reset_game: Start the game over
//   - move_history: Committed moves with pagination
//   - list_configs: Available presets
//   - game_instructions: Rules and tips
//
// Errors from the service are returned as tool results with IsError set, so
// agents see the message instead of a protocol failure. Invalid directions
// are not errors; they come back as rejected moves.
//
// Usage:
//
//	srv := mcp.NewServer(gameService, logger)
//	if err := srv.Serve(); err != nil {
//		log.Fatal(err)
//	}
package mcp
