// Package engine provides the core rules of the 2048 puzzle.
//
// The engine package implements:
//   - The 4x4 board of immutable tiles and its transforms
//   - Slide and merge of every line toward one edge
//   - Randomized tile spawning on empty cells
//   - Terminal state detection
//   - The synchronous admission path tying them together
//
// Core Types:
//
// Board is a fixed 4x4 array of optional *Tile values. Tiles carry a stable id
// so a renderer can follow a tile between snapshots; merged and spawned tiles
// get fresh ids. GameEngine owns one GameState and implements the Engine
// interface. It is not safe for concurrent use: the session package runs it on
// a single loop goroutine.
//
// Usage:
//
//	eng, err := engine.NewEngine(engine.DefaultGameConfig(), engine.WithSeed(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result := eng.Move(engine.Left)
//	if result.Committed() {
//		fmt.Println(eng.GetState().Board)
//	}
//
// Slide Rules:
//
// Each line is compressed toward its leading edge, then scanned once: two
// adjacent equal tiles become one tile of double value, and the produced tile
// is not compared again in the same pass, so [2,2,2,2] becomes [4,4,_,_].
// Up and Down transpose the board, reuse the Left and Right primitives and
// transpose back. A move that displaces no tile leaves the game untouched.
//
// Game Over:
//
// The game ends when the board is full and no two orthogonal neighbours are
// equal. Reaching the win tile sets Won only when the preset enables
// win_detection, and it never ends the game.
package engine
