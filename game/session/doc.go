// Package session runs 2048 games and keeps track of them.
//
// The session package implements:
//   - Session, one game driven by a single loop goroutine
//   - immutable snapshots published after every change
//   - observer and channel subscriptions with slow-subscriber eviction
//   - Manager, a thread-safe in-memory registry with expiry
//
// Core Types:
//
// Session owns a game engine and a move scheduler. Every mutation (move
// requests, settle callbacks, resets) runs as a task on the session loop, so
// the engine never needs a lock. After each committed move or reset the
// session stores a new Snapshot behind an atomic pointer and notifies
// observers exactly once. Snapshot() never waits on the loop.
//
// Manager maps short IDs to sessions. Lookup is case-insensitive.
//
// Session Identifiers:
//
// Generated IDs are 4 hex characters from crypto/rand. The manager retries
// on collision.
//
// Usage:
//
//	manager := session.NewManager(logger,
//		session.WithSessionOptions(session.WithSettle(150*time.Millisecond)))
//
//	sess, err := manager.Create("", engine.DefaultGameConfig())
//	if err != nil {
//		return err
//	}
//
//	decision, err := sess.RequestMove(ctx, engine.Left)
//	snap := sess.Snapshot()
//
// Cleanup:
//
// Delete, CleanupExpiredSessions and CloseAll close the sessions they
// remove, stopping their loops and closing subscriber channels.
package session
