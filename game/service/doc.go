// Package service provides the business logic layer for the 2048 game.
//
// The service package implements:
//   - Multi-session game management
//   - Preset loading through a ConfigManager
//   - Move processing, including bulk moves that wait out each animation
//   - Paginated move history
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager creates, finds and removes sessions.
// ConfigManager loads and lists game presets.
//
// Architecture:
//
// The service layer sits between the MCP transport and the session package.
// It resolves direction names, translates scheduler decisions into messages,
// and never touches an engine directly: every change goes through a
// session's loop.
//
// Usage:
//
//	sessions := session.NewManager(logger)
//	configs, _ := config.NewManager("presets")
//	svc := service.NewGameService(sessions, configs, logger)
//
//	info, err := svc.CreateSession(ctx, "classic")
//	if err != nil {
//		return err
//	}
//
//	result, err := svc.Move(ctx, info.ID, "left", true)
//
// Session IDs are 4-character, case-insensitive and unique among live
// sessions.
package service
