// Package config provides configuration for the 2048 game.
//
// The config package handles:
//   - Process settings from the environment and an optional .env file
//   - Built-in game presets plus presets loaded from JSON files
//   - Preset validation and discovery
//
// Application Settings:
//
// AppConfig is parsed with caarlos0/env after godotenv loads any .env file.
// Variables already present in the environment win over .env values.
//
//	GAME2048_LOG_LEVEL         debug, info, warn or error (default info)
//	GAME2048_LOG_DEVELOPMENT   console encoder instead of JSON
//	GAME2048_SETTLE            animation window after a move (default 150ms)
//	GAME2048_PRESET            default preset (default classic)
//	GAME2048_CONFIG_DIR        directory of preset JSON files
//	GAME2048_SEED              spawn seed; 0 picks a random one
//	GAME2048_SESSION_TTL       idle time before a session expires (default 1h)
//	GAME2048_CLEANUP_INTERVAL  how often expired sessions are removed (default 10m)
//
// Presets:
//
// Three presets are built in:
//   - classic: two starting tiles, 10% fours, no win detection
//   - practice: only twos spawn, win flag at 2048
//   - hard: four starting tiles, half of the spawns are fours
//
// A preset file is an engine.GameConfig in JSON. The file name is the preset
// ID; omitted fields take the classic values. Built-in names take precedence
// over files with the same name.
//
//	{
//	  "name": "fours",
//	  "description": "Lots of fours",
//	  "four_probability": 0.5,
//	  "initial_tiles": 2,
//	  "win_tile": 2048,
//	  "win_detection": true
//	}
//
// Usage:
//
//	cfg, err := config.LoadAppConfig(".env")
//	manager, err := config.NewManager(cfg.ConfigDir)
//	if err := manager.SetDefault(cfg.Preset); err != nil {
//		return err
//	}
package config
