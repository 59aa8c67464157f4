package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// DefaultGameConfig returns the classic preset: two starting tiles, 10% fours,
// no win detection
func DefaultGameConfig() *GameConfig {
	return &GameConfig{
		Name:            "classic",
		Description:     "Classic 2048: two starting tiles, 10% fours, play until stuck",
		FourProbability: DefaultFourProbability,
		InitialTiles:    2,
		WinTile:         DefaultWinTile,
		WinDetection:    false,
	}
}

// ValidateGameConfig validates a game configuration for correctness and playability
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}

	// Validate required fields
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}

	if config.FourProbability < 0 || config.FourProbability > 1 {
		return fmt.Errorf("config validation: four_probability must be between 0 and 1, got %v", config.FourProbability)
	}

	if config.InitialTiles < 1 || config.InitialTiles > MaxInitialTiles {
		return fmt.Errorf("config validation: initial_tiles must be between 1 and %d, got %d", MaxInitialTiles, config.InitialTiles)
	}

	if config.WinDetection {
		if !IsTileValue(config.WinTile) || config.WinTile < 4 {
			return fmt.Errorf("config validation: win_tile must be a power of two >= 4 when win_detection is enabled, got %d", config.WinTile)
		}
	} else if config.WinTile != 0 && !IsTileValue(config.WinTile) {
		return fmt.Errorf("config validation: win_tile must be a power of two, got %d", config.WinTile)
	}

	return nil
}

// LoadGameConfig loads a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	config := DefaultGameConfig()
	config.Name = ""
	config.Description = ""
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file '%s': %w", filename, err)
	}

	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}
