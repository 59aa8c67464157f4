package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"go.uber.org/multierr"

	"github.com/wricardo/mcp-training/game2048/game/engine"
	"github.com/wricardo/mcp-training/game2048/game/service"
)

var (
	ErrConfigNotFound = errors.New("configuration not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultPreset is the preset used when none is requested
const DefaultPreset = "classic"

// sourceBuiltin marks presets compiled into the binary
const sourceBuiltin = "builtin"

// Builtins returns fresh copies of the presets shipped with the game
func Builtins() []*engine.GameConfig {
	classic := engine.DefaultGameConfig()
	return []*engine.GameConfig{
		classic,
		{
			Name:            "practice",
			Description:     "Only twos spawn; stops celebrating at 2048",
			FourProbability: 0,
			InitialTiles:    2,
			WinTile:         engine.DefaultWinTile,
			WinDetection:    true,
		},
		{
			Name:            "hard",
			Description:     "Half of the spawns are fours and the board starts with four tiles",
			FourProbability: 0.5,
			InitialTiles:    4,
			WinTile:         engine.DefaultWinTile,
		},
	}
}

// Manager resolves preset names to game configurations. Built-in presets
// are always available; JSON files in the config directory add more.
// Built-in names take precedence over files with the same name.
type Manager struct {
	configDir     string
	defaultConfig *engine.GameConfig
	configs       map[string]*engine.GameConfig
	sources       map[string]string
	mu            sync.RWMutex
}

// NewManager creates a new configuration manager. An empty configDir serves
// the built-in presets only.
func NewManager(configDir string) (*Manager, error) {
	if configDir != "" {
		if _, err := os.Stat(configDir); os.IsNotExist(err) {
			return nil, fmt.Errorf("config directory does not exist: %s", configDir)
		}
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.GameConfig),
		sources:   make(map[string]string),
	}
	for _, config := range Builtins() {
		m.configs[config.Name] = config
		m.sources[config.Name] = sourceBuiltin
	}
	m.defaultConfig = m.configs[DefaultPreset]

	return m, nil
}

// LoadConfig loads a configuration by name (case-insensitive)
func (m *Manager) LoadConfig(name string) (*engine.GameConfig, error) {
	id := presetID(name)

	m.mu.RLock()
	// Check cache first
	if config, exists := m.configs[id]; exists {
		m.mu.RUnlock()
		return config, nil
	}
	m.mu.RUnlock()

	base := strings.TrimSuffix(strings.TrimSpace(name), ".json")
	if m.configDir == "" || base == "" || strings.ContainsAny(base, `/\`) || base == ".." {
		return nil, ErrConfigNotFound
	}

	path := filepath.Join(m.configDir, base+".json")
	config, err := loadFile(path)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Another caller may have loaded it meanwhile
	if cached, exists := m.configs[id]; exists {
		return cached, nil
	}
	m.configs[id] = config
	m.sources[id] = path
	return config, nil
}

// ListConfigs returns the built-in presets plus every valid preset file,
// sorted by ID. Invalid files are skipped; use Validate to report them.
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	if m.configDir != "" {
		paths, err := presetFiles(m.configDir)
		if err != nil {
			return nil, err
		}
		for _, path := range paths {
			// Skip invalid configs
			_, _ = m.LoadConfig(strings.TrimSuffix(filepath.Base(path), ".json"))
		}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	configs := make([]*service.ConfigInfo, 0, len(m.configs))
	for id, config := range m.configs {
		configs = append(configs, &service.ConfigInfo{
			ConfigID:        id,
			Name:            config.Name,
			Description:     config.Description,
			Source:          m.sources[id],
			FourProbability: config.FourProbability,
			InitialTiles:    config.InitialTiles,
			WinTile:         config.WinTile,
			WinDetection:    config.WinDetection,
		})
	}
	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default configuration
func (m *Manager) GetDefault() *engine.GameConfig {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultConfig
}

// SetDefault sets the default configuration by name
func (m *Manager) SetDefault(name string) error {
	config, err := m.LoadConfig(name)
	if err != nil {
		return fmt.Errorf("set default %q: %w", name, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultConfig = config
	return nil
}

// Validate checks every preset file in dir and returns the number of valid
// files along with one error per invalid file
func Validate(dir string) (int, error) {
	paths, err := presetFiles(dir)
	if err != nil {
		return 0, err
	}

	var (
		valid int
		errs  error
	)
	for _, path := range paths {
		if _, err := loadFile(path); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("%s: %w", filepath.Base(path), err))
			continue
		}
		valid++
	}
	return valid, errs
}

func loadFile(path string) (*engine.GameConfig, error) {
	config, err := engine.LoadGameConfig(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	// The file name is the preset ID
	config.Name = presetID(filepath.Base(path))
	return config, nil
}

func presetFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	return paths, nil
}

func presetID(name string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(name), ".json"))
}
