package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/battleboard/game/engine"
	"github.com/wricardo/mcp-training/battleboard/game/service"
)

var (
	ErrConfigNotFound = errors.New("preset not found")
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// DefaultPresetName is loaded as the default when present
const DefaultPresetName = "classic"

// Manager loads table presets from a directory and caches them
type Manager struct {
	configDir     string
	defaultPreset *Preset
	presets       map[string]*Preset
	mu            sync.RWMutex
}

// NewManager creates a preset manager for configDir
func NewManager(configDir string) (*Manager, error) {
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		return nil, fmt.Errorf("config directory does not exist: %s", configDir)
	}

	m := &Manager{
		configDir: configDir,
		presets:   make(map[string]*Preset),
	}

	if err := m.loadDefaultPreset(); err != nil {
		return nil, fmt.Errorf("failed to load default preset: %w", err)
	}

	return m, nil
}

// LoadPreset loads a preset by name, with or without the .json extension
func (m *Manager) LoadPreset(name string) (*Preset, error) {
	name = strings.TrimSuffix(name, ".json")

	m.mu.RLock()
	if preset, exists := m.presets[name]; exists {
		m.mu.RUnlock()
		return preset, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if preset, exists := m.presets[name]; exists {
		return preset, nil
	}

	data, err := os.ReadFile(filepath.Join(m.configDir, name+".json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, name)
		}
		return nil, fmt.Errorf("failed to read preset file: %w", err)
	}

	var preset Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, name, err)
	}
	if err := ValidatePreset(&preset); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}

	m.presets[name] = &preset
	return &preset, nil
}

// ListPresets returns every valid preset in the directory, sorted by id
func (m *Manager) ListPresets() ([]*service.PresetInfo, error) {
	entries, err := os.ReadDir(m.configDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory: %w", err)
	}

	var presets []*service.PresetInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		id := strings.TrimSuffix(entry.Name(), ".json")
		preset, err := m.LoadPreset(id)
		if err != nil {
			// Skip invalid presets
			continue
		}

		presets = append(presets, &service.PresetInfo{
			Filename:              entry.Name(),
			PresetID:              id,
			Name:                  preset.Name,
			Description:           preset.Description,
			Players:               preset.Seeds(),
			MoveDelayMS:           preset.MoveDelayMS,
			BattleCompleteDelayMS: preset.BattleCompleteDelayMS,
		})
	}

	sort.Slice(presets, func(i, j int) bool { return presets[i].PresetID < presets[j].PresetID })
	return presets, nil
}

// GetDefault returns the default preset
func (m *Manager) GetDefault() *Preset {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultPreset
}

// SetDefault sets the default preset by name
func (m *Manager) SetDefault(name string) error {
	preset, err := m.LoadPreset(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultPreset = preset
	return nil
}

// RefreshCache drops cached presets so the next load reads the files again
func (m *Manager) RefreshCache() error {
	m.mu.Lock()
	m.presets = make(map[string]*Preset)
	m.mu.Unlock()

	return m.loadDefaultPreset()
}

// SavePreset validates and writes a preset to disk
func (m *Manager) SavePreset(name string, preset *Preset) error {
	if err := ValidatePreset(preset); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	name = strings.TrimSuffix(name, ".json")

	data, err := json.MarshalIndent(preset, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal preset: %w", err)
	}

	if err := os.WriteFile(filepath.Join(m.configDir, name+".json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write preset file: %w", err)
	}

	m.mu.Lock()
	m.presets[name] = preset
	m.mu.Unlock()

	return nil
}

// loadDefaultPreset picks classic, then the first valid preset, then a built-in one
func (m *Manager) loadDefaultPreset() error {
	preset, err := m.LoadPreset(DefaultPresetName)
	if err != nil {
		presets, listErr := m.ListPresets()
		if listErr != nil || len(presets) == 0 {
			preset = MinimalPreset()
		} else if preset, err = m.LoadPreset(presets[0].PresetID); err != nil {
			preset = MinimalPreset()
		}
	}

	m.mu.Lock()
	m.defaultPreset = preset
	m.mu.Unlock()
	return nil
}

// MinimalPreset is the two-player table used when no preset files exist
func MinimalPreset() *Preset {
	return &Preset{
		Name:                  "default",
		Description:           "Two players with the standard pacing",
		Players:               []engine.PlayerSeed{{Name: "Player 1"}, {Name: "Player 2"}},
		MoveDelayMS:           1000,
		BattleCompleteDelayMS: 2000,
	}
}
