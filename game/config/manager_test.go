package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mcp-training/battleboard/game/engine"
)

func createValidPreset() *Preset {
	return &Preset{
		Name:        "Test Preset",
		Description: "Test table",
		Players: []engine.PlayerSeed{
			{Name: "Ada", Color: "red"},
			{Name: "Grace", Color: "blue"},
		},
		MoveDelayMS:           500,
		BattleCompleteDelayMS: 750,
	}
}

func writePresetFile(t *testing.T, dir, name string, preset *Preset) {
	t.Helper()
	data, err := json.MarshalIndent(preset, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".json"), data, 0644))
}

func TestNewManager(t *testing.T) {
	t.Run("valid directory", func(t *testing.T) {
		dir := t.TempDir()
		classic := createValidPreset()
		classic.Name = "Classic"
		writePresetFile(t, dir, "classic", classic)

		manager, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Classic", manager.GetDefault().Name)
	})

	t.Run("non-existent directory", func(t *testing.T) {
		_, err := NewManager("/non/existent/path")
		assert.Error(t, err)
	})

	t.Run("empty directory falls back to minimal preset", func(t *testing.T) {
		manager, err := NewManager(t.TempDir())
		require.NoError(t, err)

		preset := manager.GetDefault()
		require.NotNil(t, preset)
		assert.Equal(t, "default", preset.Name)
		assert.NoError(t, ValidatePreset(preset))
	})

	t.Run("first valid preset when classic is missing", func(t *testing.T) {
		dir := t.TempDir()
		quick := createValidPreset()
		quick.Name = "Quick"
		writePresetFile(t, dir, "quick", quick)

		manager, err := NewManager(dir)
		require.NoError(t, err)
		assert.Equal(t, "Quick", manager.GetDefault().Name)
	})
}

func TestManager_LoadPreset(t *testing.T) {
	dir := t.TempDir()
	writePresetFile(t, dir, "classic", createValidPreset())
	four := createValidPreset()
	four.Name = "Four"
	four.Players = append(four.Players, engine.PlayerSeed{Name: "Linus"}, engine.PlayerSeed{Name: "Ken"})
	writePresetFile(t, dir, "four", four)

	manager, err := NewManager(dir)
	require.NoError(t, err)

	t.Run("load existing preset", func(t *testing.T) {
		preset, err := manager.LoadPreset("four")
		require.NoError(t, err)
		assert.Equal(t, "Four", preset.Name)
		assert.Len(t, preset.Players, 4)
	})

	t.Run("load with .json extension", func(t *testing.T) {
		preset, err := manager.LoadPreset("four.json")
		require.NoError(t, err)
		assert.Equal(t, "Four", preset.Name)
	})

	t.Run("load from cache", func(t *testing.T) {
		first, err := manager.LoadPreset("four")
		require.NoError(t, err)
		second, err := manager.LoadPreset("four")
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("load non-existent preset", func(t *testing.T) {
		_, err := manager.LoadPreset("non-existent")
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("load malformed preset", func(t *testing.T) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{not json"), 0644))
		_, err := manager.LoadPreset("broken")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("load preset with one player", func(t *testing.T) {
		solo := createValidPreset()
		solo.Players = solo.Players[:1]
		writePresetFile(t, dir, "solo", solo)

		_, err := manager.LoadPreset("solo")
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})
}

func TestManager_ListPresets(t *testing.T) {
	dir := t.TempDir()
	writePresetFile(t, dir, "quick", createValidPreset())
	writePresetFile(t, dir, "classic", createValidPreset())
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.json"), []byte("[]"), 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0755))

	manager, err := NewManager(dir)
	require.NoError(t, err)

	presets, err := manager.ListPresets()
	require.NoError(t, err)
	require.Len(t, presets, 2)
	assert.Equal(t, "classic", presets[0].PresetID)
	assert.Equal(t, "classic.json", presets[0].Filename)
	assert.Equal(t, "quick", presets[1].PresetID)
	assert.Len(t, presets[1].Players, 2)
	assert.Equal(t, 500, presets[1].MoveDelayMS)
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writePresetFile(t, dir, "classic", createValidPreset())
	quick := createValidPreset()
	quick.Name = "Quick"
	writePresetFile(t, dir, "quick", quick)

	manager, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, manager.SetDefault("quick"))
	assert.Equal(t, "Quick", manager.GetDefault().Name)

	assert.ErrorIs(t, manager.SetDefault("missing"), ErrConfigNotFound)
	assert.Equal(t, "Quick", manager.GetDefault().Name)
}

func TestManager_SavePreset(t *testing.T) {
	dir := t.TempDir()
	manager, err := NewManager(dir)
	require.NoError(t, err)

	preset := createValidPreset()
	preset.Name = "Saved"
	require.NoError(t, manager.SavePreset("saved", preset))

	_, err = os.Stat(filepath.Join(dir, "saved.json"))
	require.NoError(t, err)

	require.NoError(t, manager.RefreshCache())
	loaded, err := manager.LoadPreset("saved")
	require.NoError(t, err)
	assert.Equal(t, preset, loaded)

	invalid := createValidPreset()
	invalid.MoveDelayMS = -1
	assert.ErrorIs(t, manager.SavePreset("invalid", invalid), ErrInvalidConfig)
}

func TestManager_ConcurrentLoads(t *testing.T) {
	dir := t.TempDir()
	writePresetFile(t, dir, "classic", createValidPreset())
	manager, err := NewManager(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			preset, err := manager.LoadPreset("classic")
			assert.NoError(t, err)
			assert.Equal(t, "Test Preset", preset.Name)
		}()
	}
	wg.Wait()
}

func TestValidatePreset(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Preset)
	}{
		{"missing name", func(p *Preset) { p.Name = "" }},
		{"too many players", func(p *Preset) {
			p.Players = []engine.PlayerSeed{{}, {}, {}, {}, {}}
		}},
		{"duplicate ids", func(p *Preset) {
			p.Players = []engine.PlayerSeed{{ID: "a"}, {ID: "a"}}
		}},
		{"negative battle delay", func(p *Preset) { p.BattleCompleteDelayMS = -5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			preset := createValidPreset()
			tt.mutate(preset)
			assert.Error(t, ValidatePreset(preset))
		})
	}

	assert.Error(t, ValidatePreset(nil))
	assert.NoError(t, ValidatePreset(createValidPreset()))
}

func TestPreset_Delays(t *testing.T) {
	preset := createValidPreset()

	assert.Equal(t, "500ms", preset.MoveDelay().String())
	assert.Equal(t, "750ms", preset.BattleCompleteDelay().String())

	seeds := preset.Seeds()
	seeds[0].Name = "changed"
	assert.Equal(t, "Ada", preset.Players[0].Name)
}

func TestRepositoryPresetsAreValid(t *testing.T) {
	manager, err := NewManager(filepath.Join("..", "..", "configs"))
	require.NoError(t, err)

	presets, err := manager.ListPresets()
	require.NoError(t, err)
	ids := make([]string, 0, len(presets))
	for _, p := range presets {
		ids = append(ids, p.PresetID)
	}
	assert.Equal(t, []string{"classic", "four_players", "quick"}, ids)
	assert.Equal(t, "Classic", manager.GetDefault().Name)
}
