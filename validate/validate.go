// Package validate checks table preset files before a server loads them.
// It checks:
//   - JSON structure, with unknown fields reported
//   - The roster rules a game start enforces (2 to 4 players, unique ids)
//   - Non-negative pacing delays
//   - That seeded simulated games with the roster run to a winner
package validate

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mcp-training/battleboard/game/config"
	"github.com/wricardo/mcp-training/battleboard/game/engine"
	"github.com/wricardo/mcp-training/battleboard/game/simulate"
)

// SimulatedGames is the number of seeded games played per preset
const SimulatedGames = 25

// ValidationResult captures the outcome of validating a single file.
// Errors make the file invalid; Info lists what was checked on success.
type ValidationResult struct {
	File   string   `json:"file"`
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
	Info   []string `json:"info"`
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// File loads and validates a single preset file
func File(path string) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(path),
		Valid:  true,
		Errors: []string{},
		Info:   []string{},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var preset config.Preset
	if err := json.Unmarshal(data, &preset); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	strict := json.NewDecoder(bytes.NewReader(data))
	strict.DisallowUnknownFields()
	if err := strict.Decode(&config.Preset{}); err != nil {
		result.fail("Unexpected content: %v", err)
	}

	if err := config.ValidatePreset(&preset); err != nil {
		result.fail("Invalid preset: %v", err)
		return result
	}

	roster, _ := engine.NewRoster(preset.Players)
	if names := duplicateNames(roster); len(names) > 0 {
		result.fail("Duplicate player names: %s", strings.Join(names, ", "))
	}

	summary, _, err := simulate.Run(preset.Seeds(), SimulatedGames, 1)
	if err != nil {
		result.fail("Simulation failed: %v", err)
	}

	if !result.Valid {
		return result
	}

	labels := make([]string, 0, len(roster))
	for _, p := range roster {
		labels = append(labels, fmt.Sprintf("%s (%s, %s)", p.Name, p.ID, p.Color))
	}
	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", preset.Name),
		fmt.Sprintf("✓ Players: %s", strings.Join(labels, ", ")),
		fmt.Sprintf("✓ Delays: move %v, battle %v", preset.MoveDelay(), preset.BattleCompleteDelay()),
		fmt.Sprintf("✓ Simulated %d games: avg %.1f turns, %d battles", summary.Games, summary.AvgTurns, summary.Battles),
	)
	return result
}

// Dir validates every .json file in dir, sorted by file name
func Dir(dir string) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list presets: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no preset files in %s", dir)
	}
	sort.Strings(files)

	results := make([]ValidationResult, 0, len(files))
	for _, file := range files {
		results = append(results, File(file))
	}
	return results, nil
}

func duplicateNames(players []engine.Player) []string {
	seen := make(map[string]int)
	for _, p := range players {
		seen[strings.ToLower(p.Name)]++
	}

	var dups []string
	for name, n := range seen {
		if n > 1 {
			dups = append(dups, name)
		}
	}
	sort.Strings(dups)
	return dups
}
