package config

import (
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/battleboard/game/engine"
)

// Preset is a saved table setup: who sits down and how the game is paced
type Preset struct {
	Name                  string              `json:"name"`
	Description           string              `json:"description"`
	Players               []engine.PlayerSeed `json:"players"`
	MoveDelayMS           int                 `json:"move_delay_ms"`
	BattleCompleteDelayMS int                 `json:"battle_complete_delay_ms"`
}

// MoveDelay returns the delay before a rolled move is committed
func (p *Preset) MoveDelay() time.Duration {
	return time.Duration(p.MoveDelayMS) * time.Millisecond
}

// BattleCompleteDelay returns the delay before a finished battle is merged
func (p *Preset) BattleCompleteDelay() time.Duration {
	return time.Duration(p.BattleCompleteDelayMS) * time.Millisecond
}

// Seeds returns a copy of the player descriptors
func (p *Preset) Seeds() []engine.PlayerSeed {
	return append([]engine.PlayerSeed(nil), p.Players...)
}

// ValidatePreset checks that a preset can start a game
func ValidatePreset(p *Preset) error {
	if p == nil {
		return fmt.Errorf("preset cannot be nil")
	}
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if _, err := engine.NewRoster(p.Players); err != nil {
		return fmt.Errorf("players: %w", err)
	}
	if p.MoveDelayMS < 0 {
		return fmt.Errorf("move_delay_ms must not be negative, got %d", p.MoveDelayMS)
	}
	if p.BattleCompleteDelayMS < 0 {
		return fmt.Errorf("battle_complete_delay_ms must not be negative, got %d", p.BattleCompleteDelayMS)
	}
	return nil
}
