package service

import (
	"time"

	"github.com/wricardo/mcp-training/battleboard/game/engine"
)

// StartGameRequest seats players directly or through a preset. Explicit
// players win over the preset's players; the preset still sets the pacing.
type StartGameRequest struct {
	Preset  string              `json:"preset,omitempty"`
	Players []engine.PlayerSeed `json:"players,omitempty"`
}

// ActionResult contains the result of one game action
type ActionResult struct {
	Success   bool              `json:"success"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
	Roll      *RollInfo         `json:"roll,omitempty"`
}

// RollInfo describes the dice thrown by an action
type RollInfo struct {
	Kind     string `json:"kind"` // "movement" or "battle"
	Role     string `json:"role,omitempty"`
	Dice     []int  `json:"dice"`
	Total    int    `json:"total"`
	Doubles  bool   `json:"doubles,omitempty"`
	PlayerID string `json:"player_id,omitempty"`
}

// Event types emitted by ExtractEvents
const (
	EventGameStarted   = "game_started"
	EventRoll          = "roll"
	EventMove          = "move"
	EventTrapped       = "trapped"
	EventBattleStarted = "battle_started"
	EventBattleRoll    = "battle_roll"
	EventBattleRound   = "battle_round"
	EventHit           = "hit"
	EventEliminated    = "eliminated"
	EventBattleWon     = "battle_won"
	EventBattleClosed  = "battle_closed"
	EventVictory       = "victory"
	EventReset         = "reset"
)

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	PlayerID  string    `json:"player_id,omitempty"`
	Position  int       `json:"position,omitempty"`
}

// BoardInfo describes the track and who stands where
type BoardInfo struct {
	Segments      []engine.Segment `json:"segments"`
	Endpoints     []int            `json:"endpoints"`
	FirstPosition int              `json:"first_position"`
	FinalPosition int              `json:"final_position"`
	Occupants     map[int][]string `json:"occupants"`
}

// PresetInfo provides information about a table preset
type PresetInfo struct {
	Filename              string              `json:"filename"`
	PresetID              string              `json:"preset_id"` // The identifier to use when starting a game
	Name                  string              `json:"name"`      // Display name
	Description           string              `json:"description"`
	Players               []engine.PlayerSeed `json:"players"`
	MoveDelayMS           int                 `json:"move_delay_ms"`
	BattleCompleteDelayMS int                 `json:"battle_complete_delay_ms"`
}
