package service

import (
	"context"

	"github.com/wricardo/mcp-training/battleboard/game/controller"
	"github.com/wricardo/mcp-training/battleboard/game/engine"
)

// GameService defines all game-related operations
type GameService interface {
	// Game lifecycle
	StartGame(ctx context.Context, req StartGameRequest) (*ActionResult, error)
	ResetGame(ctx context.Context) (*ActionResult, error)

	// Turn actions
	RollDice(ctx context.Context) (*ActionResult, error)
	RollMovementDie(ctx context.Context) (*ActionResult, error)

	// Battle actions
	RollBattleDie(ctx context.Context, role engine.Role) (*ActionResult, error)
	ResolveBattleRound(ctx context.Context) (*ActionResult, error)
	CompleteBattle(ctx context.Context, winnerID string) (*ActionResult, error)
	CloseBattle(ctx context.Context) (*ActionResult, error)

	// Game state
	GetGameState(ctx context.Context) (*engine.GameState, error)
	GetBoard(ctx context.Context) (*BoardInfo, error)

	// Presets
	ListPresets(ctx context.Context) ([]*PresetInfo, error)
}

// Controller is the state owner the service drives
type Controller interface {
	Perform(ctx context.Context, req controller.Request) (controller.Transition, error)
	Snapshot(ctx context.Context) (engine.GameState, error)
}

// PresetStore lists the table presets available to StartGame
type PresetStore interface {
	ListPresets() ([]*PresetInfo, error)
}
