package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/battleboard/game/controller"
	"github.com/wricardo/mcp-training/battleboard/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	ctrl    Controller
	presets PresetStore
	log     *logrus.Entry

	defaultPreset string

	// fixedDelays ignores preset pacing when set
	fixedDelays bool
	moveDelay   time.Duration
	battleDelay time.Duration

	mu sync.Mutex
}

// Option configures the game service
type Option func(*gameServiceImpl)

// WithDefaultPreset names the preset used when StartGame gets neither players nor a preset
func WithDefaultPreset(id string) Option {
	return func(s *gameServiceImpl) { s.defaultPreset = id }
}

// WithFixedDelays pins the controller delays regardless of the preset
func WithFixedDelays(move, battleComplete time.Duration) Option {
	return func(s *gameServiceImpl) {
		s.fixedDelays = true
		s.moveDelay = move
		s.battleDelay = battleComplete
	}
}

// WithLogger sets the logger
func WithLogger(log *logrus.Entry) Option {
	return func(s *gameServiceImpl) { s.log = log }
}

// NewGameService creates a new game service instance
func NewGameService(ctrl Controller, presets PresetStore, opts ...Option) GameService {
	s := &gameServiceImpl{
		ctrl:    ctrl,
		presets: presets,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.WithField("component", "service")
	return s
}

// StartGame seats the requested players, falling back to a preset
func (s *gameServiceImpl) StartGame(ctx context.Context, req StartGameRequest) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	presetID := req.Preset
	if presetID == "" && len(req.Players) == 0 {
		presetID = s.defaultPreset
	}

	request := controller.Request{Type: engine.ActionStartGame, Players: req.Players}
	if presetID != "" {
		preset, err := s.findPreset(presetID)
		if err != nil {
			return nil, err
		}
		if len(request.Players) == 0 {
			request.Players = preset.Players
		}
		request.Delays = &controller.Delays{
			Move:           time.Duration(preset.MoveDelayMS) * time.Millisecond,
			BattleComplete: time.Duration(preset.BattleCompleteDelayMS) * time.Millisecond,
		}
	}
	if s.fixedDelays {
		request.Delays = &controller.Delays{Move: s.moveDelay, BattleComplete: s.battleDelay}
	}

	result, err := s.run(ctx, request)
	if err == nil {
		s.log.WithFields(logrus.Fields{
			"game_id": result.GameState.GameID,
			"players": len(result.GameState.Players),
			"preset":  presetID,
		}).Info("Game started")
	}
	return result, err
}

// ResetGame returns the table to setup
func (s *gameServiceImpl) ResetGame(ctx context.Context) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, controller.Request{Type: engine.ActionResetGame})
}

// RollDice performs the roll the current phase calls for
func (s *gameServiceImpl) RollDice(ctx context.Context) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, controller.Request{Type: controller.ActionRollDice})
}

// RollMovementDie rolls for the current player
func (s *gameServiceImpl) RollMovementDie(ctx context.Context) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, controller.Request{Type: engine.ActionRollMovementDie})
}

// RollBattleDie rolls the battle dice for role
func (s *gameServiceImpl) RollBattleDie(ctx context.Context, role engine.Role) (*ActionResult, error) {
	if role != engine.RoleAttacker && role != engine.RoleDefender {
		return nil, fmt.Errorf("%w: role must be %q or %q, got %q",
			ErrInvalidRequest, engine.RoleAttacker, engine.RoleDefender, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, controller.Request{Type: engine.ActionRollBattleDie, Role: role})
}

// ResolveBattleRound applies the damage rule
func (s *gameServiceImpl) ResolveBattleRound(ctx context.Context) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, controller.Request{Type: engine.ActionResolveBattleRound})
}

// CompleteBattle merges the finished battle
func (s *gameServiceImpl) CompleteBattle(ctx context.Context, winnerID string) (*ActionResult, error) {
	if winnerID == "" {
		return nil, fmt.Errorf("%w: winner_id is required", ErrInvalidRequest)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, controller.Request{Type: engine.ActionCompleteBattle, WinnerID: winnerID})
}

// CloseBattle dismisses the battle without applying it
func (s *gameServiceImpl) CloseBattle(ctx context.Context) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.run(ctx, controller.Request{Type: engine.ActionCloseBattle})
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context) (*engine.GameState, error) {
	state, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return &state, nil
}

// GetBoard describes the track and the active players on it
func (s *gameServiceImpl) GetBoard(ctx context.Context) (*BoardInfo, error) {
	state, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	occupants := make(map[int][]string)
	for _, p := range state.Players {
		if p.Active {
			occupants[p.Position] = append(occupants[p.Position], p.ID)
		}
	}

	return &BoardInfo{
		Segments:      engine.Segments(),
		Endpoints:     engine.Endpoints(),
		FirstPosition: engine.FirstPosition,
		FinalPosition: engine.FinalPosition,
		Occupants:     occupants,
	}, nil
}

// ListPresets returns the available table presets
func (s *gameServiceImpl) ListPresets(ctx context.Context) ([]*PresetInfo, error) {
	if s.presets == nil {
		return []*PresetInfo{}, nil
	}
	return s.presets.ListPresets()
}

func (s *gameServiceImpl) findPreset(id string) (*PresetInfo, error) {
	if s.presets == nil {
		return nil, fmt.Errorf("%w: %s", ErrPresetNotFound, id)
	}
	presets, err := s.presets.ListPresets()
	if err != nil {
		return nil, fmt.Errorf("failed to list presets: %w", err)
	}

	ids := make([]string, 0, len(presets))
	for _, p := range presets {
		if p.PresetID == id || p.Name == id {
			return p, nil
		}
		ids = append(ids, p.PresetID)
	}
	return nil, fmt.Errorf("%w: %q. Available presets: %v", ErrPresetNotFound, id, ids)
}

// run performs req and describes the transition. Prev and Next come from the
// same controller turn, so scheduled tasks never leak into the events. A
// rejected action still reports the current state alongside the error.
func (s *gameServiceImpl) run(ctx context.Context, req controller.Request) (*ActionResult, error) {
	t, err := s.ctrl.Perform(ctx, req)
	if err != nil {
		if t.Next.Phase == "" {
			return nil, err
		}
		current := t.Next
		return &ActionResult{
			Success:   false,
			GameState: &current,
			Message:   err.Error(),
			Events:    []GameEvent{},
		}, err
	}

	next := t.Next
	return &ActionResult{
		Success:   true,
		GameState: &next,
		Message:   next.Message,
		Events:    ExtractEvents(t.Prev, next),
		Roll:      rollInfo(t.Prev, next),
	}, nil
}

// rollInfo reports the dice thrown between prev and next, if any
func rollInfo(prev, next engine.GameState) *RollInfo {
	if next.PendingSteps > 0 && prev.PendingSteps == 0 {
		info := &RollInfo{
			Kind:  "movement",
			Dice:  []int{next.MovementDie},
			Total: next.MovementDie,
		}
		if current, ok := next.CurrentPlayer(); ok {
			info.PlayerID = current.ID
		}
		return info
	}

	if prev.Battle == nil || next.Battle == nil {
		return nil
	}

	var (
		role   engine.Role
		dice   [engine.BattleDiceCount]int
		player engine.Player
	)
	switch {
	case prev.Battle.Step == engine.BattleReady && next.Battle.Step == engine.BattleDefenderRoll:
		role, dice, player = engine.RoleAttacker, next.Battle.AttackerDice, next.Battle.AttackerPlayer()
	case prev.Battle.Step == engine.BattleDefenderRoll && next.Battle.Step == engine.BattleResolve:
		role, dice, player = engine.RoleDefender, next.Battle.DefenderDice, next.Battle.DefenderPlayer()
	default:
		return nil
	}

	return &RollInfo{
		Kind:     "battle",
		Role:     string(role),
		Dice:     []int{dice[0], dice[1]},
		Total:    dice[0] + dice[1],
		Doubles:  engine.IsDoubles(dice),
		PlayerID: player.ID,
	}
}
