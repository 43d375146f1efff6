package engine

import "fmt"

// ActionType names an action accepted by Reduce
type ActionType string

const (
	ActionStartGame          ActionType = "start_game"
	ActionRollMovementDie    ActionType = "roll_movement_die"
	ActionCommitMove         ActionType = "commit_move"
	ActionRollBattleDie      ActionType = "roll_battle_die"
	ActionResolveBattleRound ActionType = "resolve_battle_round"
	ActionCompleteBattle     ActionType = "complete_battle"
	ActionCloseBattle        ActionType = "close_battle"
	ActionResetGame          ActionType = "reset_game"
)

// Action is a single state transition request. Dice values are drawn by the
// dispatcher before the action reaches Reduce, so Reduce stays deterministic.
type Action struct {
	Type     ActionType   `json:"type"`
	GameID   string       `json:"game_id,omitempty"`
	Players  []PlayerSeed `json:"players,omitempty"`
	Role     Role         `json:"role,omitempty"`
	Dice     []int        `json:"dice,omitempty"`
	Steps    int          `json:"steps,omitempty"`
	WinnerID string       `json:"winner_id,omitempty"`
}

// EffectKind names a side effect requested by Reduce
type EffectKind string

const (
	// EffectScheduleMove asks for Action (a commit_move) to be dispatched after the move delay
	EffectScheduleMove EffectKind = "schedule_move"
	// EffectScheduleBattleComplete asks for Action (a complete_battle) after the battle delay
	EffectScheduleBattleComplete EffectKind = "schedule_battle_complete"
	// EffectCancelPending drops every scheduled action
	EffectCancelPending EffectKind = "cancel_pending"
)

// Effect is work the owner of the state must perform after a transition
type Effect struct {
	Kind   EffectKind `json:"kind"`
	Action Action     `json:"action"`
}

// Reduce applies action to state and returns the new state together with the
// effects the caller must carry out. A rejected action returns the input state
// unchanged and an error; ErrInvalidPhaseAction marks actions the current phase
// disallows. Reduce panics with InvariantViolation if a transition produces an
// inconsistent state.
func Reduce(state GameState, action Action) (GameState, []Effect, error) {
	var (
		next    GameState
		effects []Effect
		err     error
	)

	switch action.Type {
	case ActionStartGame:
		next, err = startGame(state, action)
	case ActionRollMovementDie:
		next, effects, err = rollMovementDie(state, action)
	case ActionCommitMove:
		next, err = commitMove(state, action)
	case ActionRollBattleDie:
		next, err = rollBattleDie(state, action)
	case ActionResolveBattleRound:
		next, effects, err = resolveBattleRound(state, action)
	case ActionCompleteBattle:
		next, effects, err = completeBattle(state, action)
	case ActionCloseBattle:
		next, effects, err = closeBattle(state, action)
	case ActionResetGame:
		next = NewGameState()
		next.Message = "Game reset"
		effects = []Effect{{Kind: EffectCancelPending}}
	default:
		err = fmt.Errorf("%w: %q", ErrUnknownAction, action.Type)
	}

	if err != nil {
		return state, nil, err
	}

	CheckInvariants(next)
	return next, effects, nil
}

func requirePhase(state GameState, action Action, phase Phase) error {
	if state.Phase != phase {
		return &PhaseError{Action: action.Type, Phase: state.Phase}
	}
	return nil
}

func startGame(state GameState, action Action) (GameState, error) {
	if err := requirePhase(state, action, PhaseSetup); err != nil {
		return state, err
	}

	players, err := NewRoster(action.Players)
	if err != nil {
		return state, err
	}

	next := NewGameState()
	next.GameID = action.GameID
	next.Phase = PhasePlaying
	next.Players = players
	next.CurrentPlayerIndex = 0
	next.Message = fmt.Sprintf("Game started. %s rolls first", players[0].Name)
	return next, nil
}

func rollMovementDie(state GameState, action Action) (GameState, []Effect, error) {
	if err := requirePhase(state, action, PhasePlaying); err != nil {
		return state, nil, err
	}
	if state.PendingSteps > 0 {
		return state, nil, fmt.Errorf("%w: %w", ErrInvalidPhaseAction, ErrMoveInProgress)
	}
	if len(action.Dice) != 1 || !validDie(action.Dice[0]) {
		return state, nil, fmt.Errorf("%w: movement roll %v", ErrInvalidDie, action.Dice)
	}

	die := action.Dice[0]
	next := state.Clone()
	next.MovementDie = die
	next.LastRoll = die
	next.PendingSteps = die
	if current, ok := next.CurrentPlayer(); ok {
		next.Message = fmt.Sprintf("%s rolled %d", current.Name, die)
	}

	effects := []Effect{{
		Kind:   EffectScheduleMove,
		Action: Action{Type: ActionCommitMove, GameID: state.GameID, Steps: die},
	}}
	return next, effects, nil
}

func commitMove(state GameState, action Action) (GameState, error) {
	if err := requirePhase(state, action, PhasePlaying); err != nil {
		return state, err
	}
	if !validDie(action.Steps) {
		return state, fmt.Errorf("%w: steps %d", ErrInvalidDie, action.Steps)
	}
	if state.PendingSteps != action.Steps {
		return state, &PhaseError{
			Action: action.Type,
			Phase:  state.Phase,
			Detail: fmt.Sprintf("pending steps %d, commit for %d", state.PendingSteps, action.Steps),
		}
	}

	next, _ := AttemptMove(state, action.Steps)
	return next, nil
}

func rollBattleDie(state GameState, action Action) (GameState, error) {
	if err := requirePhase(state, action, PhaseBattle); err != nil {
		return state, err
	}
	if state.Battle.Finished() {
		return state, &PhaseError{Action: action.Type, Phase: state.Phase, Detail: "battle is finished"}
	}
	if len(action.Dice) != BattleDiceCount {
		return state, fmt.Errorf("%w: battle roll needs %d dice, got %d", ErrInvalidDie, BattleDiceCount, len(action.Dice))
	}

	battle, err := state.Battle.Roll(action.Role, [BattleDiceCount]int{action.Dice[0], action.Dice[1]})
	if err != nil {
		return state, err
	}

	next := state.Clone()
	next.Battle = &battle
	next.LastRoll = action.Dice[0] + action.Dice[1]
	next.Message = battle.Log[len(battle.Log)-1]
	return next, nil
}

func resolveBattleRound(state GameState, action Action) (GameState, []Effect, error) {
	if err := requirePhase(state, action, PhaseBattle); err != nil {
		return state, nil, err
	}

	battle, err := state.Battle.Resolve()
	if err != nil {
		return state, nil, err
	}

	next := state.Clone()
	next.Battle = &battle
	next.Message = battle.Log[len(battle.Log)-1]

	var effects []Effect
	if battle.Finished() {
		effects = append(effects, Effect{
			Kind:   EffectScheduleBattleComplete,
			Action: Action{Type: ActionCompleteBattle, GameID: state.GameID, WinnerID: battle.WinnerID},
		})
	}
	return next, effects, nil
}

func completeBattle(state GameState, action Action) (GameState, []Effect, error) {
	if err := requirePhase(state, action, PhaseBattle); err != nil {
		return state, nil, err
	}
	if !state.Battle.Has(action.WinnerID) {
		return state, nil, fmt.Errorf("%w: %q is not in this battle", ErrUnknownPlayer, action.WinnerID)
	}
	if !state.Battle.Finished() {
		return state, nil, &PhaseError{Action: action.Type, Phase: state.Phase, Detail: "battle is not finished"}
	}
	if state.Battle.WinnerID != action.WinnerID {
		return state, nil, &PhaseError{
			Action: action.Type,
			Phase:  state.Phase,
			Detail: fmt.Sprintf("%s did not win the battle", action.WinnerID),
		}
	}

	next := state.Clone()
	for _, fighter := range state.Battle.Participants {
		idx := next.PlayerIndex(fighter.ID)
		if idx < 0 {
			violate("battle-participants", "%s left the roster during battle", fighter.ID)
		}
		next.Players[idx].HitPoints = fighter.HitPoints
		if fighter.HitPoints <= 0 {
			next.Players[idx].Active = false
		}
	}
	next.Battle = nil
	next.LastRoll = 0

	winnerIdx := next.PlayerIndex(action.WinnerID)
	active := next.ActivePlayers()
	if len(active) == 1 {
		winner := active[0]
		next.Phase = PhaseFinished
		next.Winner = &winner
		next.Message = fmt.Sprintf("%s is the last player standing and wins!", winner.Name)
	} else {
		next.Phase = PhasePlaying
		next.CurrentPlayerIndex = winnerIdx
		next.Message = fmt.Sprintf("%s won the battle and may now progress from the endpoint", next.Players[winnerIdx].Name)
	}

	return next, []Effect{{Kind: EffectCancelPending}}, nil
}

func closeBattle(state GameState, action Action) (GameState, []Effect, error) {
	if err := requirePhase(state, action, PhaseBattle); err != nil {
		return state, nil, err
	}

	next := state.Clone()
	next.Phase = PhasePlaying
	next.Battle = nil
	next.LastRoll = 0
	next.Message = "Battle dismissed"
	return next, []Effect{{Kind: EffectCancelPending}}, nil
}

// CheckInvariants panics with InvariantViolation if state is inconsistent
func CheckInvariants(state GameState) {
	activeCount := 0
	for _, p := range state.Players {
		if p.Position < FirstPosition || p.Position > FinalPosition {
			violate("position", "%s at %d", p.ID, p.Position)
		}
		if p.HitPoints < 0 || p.HitPoints > StartHitPoints {
			violate("hit-points", "%s has %d", p.ID, p.HitPoints)
		}
		if p.Active {
			activeCount++
		}
	}

	switch state.Phase {
	case PhaseSetup:
		if len(state.Players) != 0 {
			violate("setup", "roster must be empty, has %d players", len(state.Players))
		}
		return
	case PhasePlaying:
		current, ok := state.CurrentPlayer()
		if !ok || !current.Active {
			violate("current-player", "index %d does not point at an active player", state.CurrentPlayerIndex)
		}
		if state.Battle != nil {
			violate("battle", "battle present while playing")
		}
	case PhaseBattle:
		if state.Battle == nil {
			violate("battle", "phase battle without participants")
		}
		a, b := state.Battle.Participants[0].ID, state.Battle.Participants[1].ID
		if a == b {
			violate("battle", "%s cannot battle itself", a)
		}
		for _, id := range []string{a, b} {
			idx := state.PlayerIndex(id)
			if idx < 0 || !state.Players[idx].Active {
				violate("battle", "participant %s is not an active player", id)
			}
		}
	case PhaseFinished:
		if state.Winner == nil {
			violate("winner", "finished without a winner")
		}
		idx := state.PlayerIndex(state.Winner.ID)
		if idx < 0 || !state.Players[idx].Active {
			violate("winner", "winner %s is not an active player", state.Winner.ID)
		}
		if activeCount != 1 && state.Players[idx].Position != FinalPosition {
			violate("winner", "%s won with %d players still active", state.Winner.ID, activeCount)
		}
	default:
		violate("phase", "unknown phase %q", state.Phase)
	}

	if activeCount == 0 {
		violate("active-player", "no active players before the game finished")
	}
}
