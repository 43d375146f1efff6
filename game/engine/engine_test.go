package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestSeeds() []PlayerSeed {
	return []PlayerSeed{
		{ID: "ada", Name: "Ada", Color: "red"},
		{ID: "grace", Name: "Grace", Color: "blue"},
		{ID: "linus", Name: "Linus", Color: "green"},
	}
}

func mustReduce(t *testing.T, state GameState, action Action) (GameState, []Effect) {
	t.Helper()
	next, effects, err := Reduce(state, action)
	require.NoError(t, err)
	return next, effects
}

func startedState(t *testing.T) GameState {
	t.Helper()
	state, _ := mustReduce(t, NewGameState(), Action{
		Type:    ActionStartGame,
		GameID:  "game-1",
		Players: createTestSeeds(),
	})
	return state
}

// battleState puts ada and grace on endpoint 20 and starts a battle with ada attacking
func battleState(t *testing.T) GameState {
	t.Helper()
	state := startedState(t)
	state.Players[0].Position = 19
	state.Players[1].Position = 20
	state, _ = mustReduce(t, state, Action{Type: ActionRollMovementDie, Dice: []int{1}})
	state, _ = mustReduce(t, state, Action{Type: ActionCommitMove, Steps: 1})
	require.Equal(t, PhaseBattle, state.Phase)
	return state
}

func finishBattle(t *testing.T, state GameState) GameState {
	t.Helper()
	for !state.Battle.Finished() {
		state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleAttacker, Dice: []int{4, 4}})
		state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleDefender, Dice: []int{1, 2}})
		state, _ = mustReduce(t, state, Action{Type: ActionResolveBattleRound})
	}
	return state
}

func TestReduce_StartGame(t *testing.T) {
	state := startedState(t)

	assert.Equal(t, PhasePlaying, state.Phase)
	assert.Equal(t, "game-1", state.GameID)
	assert.Equal(t, 0, state.CurrentPlayerIndex)
	require.Len(t, state.Players, 3)
	for _, p := range state.Players {
		assert.Equal(t, FirstPosition, p.Position)
		assert.Equal(t, StartHitPoints, p.HitPoints)
		assert.True(t, p.Active)
	}
}

func TestReduce_StartGameDefaults(t *testing.T) {
	state, _ := mustReduce(t, NewGameState(), Action{
		Type:    ActionStartGame,
		Players: []PlayerSeed{{Name: "  "}, {Name: "Bob"}},
	})

	assert.Equal(t, "player-0", state.Players[0].ID)
	assert.Equal(t, "Player 1", state.Players[0].Name)
	assert.Equal(t, "red", state.Players[0].Color)
	assert.Equal(t, "player-1", state.Players[1].ID)
	assert.Equal(t, "Bob", state.Players[1].Name)
	assert.Equal(t, "blue", state.Players[1].Color)
}

func TestReduce_StartGameValidation(t *testing.T) {
	tests := []struct {
		name    string
		seeds   []PlayerSeed
		wantErr error
	}{
		{"no players", nil, ErrNotEnoughPlayers},
		{"one player", []PlayerSeed{{Name: "Solo"}}, ErrNotEnoughPlayers},
		{"five players", []PlayerSeed{{}, {}, {}, {}, {}}, ErrTooManyPlayers},
		{"duplicate ids", []PlayerSeed{{ID: "x"}, {ID: "x"}}, ErrDuplicatePlayer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			initial := NewGameState()
			next, effects, err := Reduce(initial, Action{Type: ActionStartGame, Players: tt.seeds})

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, effects)
			assert.Equal(t, initial, next)
		})
	}
}

func TestReduce_StartGameOnlyFromSetup(t *testing.T) {
	state := startedState(t)

	next, _, err := Reduce(state, Action{Type: ActionStartGame, Players: createTestSeeds()})

	assert.ErrorIs(t, err, ErrInvalidPhaseAction)
	var phaseErr *PhaseError
	require.ErrorAs(t, err, &phaseErr)
	assert.Equal(t, PhasePlaying, phaseErr.Phase)
	assert.Equal(t, state, next)
}

func TestReduce_RollMovementDieSchedulesCommit(t *testing.T) {
	state := startedState(t)

	next, effects := mustReduce(t, state, Action{Type: ActionRollMovementDie, Dice: []int{3}})

	assert.Equal(t, 3, next.MovementDie)
	assert.Equal(t, 3, next.LastRoll)
	assert.Equal(t, 3, next.PendingSteps)
	assert.Equal(t, 1, next.Players[0].Position, "position is committed later")
	require.Len(t, effects, 1)
	assert.Equal(t, EffectScheduleMove, effects[0].Kind)
	assert.Equal(t, ActionCommitMove, effects[0].Action.Type)
	assert.Equal(t, 3, effects[0].Action.Steps)
	assert.Equal(t, "game-1", effects[0].Action.GameID)
}

func TestReduce_RollWhileMovePending(t *testing.T) {
	state := startedState(t)
	state, _ = mustReduce(t, state, Action{Type: ActionRollMovementDie, Dice: []int{2}})

	_, _, err := Reduce(state, Action{Type: ActionRollMovementDie, Dice: []int{5}})

	assert.ErrorIs(t, err, ErrInvalidPhaseAction)
	assert.ErrorIs(t, err, ErrMoveInProgress)
}

func TestReduce_RollMovementDieRejectsBadValue(t *testing.T) {
	state := startedState(t)

	for _, dice := range [][]int{nil, {0}, {7}, {1, 2}} {
		_, _, err := Reduce(state, Action{Type: ActionRollMovementDie, Dice: dice})
		assert.ErrorIs(t, err, ErrInvalidDie, "dice %v", dice)
	}
}

func TestReduce_CommitMove(t *testing.T) {
	state := startedState(t)
	state, effects := mustReduce(t, state, Action{Type: ActionRollMovementDie, Dice: []int{3}})

	next, _ := mustReduce(t, state, effects[0].Action)

	assert.Equal(t, 4, next.Players[0].Position)
	assert.Equal(t, 0, next.PendingSteps)
	assert.Equal(t, 0, next.LastRoll)
	assert.Equal(t, 1, next.CurrentPlayerIndex)
	require.NotNil(t, next.LastMove)
	assert.Equal(t, MoveMoved, next.LastMove.Outcome)
}

func TestReduce_CommitWithoutPendingRoll(t *testing.T) {
	state := startedState(t)

	_, _, err := Reduce(state, Action{Type: ActionCommitMove, Steps: 2})

	assert.ErrorIs(t, err, ErrInvalidPhaseAction)
}

func TestReduce_BattleActionsRejectedWhilePlaying(t *testing.T) {
	state := startedState(t)

	actions := []Action{
		{Type: ActionRollBattleDie, Role: RoleAttacker, Dice: []int{1, 1}},
		{Type: ActionResolveBattleRound},
		{Type: ActionCompleteBattle, WinnerID: "ada"},
		{Type: ActionCloseBattle},
	}
	for _, action := range actions {
		next, effects, err := Reduce(state, action)
		assert.ErrorIs(t, err, ErrInvalidPhaseAction, "action %s", action.Type)
		assert.Nil(t, effects)
		assert.Equal(t, state, next)
	}
}

func TestReduce_MovementRejectedDuringBattle(t *testing.T) {
	state := battleState(t)

	_, _, err := Reduce(state, Action{Type: ActionRollMovementDie, Dice: []int{2}})

	assert.ErrorIs(t, err, ErrInvalidPhaseAction)
}

func TestReduce_BattleRoundFlow(t *testing.T) {
	state := battleState(t)
	assert.Equal(t, "ada", state.Battle.AttackerPlayer().ID)
	assert.Equal(t, "grace", state.Battle.DefenderPlayer().ID)

	_, _, err := Reduce(state, Action{Type: ActionRollBattleDie, Role: RoleDefender, Dice: []int{2, 2}})
	assert.ErrorIs(t, err, ErrInvalidPhaseAction)

	state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleAttacker, Dice: []int{2, 2}})
	assert.Equal(t, BattleDefenderRoll, state.Battle.Step)
	assert.Equal(t, 4, state.LastRoll)

	state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleDefender, Dice: []int{1, 6}})
	state, effects := mustReduce(t, state, Action{Type: ActionResolveBattleRound})

	assert.Empty(t, effects)
	assert.Equal(t, 2, state.Battle.Participants[1].HitPoints)
	assert.Equal(t, StartHitPoints, state.Players[1].HitPoints, "roster is merged only on completion")
}

func TestReduce_BattleFinishSchedulesCompletion(t *testing.T) {
	state := battleState(t)
	state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleAttacker, Dice: []int{4, 4}})
	state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleDefender, Dice: []int{1, 2}})

	var effects []Effect
	rounds := 0
	for {
		state, effects = mustReduce(t, state, Action{Type: ActionResolveBattleRound})
		rounds++
		if state.Battle.Finished() {
			break
		}
		state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleAttacker, Dice: []int{4, 4}})
		state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleDefender, Dice: []int{1, 2}})
	}

	assert.Equal(t, 5, rounds)
	require.Len(t, effects, 1)
	assert.Equal(t, EffectScheduleBattleComplete, effects[0].Kind)
	assert.Equal(t, ActionCompleteBattle, effects[0].Action.Type)
	assert.Equal(t, "ada", effects[0].Action.WinnerID)
}

func TestReduce_CompleteBattleMergesOutcome(t *testing.T) {
	state := finishBattle(t, battleState(t))

	next, effects := mustReduce(t, state, Action{Type: ActionCompleteBattle, WinnerID: "ada"})

	assert.Equal(t, PhasePlaying, next.Phase)
	assert.Nil(t, next.Battle)
	assert.Equal(t, 0, next.CurrentPlayerIndex, "battle winner takes the turn")
	assert.Equal(t, 1, next.Players[0].HitPoints)
	assert.Equal(t, 0, next.Players[1].HitPoints)
	assert.False(t, next.Players[1].Active)
	assert.Equal(t, 20, next.Players[1].Position)
	assert.True(t, next.Players[2].Active)
	assert.Equal(t, []Effect{{Kind: EffectCancelPending}}, effects)
}

func TestReduce_CompleteBattleValidation(t *testing.T) {
	state := battleState(t)

	_, _, err := Reduce(state, Action{Type: ActionCompleteBattle, WinnerID: "ada"})
	assert.ErrorIs(t, err, ErrInvalidPhaseAction, "battle not finished yet")

	state = finishBattle(t, state)

	_, _, err = Reduce(state, Action{Type: ActionCompleteBattle, WinnerID: "linus"})
	assert.ErrorIs(t, err, ErrUnknownPlayer)

	_, _, err = Reduce(state, Action{Type: ActionCompleteBattle, WinnerID: "grace"})
	assert.ErrorIs(t, err, ErrInvalidPhaseAction)
}

func TestReduce_LastPlayerStandingWins(t *testing.T) {
	state, _ := mustReduce(t, NewGameState(), Action{
		Type:    ActionStartGame,
		Players: []PlayerSeed{{ID: "ada", Name: "Ada"}, {ID: "grace", Name: "Grace"}},
	})
	state.Players[0].Position = 19
	state.Players[1].Position = 20
	state, _ = mustReduce(t, state, Action{Type: ActionRollMovementDie, Dice: []int{1}})
	state, _ = mustReduce(t, state, Action{Type: ActionCommitMove, Steps: 1})
	state = finishBattle(t, state)

	next, _ := mustReduce(t, state, Action{Type: ActionCompleteBattle, WinnerID: "ada"})

	assert.Equal(t, PhaseFinished, next.Phase)
	require.NotNil(t, next.Winner)
	assert.Equal(t, "ada", next.Winner.ID)
}

func TestReduce_EliminatedPlayerLosesTurns(t *testing.T) {
	state := finishBattle(t, battleState(t))
	state, _ = mustReduce(t, state, Action{Type: ActionCompleteBattle, WinnerID: "ada"})

	// ada (index 0) is at 20 and rolls 1; grace (index 1) is out, so linus is next
	state, effects := mustReduce(t, state, Action{Type: ActionRollMovementDie, Dice: []int{1}})
	state, _ = mustReduce(t, state, effects[0].Action)

	assert.Equal(t, 2, state.CurrentPlayerIndex)

	state, effects = mustReduce(t, state, Action{Type: ActionRollMovementDie, Dice: []int{1}})
	state, _ = mustReduce(t, state, effects[0].Action)

	assert.Equal(t, 0, state.CurrentPlayerIndex, "wraps back to ada, skipping grace")
}

func TestReduce_CloseBattle(t *testing.T) {
	state := battleState(t)
	state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleAttacker, Dice: []int{4, 4}})
	state, _ = mustReduce(t, state, Action{Type: ActionRollBattleDie, Role: RoleDefender, Dice: []int{1, 2}})
	state, _ = mustReduce(t, state, Action{Type: ActionResolveBattleRound})

	next, effects := mustReduce(t, state, Action{Type: ActionCloseBattle})

	assert.Equal(t, PhasePlaying, next.Phase)
	assert.Nil(t, next.Battle)
	assert.Equal(t, StartHitPoints, next.Players[1].HitPoints, "no damage applied")
	assert.Equal(t, 0, next.CurrentPlayerIndex)
	assert.Equal(t, 0, next.LastRoll)
	assert.Equal(t, []Effect{{Kind: EffectCancelPending}}, effects)
}

func TestReduce_FinishedAcceptsOnlyReset(t *testing.T) {
	state := startedState(t)
	state.Players[0].Position = 24
	state, _ = mustReduce(t, state, Action{Type: ActionRollMovementDie, Dice: []int{4}})
	state, _ = mustReduce(t, state, Action{Type: ActionCommitMove, Steps: 4})
	require.Equal(t, PhaseFinished, state.Phase)
	assert.Equal(t, "ada", state.Winner.ID)

	actions := []Action{
		{Type: ActionStartGame, Players: createTestSeeds()},
		{Type: ActionRollMovementDie, Dice: []int{1}},
		{Type: ActionCommitMove, Steps: 1},
		{Type: ActionRollBattleDie, Role: RoleAttacker, Dice: []int{1, 1}},
		{Type: ActionResolveBattleRound},
		{Type: ActionCompleteBattle, WinnerID: "ada"},
		{Type: ActionCloseBattle},
	}
	for _, action := range actions {
		_, _, err := Reduce(state, action)
		assert.ErrorIs(t, err, ErrInvalidPhaseAction, "action %s", action.Type)
	}

	next, effects := mustReduce(t, state, Action{Type: ActionResetGame})
	assert.Equal(t, PhaseSetup, next.Phase)
	assert.Empty(t, next.Players)
	assert.Nil(t, next.Winner)
	assert.Equal(t, []Effect{{Kind: EffectCancelPending}}, effects)
}

func TestReduce_UnknownAction(t *testing.T) {
	_, _, err := Reduce(NewGameState(), Action{Type: "fly"})
	assert.ErrorIs(t, err, ErrUnknownAction)
}

func TestCheckInvariants(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GameState)
	}{
		{"position off board", func(s *GameState) { s.Players[0].Position = 29 }},
		{"negative hit points", func(s *GameState) { s.Players[1].HitPoints = -1 }},
		{"current player inactive", func(s *GameState) { s.Players[0].Active = false }},
		{"battle without participants", func(s *GameState) { s.Phase = PhaseBattle }},
		{"finished without winner", func(s *GameState) { s.Phase = PhaseFinished }},
		{"setup with roster", func(s *GameState) { s.Phase = PhaseSetup }},
		{"no active players", func(s *GameState) {
			for i := range s.Players {
				s.Players[i].Active = false
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := startedState(t)
			tt.mutate(&state)

			assert.True(t, panicsWithViolation(func() { CheckInvariants(state) }))
		})
	}
}

func TestCheckInvariants_ValidStates(t *testing.T) {
	assert.NotPanics(t, func() { CheckInvariants(NewGameState()) })
	assert.NotPanics(t, func() { CheckInvariants(startedState(t)) })
	assert.NotPanics(t, func() { CheckInvariants(battleState(t)) })
}

func panicsWithViolation(f func()) (ok bool) {
	defer func() {
		_, ok = recover().(InvariantViolation)
	}()
	f()
	return false
}
