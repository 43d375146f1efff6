// Package simulate plays complete Battle Board games without a controller or
// timers. Scheduled transitions are applied immediately, so a game with a
// given seed always plays out the same way.
package simulate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/wricardo/mcp-training/battleboard/game/engine"
)

// DefaultMaxActions bounds a single game
const DefaultMaxActions = 100000

// ErrStalled is returned when a game does not finish within the action limit
var ErrStalled = errors.New("game did not finish")

// Result describes one finished game
type Result struct {
	Seed         int64    `json:"seed"`
	WinnerID     string   `json:"winner_id"`
	Turns        int      `json:"turns"`
	Moves        int      `json:"moves"`
	Trapped      int      `json:"trapped"`
	Battles      int      `json:"battles"`
	BattleRounds int      `json:"battle_rounds"`
	Eliminated   []string `json:"eliminated,omitempty"`
	WonOnFinal   bool     `json:"won_on_final"`
}

// Play runs one game for players to completion, drawing every die from roller
func Play(players []engine.PlayerSeed, roller engine.Roller, maxActions int) (Result, error) {
	if maxActions <= 0 {
		maxActions = DefaultMaxActions
	}

	state, _, err := engine.Reduce(engine.NewGameState(), engine.Action{
		Type:    engine.ActionStartGame,
		GameID:  "simulation",
		Players: players,
	})
	if err != nil {
		return Result{}, fmt.Errorf("start game: %w", err)
	}

	var result Result
	for actions := 0; state.Phase != engine.PhaseFinished; actions++ {
		if actions >= maxActions {
			return result, fmt.Errorf("%w after %d actions", ErrStalled, maxActions)
		}

		action, err := nextAction(state, roller)
		if err != nil {
			return result, err
		}
		if state, err = apply(state, action, &result); err != nil {
			return result, err
		}
	}

	result.Turns = state.Turn
	if state.Winner != nil {
		result.WinnerID = state.Winner.ID
		result.WonOnFinal = state.Winner.Position == engine.FinalPosition
	}
	return result, nil
}

// nextAction picks the move a table of automatic players would make
func nextAction(state engine.GameState, roller engine.Roller) (engine.Action, error) {
	switch state.Phase {
	case engine.PhasePlaying:
		return engine.Action{Type: engine.ActionRollMovementDie, Dice: []int{roller.Roll()}}, nil

	case engine.PhaseBattle:
		if role, ok := state.Battle.DueRole(); ok {
			dice := engine.RollPair(roller)
			return engine.Action{Type: engine.ActionRollBattleDie, Role: role, Dice: dice[:]}, nil
		}
		if state.Battle.Step == engine.BattleResolve {
			return engine.Action{Type: engine.ActionResolveBattleRound}, nil
		}
		// A finished battle is completed through its scheduled effect
		return engine.Action{}, fmt.Errorf("battle stuck at step %s", state.Battle.Step)

	default:
		return engine.Action{}, fmt.Errorf("no automatic action in phase %s", state.Phase)
	}
}

// apply reduces action and runs its scheduled effects right away
func apply(state engine.GameState, action engine.Action, result *Result) (engine.GameState, error) {
	next, effects, err := engine.Reduce(state, action)
	if err != nil {
		return state, fmt.Errorf("%s: %w", action.Type, err)
	}
	observe(state, next, action, result)

	for _, effect := range effects {
		if effect.Kind == engine.EffectCancelPending {
			continue
		}
		if next, err = apply(next, effect.Action, result); err != nil {
			return state, err
		}
	}
	return next, nil
}

func observe(prev, next engine.GameState, action engine.Action, result *Result) {
	switch action.Type {
	case engine.ActionCommitMove:
		if next.LastMove == nil {
			return
		}
		switch next.LastMove.Outcome {
		case engine.MoveRejected:
			result.Trapped++
		case engine.MoveBattle:
			result.Moves++
			result.Battles++
		default:
			result.Moves++
		}

	case engine.ActionResolveBattleRound:
		result.BattleRounds++

	case engine.ActionCompleteBattle:
		for _, p := range prev.Players {
			if i := next.PlayerIndex(p.ID); p.Active && i >= 0 && !next.Players[i].Active {
				result.Eliminated = append(result.Eliminated, p.ID)
			}
		}
	}
}

// Summary aggregates many games
type Summary struct {
	Games           int            `json:"games"`
	Wins            map[string]int `json:"wins"`
	WinsOnFinal     int            `json:"wins_on_final"`
	AvgTurns        float64        `json:"avg_turns"`
	MaxTurns        int            `json:"max_turns"`
	Trapped         int            `json:"trapped"`
	Battles         int            `json:"battles"`
	AvgBattleRounds float64        `json:"avg_battle_rounds"`
}

// Run plays games seeded firstSeed, firstSeed+1, ... and summarizes them
func Run(players []engine.PlayerSeed, games int, firstSeed int64) (Summary, []Result, error) {
	summary := Summary{Wins: make(map[string]int)}
	results := make([]Result, 0, games)

	var turns, rounds int
	for i := 0; i < games; i++ {
		seed := firstSeed + int64(i)
		result, err := Play(players, engine.NewRoller(seed), DefaultMaxActions)
		result.Seed = seed
		if err != nil {
			return summary, results, fmt.Errorf("seed %d: %w", seed, err)
		}
		results = append(results, result)

		summary.Games++
		summary.Wins[result.WinnerID]++
		if result.WonOnFinal {
			summary.WinsOnFinal++
		}
		turns += result.Turns
		if result.Turns > summary.MaxTurns {
			summary.MaxTurns = result.Turns
		}
		summary.Trapped += result.Trapped
		summary.Battles += result.Battles
		rounds += result.BattleRounds
	}

	if summary.Games > 0 {
		summary.AvgTurns = float64(turns) / float64(summary.Games)
	}
	if summary.Battles > 0 {
		summary.AvgBattleRounds = float64(rounds) / float64(summary.Battles)
	}
	return summary, results, nil
}

// Ranking returns player ids ordered by wins, most first
func (s Summary) Ranking() []string {
	ids := make([]string, 0, len(s.Wins))
	for id := range s.Wins {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		if s.Wins[ids[i]] != s.Wins[ids[j]] {
			return s.Wins[ids[i]] > s.Wins[ids[j]]
		}
		return ids[i] < ids[j]
	})
	return ids
}
