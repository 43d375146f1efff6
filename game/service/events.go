package service

import (
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/battleboard/game/engine"
)

// ExtractEvents describes what happened between two snapshots of the same
// controller
func ExtractEvents(prev, next engine.GameState) []GameEvent {
	events := []GameEvent{}
	now := time.Now()
	add := func(eventType, message, playerID string, position int) {
		events = append(events, GameEvent{
			Type:      eventType,
			Message:   message,
			Timestamp: now,
			PlayerID:  playerID,
			Position:  position,
		})
	}

	if next.Phase == engine.PhaseSetup {
		if prev.Phase != engine.PhaseSetup {
			add(EventReset, "Game reset", "", 0)
		}
		return events
	}
	if prev.Phase == engine.PhaseSetup || prev.GameID != next.GameID {
		add(EventGameStarted, next.Message, "", 0)
		return events
	}

	// Movement roll
	if next.PendingSteps > 0 && prev.PendingSteps == 0 {
		if current, ok := next.CurrentPlayer(); ok {
			add(EventRoll, fmt.Sprintf("%s rolled %d", current.Name, next.PendingSteps), current.ID, current.Position)
		}
	}

	// Committed move
	if next.Turn > prev.Turn && next.LastMove != nil {
		move := next.LastMove
		switch move.Outcome {
		case engine.MoveRejected:
			add(EventTrapped, fmt.Sprintf("%s is trapped on %d and cannot move %d", move.PlayerID, move.From, move.Steps), move.PlayerID, move.From)
		case engine.MoveMoved, engine.MoveWon:
			add(EventMove, fmt.Sprintf("%s moved from %d to %d", move.PlayerID, move.From, move.To), move.PlayerID, move.To)
		case engine.MoveBattle:
			add(EventMove, fmt.Sprintf("%s moved from %d to %d", move.PlayerID, move.From, move.To), move.PlayerID, move.To)
			if next.Battle != nil {
				add(EventBattleStarted, fmt.Sprintf("%s challenges %s on %d",
					next.Battle.AttackerPlayer().Name, next.Battle.DefenderPlayer().Name, move.To), move.PlayerID, move.To)
			}
		}
	}

	if prev.Battle != nil && next.Battle != nil {
		events = append(events, battleEvents(*prev.Battle, *next.Battle, now)...)
	}

	// Battle left the board
	if prev.Battle != nil && next.Battle == nil {
		if prev.Battle.Finished() {
			for _, fighter := range prev.Battle.Participants {
				idx := next.PlayerIndex(fighter.ID)
				if idx >= 0 && !next.Players[idx].Active {
					add(EventEliminated, fmt.Sprintf("%s has been eliminated", fighter.Name), fighter.ID, fighter.Position)
				}
			}
			if winner, ok := prev.Battle.Winner(); ok {
				add(EventBattleWon, fmt.Sprintf("%s won the battle", winner.Name), winner.ID, winner.Position)
			}
		} else {
			add(EventBattleClosed, "Battle dismissed", "", 0)
		}
	}

	if next.Phase == engine.PhaseFinished && prev.Phase != engine.PhaseFinished && next.Winner != nil {
		add(EventVictory, fmt.Sprintf("%s wins the game!", next.Winner.Name), next.Winner.ID, next.Winner.Position)
	}

	return events
}

func battleEvents(prev, next engine.Battle, now time.Time) []GameEvent {
	events := []GameEvent{}
	if prev.Step == next.Step && prev.Round == next.Round {
		return events
	}

	lastLine := ""
	if len(next.Log) > 0 {
		lastLine = next.Log[len(next.Log)-1]
	}

	switch {
	case next.Step == engine.BattleDefenderRoll:
		attacker := next.AttackerPlayer()
		events = append(events, GameEvent{Type: EventBattleRoll, Message: lastLine, Timestamp: now, PlayerID: attacker.ID})
	case next.Step == engine.BattleResolve:
		defender := next.DefenderPlayer()
		events = append(events, GameEvent{Type: EventBattleRoll, Message: lastLine, Timestamp: now, PlayerID: defender.ID})
	case next.Round > prev.Round || (next.Finished() && !prev.Finished()):
		events = append(events, GameEvent{
			Type:      EventBattleRound,
			Message:   fmt.Sprintf("Round %d resolved", prev.Round),
			Timestamp: now,
		})
		for i, fighter := range next.Participants {
			if fighter.HitPoints < prev.Participants[i].HitPoints {
				events = append(events, GameEvent{
					Type:      EventHit,
					Message:   fmt.Sprintf("%s takes a hit (%d HP left)", fighter.Name, fighter.HitPoints),
					Timestamp: now,
					PlayerID:  fighter.ID,
					Position:  fighter.Position,
				})
			}
		}
	}
	return events
}

// Watch returns a controller listener that hands every snapshot to onChange
// along with the events since the previous snapshot. The first snapshot
// carries no events.
func Watch(onChange func(engine.GameState, []GameEvent)) func(engine.GameState) {
	var prev *engine.GameState
	return func(state engine.GameState) {
		var events []GameEvent
		if prev != nil {
			events = ExtractEvents(*prev, state)
		}
		snapshot := state
		prev = &snapshot
		onChange(state, events)
	}
}
