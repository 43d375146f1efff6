package engine

import "fmt"

// AttemptMove applies a movement roll of steps to the current player.
//
// A move that would carry the player past the end of their segment is rejected
// unless the player already stands on that end: the player stays put and the
// turn passes. A successful move that lands on an endpoint held by another active
// player starts a battle; landing on the final position unopposed wins the game.
// Otherwise the turn passes to the next active player.
//
// The caller is responsible for the phase check and for steps being in 1..6.
func AttemptMove(state GameState, steps int) (GameState, MoveRecord) {
	next := state.Clone()
	idx := next.CurrentPlayerIndex
	mover := &next.Players[idx]
	from := mover.Position

	record := MoveRecord{PlayerID: mover.ID, From: from, To: from, Steps: steps}
	next.PendingSteps = 0
	next.Turn++

	segment, ok := SegmentOf(from)
	if !ok {
		violate("position", "%s is off the board at %d", mover.ID, from)
	}

	target := from + steps
	if target > segment.EndPosition && from != segment.EndPosition {
		record.Outcome = MoveRejected
		next.LastRoll = 0
		next.Message = fmt.Sprintf("%s rolled %d but cannot pass endpoint %d without landing on it exactly",
			mover.Name, steps, segment.EndPosition)
		next.LastMove = &record
		next.advanceTurn()
		return next, record
	}

	landing := min(target, FinalPosition)
	mover.Position = landing
	record.To = landing

	if IsEndpoint(landing) {
		if occ := occupantAt(next.Players, landing, idx); occ >= 0 {
			battle := NewBattle(*mover, next.Players[occ])
			next.Phase = PhaseBattle
			next.Battle = &battle
			record.Outcome = MoveBattle
			next.LastMove = &record
			next.Message = fmt.Sprintf("Battle! %s meets %s at endpoint %d", mover.Name, next.Players[occ].Name, landing)
			return next, record
		}
		if landing == FinalPosition {
			winner := *mover
			next.Phase = PhaseFinished
			next.Winner = &winner
			record.Outcome = MoveWon
			next.LastMove = &record
			next.Message = fmt.Sprintf("%s reached %d and wins!", mover.Name, FinalPosition)
			return next, record
		}
	}

	record.Outcome = MoveMoved
	next.LastRoll = 0
	next.LastMove = &record
	if IsEndpoint(landing) {
		next.Message = fmt.Sprintf("%s reached endpoint %d", mover.Name, landing)
	} else {
		next.Message = fmt.Sprintf("%s moved from %d to %d", mover.Name, from, landing)
	}
	next.advanceTurn()
	return next, record
}
