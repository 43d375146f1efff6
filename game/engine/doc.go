// Package engine provides the core game logic for the Battle Board game.
//
// The engine package implements the game mechanics including:
//   - The segmented 28-cell track and its endpoint checkpoints
//   - Movement with the "trapped unless exact endpoint landing" rule
//   - Battles between two players meeting on an endpoint, fought with doubles
//   - Elimination, turn order over active players, and win detection
//
// Core Types:
//
// GameState is the complete state of one game. Reduce is a pure function that
// applies an Action to a GameState and returns the next state plus the Effects
// (scheduled follow-up actions, cancellations) its owner must carry out. Battle
// holds the doubles sub-game; AttemptMove is the turn engine. Dice values are
// drawn by a Roller before an action is dispatched, so Reduce is deterministic.
//
// Usage:
//
//	state := engine.NewGameState()
//	state, _, err := engine.Reduce(state, engine.Action{
//		Type:    engine.ActionStartGame,
//		Players: []engine.PlayerSeed{{Name: "Ada"}, {Name: "Grace"}},
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	roller := engine.NewRoller(42)
//	state, effects, err := engine.Reduce(state, engine.Action{
//		Type: engine.ActionRollMovementDie,
//		Dice: []int{roller.Roll()},
//	})
//
// Game Rules:
//
// Players start on cell 1 with 3 hit points. The track is split into seven
// segments of four cells; a player may only leave a segment by landing exactly
// on its end cell. Two active players meeting on an end cell fight: each side
// rolls two dice per round and doubles deal one point of damage unless both
// sides rolled doubles. A player at 0 hit points is eliminated. The first player
// to reach cell 28 unopposed, or the last player left, wins.
package engine
