// Package api provides HTTP REST API handlers for the Battle Board game.
//
// Endpoints:
//
// Reads:
//   - GET /api/state - Current game state snapshot
//   - GET /api/board - Segments, endpoints and occupied cells
//   - GET /api/presets - Available table presets
//
// Game lifecycle:
//   - POST /api/game/start - Start a game: {"preset": "quick"} or {"players": [...]}
//   - POST /api/game/reset - Return to setup, cancelling scheduled moves
//
// Turn actions:
//   - POST /api/game/roll - Roll whatever the current phase calls for
//   - POST /api/game/movement-die - Roll the movement die for the current player
//
// Battle actions:
//   - POST /api/game/battle/roll - {"role": "attacker|defender"}
//   - POST /api/game/battle/resolve - Apply the damage rule to the rolled dice
//   - POST /api/game/battle/complete - {"winner_id": "..."} merge the finished battle
//   - POST /api/game/battle/close - Dismiss the battle without applying it
//
// Other:
//   - GET /ws - WebSocket state stream (when a hub is configured)
//   - GET /health - Liveness probe
//
// Error Handling:
//
// Errors are returned as JSON. Rejected actions also carry the unchanged
// game state:
//
//	{
//	  "error": "roll_movement_die rejected in phase battle",
//	  "game_state": {...}
//	}
//
// Status codes: 409 for actions the current phase does not allow, 400 for
// validation failures, 404 for unknown presets, 503 once the controller has
// stopped.
package api
