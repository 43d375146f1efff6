// Package mcp exposes the Battle Board game to AI agents over the Model
// Context Protocol.
//
// Client registers one MCP tool per REST operation and proxies every call to
// the HTTP API, so agents, renderers and scripts all act on the same single
// game:
//   - game_state, board, list_presets, game_rules
//   - start_game, reset_game
//   - roll_dice, roll_movement_die
//   - roll_battle_die, resolve_battle_round, complete_battle, close_battle
//
// Rejected actions come back as tool errors carrying the API message.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: the serve command mounts HandleMessage under /mcp
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080", log)
//	if err := server.ServeStdio(client.GetMCPServer()); err != nil {
//		log.Fatal(err)
//	}
package mcp
