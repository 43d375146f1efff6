// Package service provides the business logic layer for the Battle Board game.
//
// The service package implements:
//   - Action handling on top of the game controller
//   - Preset lookup when a game is started
//   - Event extraction from consecutive state snapshots
//   - Board and roll descriptions for clients
//
// Core Interfaces:
//
// GameService is the main service interface used by the REST API and, through
// it, the MCP tools. Controller is the subset of the game controller the
// service drives. PresetStore lists the table presets a game can start from.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the controller. The controller owns the only game state; the service adds
// request validation, preset handling and a readable account of each
// transition (ActionResult with GameEvents and RollInfo).
//
// Usage:
//
//	ctrl := controller.New()
//	go ctrl.Run(ctx)
//	presets, _ := config.NewManager("configs")
//	gameService := service.NewGameService(ctrl, presets, service.WithDefaultPreset("classic"))
//
//	result, err := gameService.StartGame(ctx, service.StartGameRequest{Preset: "quick"})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err = gameService.RollDice(ctx)
//
// Events:
//
// ExtractEvents compares two snapshots and reports game_started, roll, move,
// trapped, battle_started, battle_roll, battle_round, hit, eliminated,
// battle_won, battle_closed, victory and reset events. Watch wraps it as a
// controller listener for push transports.
package service
