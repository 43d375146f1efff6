// Package config provides configuration management for the Battle Board game.
//
// The config package handles:
//   - Process settings read from the environment and optional .env files
//   - Loading table presets from JSON files
//   - Preset validation and caching
//   - Default preset selection and preset discovery
//
// Settings:
//
// Settings are parsed with caarlos0/env after godotenv has loaded any .env
// files. Recognised variables: HOST, PORT, CONFIG_DIR, PRESET, MOVE_DELAY,
// BATTLE_COMPLETE_DELAY, DICE_SEED, DEBUG, NGROK_ENABLED, NGROK_AUTHTOKEN and
// NGROK_DOMAIN.
//
// Preset Format:
//
// Presets are stored as JSON files in the configs directory. Each preset
// defines a display name, a description, the ordered player descriptors
// (2 to 4, each with optional id, name and color) and the two pacing delays
// in milliseconds.
//
// Available Presets:
//   - classic: two players, standard pacing
//   - four_players: a full table
//   - quick: three players with short delays
//
// Usage:
//
//	settings, err := config.LoadSettings(".env")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	manager, err := config.NewManager(settings.ConfigDir)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	preset, err := manager.LoadPreset(settings.Preset)
package config
