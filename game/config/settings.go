package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Settings are the process-level options read from the environment
type Settings struct {
	Host      string `env:"HOST" envDefault:"localhost"`
	Port      int    `env:"PORT" envDefault:"8080"`
	ConfigDir string `env:"CONFIG_DIR" envDefault:"configs"`
	Preset    string `env:"PRESET" envDefault:"classic"`

	// Zero values fall back to the preset delays
	MoveDelay           time.Duration `env:"MOVE_DELAY"`
	BattleCompleteDelay time.Duration `env:"BATTLE_COMPLETE_DELAY"`

	// DiceSeed makes rolls reproducible; 0 picks a random seed
	DiceSeed int64 `env:"DICE_SEED"`
	Debug    bool  `env:"DEBUG"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// LoadSettings reads the given .env files (missing files are skipped) and
// then parses Settings from the environment. Variables already set in the
// environment win over .env values.
func LoadSettings(envFiles ...string) (Settings, error) {
	for _, file := range envFiles {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("load %s: %w", file, err)
		}
	}

	var settings Settings
	if err := ParseEnv(&settings); err != nil {
		return Settings{}, err
	}
	if settings.Port <= 0 || settings.Port > 65535 {
		return Settings{}, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, settings.Port)
	}
	if settings.MoveDelay < 0 || settings.BattleCompleteDelay < 0 {
		return Settings{}, fmt.Errorf("%w: delays must not be negative", ErrInvalidConfig)
	}
	return settings, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Addr returns the host:port listen address
func (s Settings) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
