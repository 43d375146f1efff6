package engine

import (
	"fmt"
	"strings"
)

// NewGameState returns the empty setup state
func NewGameState() GameState {
	return GameState{
		Phase:       PhaseSetup,
		Players:     []Player{},
		MovementDie: 1,
		Message:     "Waiting for players",
	}
}

// NewRoster validates setup descriptors and creates the starting players
func NewRoster(seeds []PlayerSeed) ([]Player, error) {
	if len(seeds) < MinPlayers {
		return nil, fmt.Errorf("%w: need at least %d, got %d", ErrNotEnoughPlayers, MinPlayers, len(seeds))
	}
	if len(seeds) > MaxPlayers {
		return nil, fmt.Errorf("%w: at most %d, got %d", ErrTooManyPlayers, MaxPlayers, len(seeds))
	}

	players := make([]Player, 0, len(seeds))
	seen := make(map[string]bool, len(seeds))
	for i, seed := range seeds {
		id := strings.TrimSpace(seed.ID)
		if id == "" {
			id = fmt.Sprintf("player-%d", i)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, id)
		}
		seen[id] = true

		name := strings.TrimSpace(seed.Name)
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		color := seed.Color
		if color == "" {
			color = DefaultColors[i%len(DefaultColors)]
		}

		players = append(players, Player{
			ID:        id,
			Name:      name,
			Color:     color,
			Position:  FirstPosition,
			HitPoints: StartHitPoints,
			Active:    true,
		})
	}
	return players, nil
}

// Clone returns a deep copy of the state
func (s GameState) Clone() GameState {
	out := s
	out.Players = append([]Player(nil), s.Players...)
	if out.Players == nil {
		out.Players = []Player{}
	}
	if s.Battle != nil {
		battle := s.Battle.clone()
		out.Battle = &battle
	}
	if s.Winner != nil {
		winner := *s.Winner
		out.Winner = &winner
	}
	if s.LastMove != nil {
		move := *s.LastMove
		out.LastMove = &move
	}
	return out
}

// CurrentPlayer returns the player whose turn it is
func (s GameState) CurrentPlayer() (Player, bool) {
	if s.CurrentPlayerIndex < 0 || s.CurrentPlayerIndex >= len(s.Players) {
		return Player{}, false
	}
	return s.Players[s.CurrentPlayerIndex], true
}

// PlayerIndex returns the roster index for id, or -1
func (s GameState) PlayerIndex(id string) int {
	for i, p := range s.Players {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// ActivePlayers returns the players still in the game, in table order
func (s GameState) ActivePlayers() []Player {
	active := make([]Player, 0, len(s.Players))
	for _, p := range s.Players {
		if p.Active {
			active = append(active, p)
		}
	}
	return active
}

// BattleParticipants returns the two players in the current battle, or nil
func (s GameState) BattleParticipants() []Player {
	if s.Battle == nil {
		return nil
	}
	return []Player{s.Battle.Participants[0], s.Battle.Participants[1]}
}

// nextActiveIndex walks the table order from `from`, wrapping, and returns the
// first active player after it. Inactive players are skipped entirely.
func nextActiveIndex(players []Player, from int) int {
	n := len(players)
	for step := 1; step <= n; step++ {
		idx := (from + step) % n
		if players[idx].Active {
			return idx
		}
	}
	return -1
}

// occupantAt returns the first active player other than `except` standing on position
func occupantAt(players []Player, position, except int) int {
	for i, p := range players {
		if i != except && p.Active && p.Position == position {
			return i
		}
	}
	return -1
}

func (s *GameState) advanceTurn() {
	next := nextActiveIndex(s.Players, s.CurrentPlayerIndex)
	if next < 0 {
		violate("active-player", "no active player to take the turn")
	}
	s.CurrentPlayerIndex = next
}
