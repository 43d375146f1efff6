package engine

// Phase represents the stage of the game and governs which actions are valid
type Phase string

const (
	PhaseSetup    Phase = "setup"
	PhasePlaying  Phase = "playing"
	PhaseBattle   Phase = "battle"
	PhaseFinished Phase = "finished"

	// Board and roster constants
	FirstPosition   = 1
	FinalPosition   = 28
	SegmentLength   = 4
	StartHitPoints  = 3
	MinPlayers      = 2
	MaxPlayers      = 4
	DieFaces        = 6
	BattleDiceCount = 2
)

// DefaultColors is the palette assigned to players that arrive without a color tag
var DefaultColors = []string{"red", "blue", "green", "yellow"}

// Player is a single competitor on the board
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	Position  int    `json:"position"`
	HitPoints int    `json:"hit_points"`
	Active    bool   `json:"is_active"`
}

// PlayerSeed is the setup descriptor used to create a Player.
// Blank fields are filled from the player's index in the roster.
type PlayerSeed struct {
	ID    string `json:"id,omitempty"`
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`
}

// MoveOutcome classifies what a movement roll did
type MoveOutcome string

const (
	MoveRejected MoveOutcome = "rejected" // trapped: overshot the segment endpoint
	MoveMoved    MoveOutcome = "moved"
	MoveBattle   MoveOutcome = "battle"
	MoveWon      MoveOutcome = "won"
)

// MoveRecord describes the most recent movement attempt
type MoveRecord struct {
	PlayerID string      `json:"player_id"`
	From     int         `json:"from"`
	To       int         `json:"to"`
	Steps    int         `json:"steps"`
	Outcome  MoveOutcome `json:"outcome"`
}

// GameState is the complete, authoritative game state.
// Values handed out of the controller are deep copies and must be treated as read-only.
type GameState struct {
	GameID             string      `json:"game_id,omitempty"`
	Phase              Phase       `json:"phase"`
	Players            []Player    `json:"players"`
	CurrentPlayerIndex int         `json:"current_player_index"`
	Battle             *Battle     `json:"battle,omitempty"`
	MovementDie        int         `json:"movement_die"`
	LastRoll           int         `json:"last_roll"`
	PendingSteps       int         `json:"pending_steps,omitempty"`
	Winner             *Player     `json:"winner,omitempty"`
	Turn               int         `json:"turn"`
	LastMove           *MoveRecord `json:"last_move,omitempty"`
	Message            string      `json:"message"`
}
