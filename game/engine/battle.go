package engine

import "fmt"

// Role identifies which side of a battle round is rolling
type Role string

const (
	RoleAttacker Role = "attacker"
	RoleDefender Role = "defender"
)

// BattleStep is the position of a battle inside its round cycle.
// A round runs ready (attacker rolls) -> defender-roll -> resolve, then either
// loops back to ready with roles swapped or stops at finished.
type BattleStep string

const (
	BattleReady        BattleStep = "ready"
	BattleDefenderRoll BattleStep = "defender-roll"
	BattleResolve      BattleStep = "resolve"
	BattleFinished     BattleStep = "finished"
)

// Battle is one encounter between exactly two players.
// Participants are copies; the roster is only updated when the battle is completed.
type Battle struct {
	Participants [2]Player            `json:"participants"`
	Attacker     int                  `json:"attacker"`
	Step         BattleStep           `json:"step"`
	AttackerDice [BattleDiceCount]int `json:"attacker_dice"`
	DefenderDice [BattleDiceCount]int `json:"defender_dice"`
	Round        int                  `json:"round"`
	WinnerID     string               `json:"winner_id,omitempty"`
	Log          []string             `json:"log"`
}

var restingDice = [BattleDiceCount]int{1, 1}

// NewBattle starts a battle in which mover attacks first
func NewBattle(mover, occupant Player) Battle {
	return Battle{
		Participants: [2]Player{mover, occupant},
		Attacker:     0,
		Step:         BattleReady,
		AttackerDice: restingDice,
		DefenderDice: restingDice,
		Round:        1,
		Log:          []string{fmt.Sprintf("Battle begins between %s and %s!", mover.Name, occupant.Name)},
	}
}

// AttackerPlayer returns the participant attacking this round
func (b Battle) AttackerPlayer() Player {
	return b.Participants[b.Attacker]
}

// DefenderPlayer returns the participant defending this round
func (b Battle) DefenderPlayer() Player {
	return b.Participants[1-b.Attacker]
}

// DueRole returns the role expected to roll next. The second result is false
// when no roll is due (resolve or finished).
func (b Battle) DueRole() (Role, bool) {
	switch b.Step {
	case BattleReady:
		return RoleAttacker, true
	case BattleDefenderRoll:
		return RoleDefender, true
	default:
		return "", false
	}
}

// Finished reports whether the battle has a winner
func (b Battle) Finished() bool {
	return b.Step == BattleFinished
}

// Winner returns the battle winner once finished
func (b Battle) Winner() (Player, bool) {
	if !b.Finished() {
		return Player{}, false
	}
	for _, p := range b.Participants {
		if p.ID == b.WinnerID {
			return p, true
		}
	}
	return Player{}, false
}

// Has reports whether id is one of the two participants
func (b Battle) Has(id string) bool {
	return b.Participants[0].ID == id || b.Participants[1].ID == id
}

// Roll records a two-dice roll for role. Only the due role may roll.
func (b Battle) Roll(role Role, dice [BattleDiceCount]int) (Battle, error) {
	due, ok := b.DueRole()
	if !ok {
		return b, fmt.Errorf("%w: battle step %s accepts no rolls", ErrInvalidPhaseAction, b.Step)
	}
	if role != due {
		return b, fmt.Errorf("%w: %s is due to roll, not %s", ErrInvalidPhaseAction, due, role)
	}
	for _, d := range dice {
		if !validDie(d) {
			return b, fmt.Errorf("%w: %d", ErrInvalidDie, d)
		}
	}

	next := b.clone()
	roller := next.AttackerPlayer()
	if role == RoleAttacker {
		next.AttackerDice = dice
		next.Step = BattleDefenderRoll
	} else {
		roller = next.DefenderPlayer()
		next.DefenderDice = dice
		next.Step = BattleResolve
	}

	verdict := "no doubles"
	if IsDoubles(dice) {
		verdict = "doubles"
	}
	next.Log = append(next.Log, fmt.Sprintf("%s rolls %d, %d (%s)", roller.Name, dice[0], dice[1], verdict))
	return next, nil
}

// Resolve applies the damage rule for the current round
func (b Battle) Resolve() (Battle, error) {
	if b.Step != BattleResolve {
		return b, fmt.Errorf("%w: battle step %s cannot resolve", ErrInvalidPhaseAction, b.Step)
	}

	next := b.clone()
	attacker, defender := next.Attacker, 1-next.Attacker
	attackerDoubles := IsDoubles(next.AttackerDice)
	defenderDoubles := IsDoubles(next.DefenderDice)

	switch {
	case attackerDoubles && !defenderDoubles:
		next.hit(attacker, defender)
	case !attackerDoubles && defenderDoubles:
		next.hit(defender, attacker)
	default:
		next.Log = append(next.Log, "No damage dealt this round")
	}

	for i, p := range next.Participants {
		if p.HitPoints > 0 {
			continue
		}
		next.Participants[i].Active = false
		winner := next.Participants[1-i]
		next.WinnerID = winner.ID
		next.Step = BattleFinished
		next.Log = append(next.Log, fmt.Sprintf("%s wins the battle!", winner.Name))
		return next, nil
	}

	next.Attacker = defender
	next.AttackerDice = restingDice
	next.DefenderDice = restingDice
	next.Step = BattleReady
	next.Round++
	return next, nil
}

func (b *Battle) hit(from, to int) {
	target := &b.Participants[to]
	if target.HitPoints <= 0 {
		violate("hit-points", "%s already at %d hit points", target.ID, target.HitPoints)
	}
	target.HitPoints--
	b.Log = append(b.Log, fmt.Sprintf("%s hits %s! (%d HP remaining)",
		b.Participants[from].Name, target.Name, target.HitPoints))
}

func (b Battle) clone() Battle {
	b.Log = append([]string(nil), b.Log...)
	return b
}
