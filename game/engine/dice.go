package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Roller draws independent uniform die values in 1..6
type Roller interface {
	Roll() int
}

// RandRoller is a seeded Roller. It is not safe for concurrent use;
// the controller only calls it from its own loop.
type RandRoller struct {
	seed int64
	rng  *rand.Rand
}

// NewRoller creates a Roller that is deterministic for a given seed
func NewRoller(seed int64) *RandRoller {
	return &RandRoller{
		seed: seed,
		rng:  rand.New(rand.NewSource(seed)),
	}
}

// Roll returns a single die value
func (r *RandRoller) Roll() int {
	return r.rng.Intn(DieFaces) + 1
}

// Seed returns the seed the roller was created with
func (r *RandRoller) Seed() int64 {
	return r.seed
}

// NewSeed generates a random seed using crypto/rand
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// RollPair draws the two dice used by a battle roll
func RollPair(r Roller) [BattleDiceCount]int {
	return [BattleDiceCount]int{r.Roll(), r.Roll()}
}

// IsDoubles reports whether both dice show the same face
func IsDoubles(dice [BattleDiceCount]int) bool {
	return dice[0] == dice[1]
}

func validDie(value int) bool {
	return value >= 1 && value <= DieFaces
}
