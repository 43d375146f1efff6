package engine

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidPhaseAction = errors.New("action not allowed in current phase")
	ErrNotEnoughPlayers   = errors.New("not enough players")
	ErrTooManyPlayers     = errors.New("too many players")
	ErrDuplicatePlayer    = errors.New("duplicate player id")
	ErrUnknownPlayer      = errors.New("unknown player")
	ErrInvalidDie         = errors.New("die value out of range")
	ErrMoveInProgress     = errors.New("movement already pending")
	ErrUnknownAction      = errors.New("unknown action")
)

// PhaseError is returned when an action is dispatched in a phase that disallows it.
// It unwraps to ErrInvalidPhaseAction.
type PhaseError struct {
	Action ActionType
	Phase  Phase
	Detail string
}

func (e *PhaseError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s rejected in phase %s: %s", e.Action, e.Phase, e.Detail)
	}
	return fmt.Sprintf("%s rejected in phase %s", e.Action, e.Phase)
}

func (e *PhaseError) Unwrap() error {
	return ErrInvalidPhaseAction
}

// InvariantViolation signals a logic defect in the state machine.
// It is raised with panic, never returned.
type InvariantViolation struct {
	Rule   string
	Detail string
}

func (v InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violated (%s): %s", v.Rule, v.Detail)
}

func violate(rule, format string, args ...any) {
	panic(InvariantViolation{Rule: rule, Detail: fmt.Sprintf(format, args...)})
}
