package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/wricardo/mcp-training/battleboard/game/engine"
)

const (
	// DefaultMoveDelay is the pause between showing a movement roll and committing the move
	DefaultMoveDelay = 1 * time.Second

	// DefaultBattleCompleteDelay is the pause between a battle finishing and the outcome merge
	DefaultBattleCompleteDelay = 2 * time.Second
)

// ErrStopped is returned when the controller loop is not running anymore
var ErrStopped = errors.New("controller stopped")

// Listener receives a snapshot after every applied transition. Listeners run on
// the controller loop and must not call back into the controller.
type Listener func(engine.GameState)

// Controller is the single owner of the game state. All actions and scheduled
// tasks run one at a time on the goroutine started by Run.
type Controller struct {
	inbox   chan func()
	stopped chan struct{}

	state     engine.GameState
	roller    engine.Roller
	scheduler Scheduler
	newID     func() string
	log       *logrus.Entry

	moveDelay   time.Duration
	battleDelay time.Duration

	// epoch is bumped whenever pending tasks are cancelled
	epoch   uint64
	pending map[engine.EffectKind]Timer

	listeners    map[int]Listener
	nextListener int
}

// Option configures a Controller
type Option func(*Controller)

// WithRoller sets the dice source
func WithRoller(r engine.Roller) Option {
	return func(c *Controller) { c.roller = r }
}

// WithScheduler sets the timer source for delayed transitions
func WithScheduler(s Scheduler) Option {
	return func(c *Controller) { c.scheduler = s }
}

// WithDelays overrides the move and battle-complete delays
func WithDelays(move, battleComplete time.Duration) Option {
	return func(c *Controller) {
		c.moveDelay = move
		c.battleDelay = battleComplete
	}
}

// WithLogger sets the logger
func WithLogger(log *logrus.Entry) Option {
	return func(c *Controller) { c.log = log }
}

// WithIDGenerator sets the function that names new games
func WithIDGenerator(f func() string) Option {
	return func(c *Controller) { c.newID = f }
}

// New creates a controller in the setup phase. Call Run before dispatching.
func New(opts ...Option) *Controller {
	c := &Controller{
		inbox:       make(chan func()),
		stopped:     make(chan struct{}),
		state:       engine.NewGameState(),
		scheduler:   RealScheduler{},
		newID:       func() string { return uuid.NewString() },
		log:         logrus.NewEntry(logrus.StandardLogger()),
		moveDelay:   DefaultMoveDelay,
		battleDelay: DefaultBattleCompleteDelay,
		pending:     make(map[engine.EffectKind]Timer),
		listeners:   make(map[int]Listener),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.roller == nil {
		seed, err := engine.NewSeed()
		if err != nil {
			seed = time.Now().UnixNano()
		}
		c.roller = engine.NewRoller(seed)
	}
	c.log = c.log.WithField("component", "controller")
	return c
}

// Run processes actions until ctx is cancelled. Pending timers are stopped on exit.
func (c *Controller) Run(ctx context.Context) {
	defer close(c.stopped)
	c.log.Debug("Controller loop started")

	for {
		select {
		case <-ctx.Done():
			c.cancelPending()
			c.log.Debug("Controller loop stopped")
			return
		case f := <-c.inbox:
			f()
		}
	}
}

// do runs f on the controller loop and waits for it to finish
func (c *Controller) do(ctx context.Context, f func()) error {
	done := make(chan struct{})
	task := func() {
		defer close(done)
		f()
	}

	select {
	case c.inbox <- task:
	case <-c.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	<-done
	return nil
}

// apply reduces action against the current state. Must run on the loop.
func (c *Controller) apply(action engine.Action) error {
	next, effects, err := engine.Reduce(c.state, action)
	if err != nil {
		c.log.WithFields(logrus.Fields{
			"action": action.Type,
			"phase":  c.state.Phase,
		}).WithError(err).Debug("Action rejected")
		return err
	}

	c.state = next
	for _, effect := range effects {
		c.handleEffect(effect)
	}

	entry := c.log.WithFields(logrus.Fields{
		"action": action.Type,
		"phase":  next.Phase,
		"turn":   next.Turn,
	})
	if current, ok := next.CurrentPlayer(); ok {
		entry = entry.WithFields(logrus.Fields{
			"player":   current.ID,
			"position": current.Position,
		})
	}
	entry.Info(next.Message)

	c.notify()
	return nil
}

func (c *Controller) handleEffect(effect engine.Effect) {
	switch effect.Kind {
	case engine.EffectScheduleMove:
		c.schedule(effect.Kind, c.moveDelay, effect.Action)
	case engine.EffectScheduleBattleComplete:
		c.schedule(effect.Kind, c.battleDelay, effect.Action)
	case engine.EffectCancelPending:
		c.cancelPending()
	default:
		c.log.WithField("effect", effect.Kind).Warn("Unknown effect ignored")
	}
}

// schedule arranges for action to be applied after delay, unless the pending
// tasks are cancelled first
func (c *Controller) schedule(kind engine.EffectKind, delay time.Duration, action engine.Action) {
	if previous, ok := c.pending[kind]; ok {
		previous.Stop()
	}

	epoch := c.epoch
	c.pending[kind] = c.scheduler.AfterFunc(delay, func() {
		_ = c.do(context.Background(), func() {
			c.runScheduled(epoch, kind, action)
		})
	})
}

func (c *Controller) runScheduled(epoch uint64, kind engine.EffectKind, action engine.Action) {
	if epoch != c.epoch {
		c.log.WithFields(logrus.Fields{
			"action":     action.Type,
			"task_epoch": epoch,
			"epoch":      c.epoch,
		}).Debug("Dropping stale scheduled action")
		return
	}
	delete(c.pending, kind)

	if err := c.apply(action); err != nil {
		c.log.WithField("action", action.Type).WithError(err).Warn("Scheduled action rejected")
	}
}

func (c *Controller) cancelPending() {
	for kind, timer := range c.pending {
		timer.Stop()
		delete(c.pending, kind)
	}
	c.epoch++
}

func (c *Controller) notify() {
	for _, listener := range c.listeners {
		listener(c.state.Clone())
	}
}

// Subscribe registers listener and immediately sends it the current snapshot.
// The returned function removes the listener.
func (c *Controller) Subscribe(ctx context.Context, listener Listener) (func(), error) {
	var id int
	err := c.do(ctx, func() {
		id = c.nextListener
		c.nextListener++
		c.listeners[id] = listener
		listener(c.state.Clone())
	})
	if err != nil {
		return nil, err
	}

	return func() {
		_ = c.do(context.Background(), func() {
			delete(c.listeners, id)
		})
	}, nil
}

// Snapshot returns a copy of the current state
func (c *Controller) Snapshot(ctx context.Context) (engine.GameState, error) {
	var snapshot engine.GameState
	err := c.do(ctx, func() {
		snapshot = c.state.Clone()
	})
	return snapshot, err
}

// SetDelays changes the delays used for tasks scheduled from now on
func (c *Controller) SetDelays(ctx context.Context, move, battleComplete time.Duration) error {
	return c.do(ctx, func() {
		c.moveDelay = move
		c.battleDelay = battleComplete
	})
}

// ActionRollDice asks for whatever roll the current phase calls for. It is
// resolved on the loop into a movement roll, a battle roll or a round resolution.
const ActionRollDice engine.ActionType = "roll_dice"

// ErrScheduledAction is returned when a caller sends an action only the
// scheduler may apply
var ErrScheduledAction = errors.New("action is applied by the scheduler")

// Delays is the pacing of scheduled tasks
type Delays struct {
	Move           time.Duration
	BattleComplete time.Duration
}

// Request is an action as callers see it. Game ids and dice are filled in on
// the loop.
type Request struct {
	Type     engine.ActionType
	Players  []engine.PlayerSeed
	Role     engine.Role
	WinnerID string

	// Delays replaces the pacing once a start_game is accepted
	Delays *Delays
}

// Transition is the state right before and right after one request
type Transition struct {
	Prev engine.GameState
	Next engine.GameState
}

// Perform builds the action for req and applies it in a single loop turn, so
// no scheduled task can run between Prev and Next. A rejected request reports
// the unchanged state as both Prev and Next.
func (c *Controller) Perform(ctx context.Context, req Request) (Transition, error) {
	var (
		t   Transition
		err error
	)
	if doErr := c.do(ctx, func() {
		t.Prev = c.state.Clone()
		var action engine.Action
		if action, err = c.build(req); err == nil {
			err = c.apply(action)
		}
		if err == nil && req.Type == engine.ActionStartGame && req.Delays != nil {
			c.moveDelay = req.Delays.Move
			c.battleDelay = req.Delays.BattleComplete
		}
		t.Next = c.state.Clone()
	}); doErr != nil {
		return Transition{}, doErr
	}
	return t, err
}

// perform runs req and keeps only the resulting state
func (c *Controller) perform(ctx context.Context, req Request) (engine.GameState, error) {
	t, err := c.Perform(ctx, req)
	return t.Next, err
}

// build turns req into an engine action. Must run on the loop.
func (c *Controller) build(req Request) (engine.Action, error) {
	action := engine.Action{Type: req.Type, GameID: c.state.GameID}

	switch req.Type {
	case engine.ActionStartGame:
		action.GameID = c.newID()
		action.Players = req.Players
	case engine.ActionRollMovementDie:
		action.Dice = []int{c.roller.Roll()}
	case engine.ActionRollBattleDie:
		dice := engine.RollPair(c.roller)
		action.Role = req.Role
		action.Dice = dice[:]
	case ActionRollDice:
		return c.rollDiceAction(), nil
	case engine.ActionCompleteBattle:
		action.WinnerID = req.WinnerID
	case engine.ActionResolveBattleRound, engine.ActionCloseBattle:
	case engine.ActionResetGame:
		action.GameID = ""
	case engine.ActionCommitMove:
		return engine.Action{}, fmt.Errorf("%w: %s", ErrScheduledAction, req.Type)
	default:
		return engine.Action{}, fmt.Errorf("%w: %q", engine.ErrUnknownAction, req.Type)
	}
	return action, nil
}

func (c *Controller) rollDiceAction() engine.Action {
	action := engine.Action{Type: engine.ActionRollMovementDie, GameID: c.state.GameID}
	if c.state.Phase != engine.PhaseBattle || c.state.Battle == nil {
		action.Dice = []int{c.roller.Roll()}
		return action
	}

	if role, ok := c.state.Battle.DueRole(); ok {
		dice := engine.RollPair(c.roller)
		action.Type = engine.ActionRollBattleDie
		action.Role = role
		action.Dice = dice[:]
		return action
	}
	if c.state.Battle.Step == engine.BattleResolve {
		action.Type = engine.ActionResolveBattleRound
		return action
	}
	// finished battle: let the reducer reject the roll
	action.Type = engine.ActionRollBattleDie
	return action
}

// StartGame seats the players and moves the game from setup to playing
func (c *Controller) StartGame(ctx context.Context, players []engine.PlayerSeed) (engine.GameState, error) {
	return c.perform(ctx, Request{Type: engine.ActionStartGame, Players: players})
}

// RollMovementDie rolls for the current player and schedules the move
func (c *Controller) RollMovementDie(ctx context.Context) (engine.GameState, error) {
	return c.perform(ctx, Request{Type: engine.ActionRollMovementDie})
}

// RollBattleDie rolls both battle dice for role
func (c *Controller) RollBattleDie(ctx context.Context, role engine.Role) (engine.GameState, error) {
	return c.perform(ctx, Request{Type: engine.ActionRollBattleDie, Role: role})
}

// RollDice performs whatever roll the current phase calls for: the movement
// die while playing, or the next battle step during a battle.
func (c *Controller) RollDice(ctx context.Context) (engine.GameState, error) {
	return c.perform(ctx, Request{Type: ActionRollDice})
}

// ResolveBattleRound applies the damage rule to the current round
func (c *Controller) ResolveBattleRound(ctx context.Context) (engine.GameState, error) {
	return c.perform(ctx, Request{Type: engine.ActionResolveBattleRound})
}

// CompleteBattle merges a finished battle into the roster
func (c *Controller) CompleteBattle(ctx context.Context, winnerID string) (engine.GameState, error) {
	return c.perform(ctx, Request{Type: engine.ActionCompleteBattle, WinnerID: winnerID})
}

// CloseBattle dismisses the current battle without applying its outcome
func (c *Controller) CloseBattle(ctx context.Context) (engine.GameState, error) {
	return c.perform(ctx, Request{Type: engine.ActionCloseBattle})
}

// ResetGame discards the game and invalidates every pending task
func (c *Controller) ResetGame(ctx context.Context) (engine.GameState, error) {
	return c.perform(ctx, Request{Type: engine.ActionResetGame})
}

// Dispatch applies an action whose dice are already drawn. commit_move is
// refused: it belongs to the pending move timer.
func (c *Controller) Dispatch(ctx context.Context, action engine.Action) (engine.GameState, error) {
	switch action.Type {
	case "":
		return engine.GameState{}, fmt.Errorf("%w: empty action type", engine.ErrUnknownAction)
	case engine.ActionCommitMove:
		return engine.GameState{}, fmt.Errorf("%w: %s", ErrScheduledAction, action.Type)
	}

	var (
		snapshot engine.GameState
		err      error
	)
	if doErr := c.do(ctx, func() {
		err = c.apply(action)
		snapshot = c.state.Clone()
	}); doErr != nil {
		return engine.GameState{}, doErr
	}
	return snapshot, err
}
