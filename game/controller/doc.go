// Package controller owns the single live Battle Board game.
//
// A Controller holds the only authoritative engine.GameState. Every external
// action (start, roll, resolve, complete, close, reset) and every delayed task
// is sent as a closure to the goroutine started by Run, so transitions never
// interleave and no locks guard the state.
//
// Delayed transitions:
//
// Rolling the movement die records the roll and schedules the move commit
// after the move delay. Resolving the last battle round schedules the outcome
// merge after the battle-complete delay. Both are single-shot tasks created
// through a Scheduler. Cancelling (reset, close, manual completion) stops the
// timers and bumps an epoch; a task from an older epoch is dropped when it
// reaches the loop.
//
// Perform takes a Request and returns the Transition it caused. The state
// before and after come from the same loop turn. A start_game request may
// carry Delays, which replace the pacing only when the start is accepted.
// commit_move belongs to the move timer and is refused from callers.
//
// Usage:
//
//	ctrl := controller.New(controller.WithDelays(time.Second, 2*time.Second))
//	go ctrl.Run(ctx)
//
//	unsubscribe, _ := ctrl.Subscribe(ctx, func(s engine.GameState) {
//		render(s)
//	})
//	defer unsubscribe()
//
//	state, err := ctrl.StartGame(ctx, []engine.PlayerSeed{{Name: "Ada"}, {Name: "Grace"}})
//	state, err = ctrl.RollDice(ctx)
//
//	t, err := ctrl.Perform(ctx, controller.Request{Type: controller.ActionRollDice})
//	events := service.ExtractEvents(t.Prev, t.Next)
package controller
