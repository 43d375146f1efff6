// Package websocket pushes Battle Board state to renderers in real time.
//
// A single Hub fans every message out to all connected clients. Each client
// connection gets a read pump and a write pump; the hub goroutine owns the
// client set, so registration, broadcast and disconnection never race.
//
// Message Protocol:
//
// Messages are JSON objects with an event name, an optional game_state and
// optional data:
//   - {"event": "state_update", "game_state": {...}} after every transition
//   - {"event": "battle_started", "data": {...}} for each derived game event
//
// Clients only listen. A client that connects late first receives the most
// recent state_update.
//
// Usage:
//
//	hub := websocket.NewHub(log)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", hub.ServeWS)
//	ctrl.Subscribe(ctx, service.Watch(func(s engine.GameState, events []service.GameEvent) {
//		hub.BroadcastState(s)
//		for _, e := range events {
//			hub.BroadcastEvent(e.Type, e)
//		}
//	}))
package websocket
