// Package websocket pushes live game updates to browsers and other watchers.
//
// A central Hub keeps, per session ID, the set of connected clients. The API
// layer calls BroadcastToSession after every accepted reveal, flag, unflag or
// reset, and BroadcastEvent for game over and deletion notices. Clients only
// listen; anything they send is discarded.
//
// Message Protocol:
//
// Every frame is one JSON object:
//
//	{"session_id": "a1b2", "event": "state_update", "game_state": {...}}
//	{"session_id": "a1b2", "event": "game_over", "data": {"victory": true, ...}}
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
//
// Concurrency:
//
// Broadcasts never block the caller: updates are queued and a client whose
// buffer is full is disconnected. Cancelling the context given to Run closes
// every connection.
package websocket
