// Package ws streams live worker statistics over WebSocket.
//
// Every connection receives a snapshot of all workers and the latest
// indicator values once per interval, plus answers to its own requests.
// A single goroutine owns the writes of a connection; the reader hands
// requests to it over a channel.
//
// Message Types (Client → Server):
//   - ping: Keep-alive ping
//   - snapshot: Push a snapshot now
//   - subscribe: Restrict indicator values to one symbol ("" for all)
//
// Message Types (Server → Client):
//   - system: Sent once on connect
//   - pong: Reply to ping
//   - snapshot: Worker summaries and latest values
//   - error: Rejected request
//
// Example Usage:
//
//	handler := ws.NewHandler(driver, metrics, logger, 2*time.Second)
//	router.GET("/stream", handler.HandleConnection)
package ws
