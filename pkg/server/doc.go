// Package server hosts swipe recognition for remote touch surfaces.
//
// A browser page opens a WebSocket, sends a ClientHello naming its
// swipeable surface, and then streams touch and page-lifecycle events. The
// server runs one gesture.Recognizer per connection and answers with
// prevent-default hints during the gesture and a swipe message when one is
// recognized.
//
// # Architecture
//
//   - Server: HTTP router, WebSocket upgrade and handshake, graceful shutdown
//   - SessionManager: Active sessions keyed by ID, with a session limit
//   - Session: One connection, its recognizer, and its lifecycle targets
//   - Metrics: Prometheus collectors for sessions, events, and outcomes
//
// # Session Lifecycle
//
// Each session runs two goroutines:
//   - ReadLoop: Decodes frames and feeds the recognizer. It is the only
//     goroutine that touches recognizer state.
//   - WriteLoop: Sends heartbeat pings
//
// All writes to the connection go through the session's write mutex.
//
// # Example Usage
//
//	srv := server.New(&server.ServerConfig{Address: ":8080"},
//	    server.WithSaver(store),
//	    server.WithSink(record.NewAsyncSink(dirSink, 64, nil)),
//	)
//	if err := srv.ListenAndServe(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// Server and SessionManager methods are safe for concurrent use. Session
// accessors are safe; the recognizer is confined to the read loop.
package server
