// Package client maintains a resilient websocket session to the dashboard
// backend and fans normalized envelopes out to subscribers.
//
// A Client presents one logical event stream over many physical connections.
// It dials, reads, normalizes, and dispatches on a single goroutine, then
// reconnects with capped exponential backoff when the connection drops.
// Lifecycle transitions surface as synthetic envelopes (connection_open,
// connection_closed, connection_error, max_retries_reached) interleaved in
// stream order with backend frames, so subscribers need no side channel to
// track connectivity.
//
//	c, err := client.New("wss://dashboard.internal:8080",
//		client.WithLogger(logger),
//		client.WithBackoff(backoff.Default()),
//	)
//	if err != nil {
//		return err
//	}
//	defer c.Disconnect()
//
//	unsub := c.Subscribe(message.KindWorkerStatusUpdate, func(env message.Envelope) {
//		// runs on the stream goroutine, in arrival order
//	})
//	defer unsub()
//
//	c.Connect()
//
// Outbound commands go through Send (fire and forget) or Call (correlated
// request and response). Both fail fast when no connection is live; nothing
// is queued across reconnects.
package client
