package reactor

import (
	"context"
	"net"
)

// Transport is one framed connection. ReadFrame is only ever called from
// the connection's read goroutine and WriteFrame from its write goroutine.
type Transport interface {
	ReadFrame() (string, error)
	WriteFrame(frame string) error
	Close() error
	RemoteAddr() net.Addr
}

// Peer is the handler's view of a connected client.
type Peer interface {
	ID() string
	RemoteAddr() net.Addr
	// Send queues a frame without blocking; a client that cannot keep up is
	// disconnected.
	Send(frame string)
}

// EventHandler holds the application logic driven by the hub. Every method
// runs on the hub goroutine, one event at a time.
type EventHandler interface {
	OnConnect(ctx context.Context, peer Peer)
	OnDisconnect(ctx context.Context, peer Peer)
	// OnFrame returning an error closes the peer's connection.
	OnFrame(ctx context.Context, peer Peer, frame string) error
}
