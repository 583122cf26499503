package reactor

import (
	"errors"
	"io"
	"net"
	"sync"

	"github.com/google/uuid"
)

// Client is a connection attached to the hub. Outgoing frames go through a
// buffered channel drained by writeLoop; incoming frames are forwarded to the
// hub by readLoop.
type Client struct {
	id        string
	hub       *Hub
	transport Transport

	mu     sync.Mutex
	send   chan string
	closed bool
}

func newClient(hub *Hub, transport Transport, buffer int) *Client {
	return &Client{
		id:        uuid.NewString(),
		hub:       hub,
		transport: transport,
		send:      make(chan string, buffer),
	}
}

func (that *Client) ID() string {
	return that.id
}

func (that *Client) RemoteAddr() net.Addr {
	return that.transport.RemoteAddr()
}

// Send - queues a frame for writeLoop. A full buffer kicks the client.
func (that *Client) Send(frame string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed {
		return
	}

	select {
	case that.send <- frame:
	default:
		that.hub.logger.Warn("outbound buffer full, dropping client", "client_id", that.id, "remote_addr", that.RemoteAddr())
		that.closeSend()
		// writeLoop may be stuck on the same slow peer.
		_ = that.transport.Close()
		go that.hub.unregisterClient(that)
	}
}

// closeSend - stops writeLoop once the remaining frames are flushed.
// Callers hold mu.
func (that *Client) closeSend() {
	if !that.closed {
		that.closed = true
		close(that.send)
	}
}

func (that *Client) shutdown() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.closeSend()
}

func (that *Client) readLoop() {
	log := that.hub.logger.With("method", "readLoop", "client_id", that.id)

	defer that.hub.unregisterClient(that)

	for {
		frame, err := that.transport.ReadFrame()
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				log.Info("connection read failed", "error", err)
			}
			return
		}

		if !that.hub.deliver(that, frame) {
			return
		}
	}
}

func (that *Client) writeLoop() {
	log := that.hub.logger.With("method", "writeLoop", "client_id", that.id)

	defer func() {
		if err := that.transport.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Debug("failed to close transport", "error", err)
		}
	}()

	for frame := range that.send {
		if err := that.transport.WriteFrame(frame); err != nil {
			log.Info("connection write failed", "error", err)
			that.hub.unregisterClient(that)
			// Keep draining so Send never blocks on a dead connection.
			for range that.send {
			}
			return
		}
	}
}
