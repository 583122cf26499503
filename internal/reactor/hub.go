package reactor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

const DefaultOutboundBuffer = 64

var ErrHubStopped = errors.New("hub stopped")

type incoming struct {
	client *Client
	frame  string
}

type query struct {
	fn   func()
	done chan struct{}
}

// Hub serialises every connection event onto a single goroutine, so the
// handler and the state it owns need no locking.
type Hub struct {
	logger  *slog.Logger
	handler EventHandler
	buffer  int

	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	incoming   chan incoming
	queries    chan query
	done       chan struct{}
}

func NewHub(logger *slog.Logger, handler EventHandler, buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultOutboundBuffer
	}

	return &Hub{
		logger:     logger.With("component", "reactor"),
		handler:    handler,
		buffer:     buffer,
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		incoming:   make(chan incoming),
		queries:    make(chan query),
		done:       make(chan struct{}),
	}
}

// Attach - registers a connection and starts its read and write loops.
// The transport is closed when the hub drops the client.
func (that *Hub) Attach(transport Transport) (*Client, error) {
	client := newClient(that, transport, that.buffer)

	select {
	case that.register <- client:
	case <-that.done:
		_ = transport.Close()
		return nil, ErrHubStopped
	}

	go client.writeLoop()
	go client.readLoop()

	return client, nil
}

// Query - runs fn on the hub goroutine and waits for it to return.
func (that *Hub) Query(ctx context.Context, fn func()) error {
	q := query{fn: fn, done: make(chan struct{})}

	select {
	case that.queries <- q:
	case <-that.done:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-q.done:
		return nil
	case <-that.done:
		return ErrHubStopped
	}
}

// Run - processes events until ctx is cancelled, then drops every client.
func (that *Hub) Run(ctx context.Context) {
	log := that.logger.With("method", "Run")
	log.Info("reactor started")

	defer func() {
		for client := range that.clients {
			that.drop(ctx, client)
		}
		close(that.done)
		log.Info("reactor stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-that.register:
			that.clients[client] = struct{}{}
			log.Info("client connected", "client_id", client.id, "remote_addr", client.RemoteAddr())
			that.safely(ctx, client, func() error {
				that.handler.OnConnect(ctx, client)
				return nil
			})
		case client := <-that.unregister:
			that.drop(ctx, client)
		case msg := <-that.incoming:
			if _, ok := that.clients[msg.client]; !ok {
				continue
			}
			that.safely(ctx, msg.client, func() error {
				return that.handler.OnFrame(ctx, msg.client, msg.frame)
			})
		case q := <-that.queries:
			q.fn()
			close(q.done)
		}
	}
}

// safely - runs a handler callback; an error or panic drops the client
// without taking the hub down.
func (that *Hub) safely(ctx context.Context, client *Client, fn func() error) {
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("handler panic: %v", r)
			}
		}()

		return fn()
	}()

	if err != nil {
		that.logger.Warn("dropping client", "client_id", client.id, "error", err)
		that.drop(ctx, client)
	}
}

func (that *Hub) drop(ctx context.Context, client *Client) {
	if _, ok := that.clients[client]; !ok {
		return
	}

	delete(that.clients, client)
	client.shutdown()

	defer func() {
		if r := recover(); r != nil {
			that.logger.Error("disconnect handler panic", "client_id", client.id, "panic", r)
		}
	}()

	that.handler.OnDisconnect(ctx, client)
	that.logger.Info("client disconnected", "client_id", client.id)
}

func (that *Hub) deliver(client *Client, frame string) bool {
	select {
	case that.incoming <- incoming{client: client, frame: frame}:
		return true
	case <-that.done:
		return false
	}
}

func (that *Hub) unregisterClient(client *Client) {
	select {
	case that.unregister <- client:
	case <-that.done:
	}
}

// Len - number of attached clients. Only meaningful on the hub goroutine,
// e.g. inside Query.
func (that *Hub) Len() int {
	return len(that.clients)
}
