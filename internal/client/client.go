package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/protocol"
)

var ErrClosed = errors.New("client closed")

type incoming struct {
	response protocol.Response
	err      error
}

// Client speaks the line protocol to a server. A frame it cannot decode is
// fatal: the connection is closed and Next returns protocol.ErrUnknownResponse.
type Client struct {
	conn   net.Conn
	writer *bufio.Writer

	writeMu   sync.Mutex
	responses chan incoming
	done      chan struct{}
	closeOnce sync.Once
}

func Dial(ctx context.Context, addr string) (*Client, error) {
	var dialer net.Dialer

	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", addr, err)
	}

	return New(conn), nil
}

// New - wraps an established connection and starts reading from it.
func New(conn net.Conn) *Client {
	client := &Client{
		conn:      conn,
		writer:    bufio.NewWriter(conn),
		responses: make(chan incoming, 64),
		done:      make(chan struct{}),
	}

	go client.readLoop(protocol.NewFrameReader(conn, protocol.DefaultMaxFrameSize))

	return client
}

func (that *Client) readLoop(reader *protocol.FrameReader) {
	defer close(that.responses)

	for {
		frame, err := reader.ReadFrame()
		if err != nil {
			that.deliver(incoming{err: err})
			return
		}

		response, err := protocol.ParseResponse(frame)
		if err != nil {
			that.deliver(incoming{err: err})
			_ = that.Close()
			return
		}

		if !that.deliver(incoming{response: response}) {
			return
		}
	}
}

// deliver - hands msg to Next, giving up once the client is closed.
func (that *Client) deliver(msg incoming) bool {
	select {
	case that.responses <- msg:
		return true
	case <-that.done:
		return false
	}
}

// Send - writes one request frame.
func (that *Client) Send(name string, args ...string) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	return protocol.WriteFrame(that.writer, protocol.Encode(name, args...))
}

// Next - waits for the next server frame.
func (that *Client) Next(ctx context.Context) (protocol.Response, error) {
	select {
	case <-ctx.Done():
		return protocol.Response{}, ctx.Err()
	case msg, ok := <-that.responses:
		if !ok {
			return protocol.Response{}, ErrClosed
		}

		return msg.response, msg.err
	}
}

// Expect - reads the next frame and fails unless it is named name.
func (that *Client) Expect(ctx context.Context, name string) (protocol.Response, error) {
	response, err := that.Next(ctx)
	if err != nil {
		return response, err
	}

	if response.Name != name {
		return response, fmt.Errorf("expected %s, got %s", name, response.Name)
	}

	return response, nil
}

func (that *Client) Close() error {
	var err error

	that.closeOnce.Do(func() {
		close(that.done)
		err = that.conn.Close()
	})

	return err
}
