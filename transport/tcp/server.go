package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/protocol"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/reactor"
)

const writeTimeout = 10 * time.Second

type hub interface {
	Attach(transport reactor.Transport) (*reactor.Client, error)
}

// Server accepts raw TCP connections and hands each one to the hub.
type Server struct {
	logger       *slog.Logger
	hub          hub
	maxFrameSize int
}

func New(logger *slog.Logger, hub hub, maxFrameSize int) *Server {
	return &Server{
		logger:       logger.With("component", "tcp"),
		hub:          hub,
		maxFrameSize: maxFrameSize,
	}
}

// Start - listens on addr and serves until ctx is cancelled.
func (that *Server) Start(ctx context.Context, addr string) error {
	var lc net.ListenConfig

	listener, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	return that.Serve(ctx, listener)
}

// Serve - accepts on listener until ctx is cancelled or the listener fails.
// The listener is closed on return.
func (that *Server) Serve(ctx context.Context, listener net.Listener) error {
	log := that.logger.With("method", "Serve", "addr", listener.Addr())

	stop := context.AfterFunc(ctx, func() {
		_ = listener.Close()
	})
	defer stop()
	defer listener.Close()

	log.Info("TCP server listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("TCP server stopped")
				return nil
			}

			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}

			return fmt.Errorf("failed to accept connection: %w", err)
		}

		if _, err = that.hub.Attach(newConnTransport(conn, that.maxFrameSize)); err != nil {
			log.Warn("failed to attach connection", "remote_addr", conn.RemoteAddr(), "error", err)
			return nil
		}
	}
}

type connTransport struct {
	conn   net.Conn
	reader *protocol.FrameReader
	writer *bufio.Writer
}

func newConnTransport(conn net.Conn, maxFrameSize int) *connTransport {
	return &connTransport{
		conn:   conn,
		reader: protocol.NewFrameReader(conn, maxFrameSize),
		writer: bufio.NewWriter(conn),
	}
}

func (that *connTransport) ReadFrame() (string, error) {
	return that.reader.ReadFrame()
}

func (that *connTransport) WriteFrame(frame string) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	return protocol.WriteFrame(that.writer, frame)
}

func (that *connTransport) Close() error {
	return that.conn.Close()
}

func (that *connTransport) RemoteAddr() net.Addr {
	return that.conn.RemoteAddr()
}
