package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/protocol"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/reactor"
)

const (
	writeWait       = 10 * time.Second
	shutdownTimeout = 5 * time.Second
)

type hub interface {
	Attach(transport reactor.Transport) (*reactor.Client, error)
}

// Server upgrades HTTP requests on /ws and feeds the connections to the same
// hub as the TCP listener. A text message carries one or more frames.
type Server struct {
	logger       *slog.Logger
	hub          hub
	maxFrameSize int
	upgrader     websocket.Upgrader
}

func New(logger *slog.Logger, hub hub, maxFrameSize int) *Server {
	if maxFrameSize <= 0 {
		maxFrameSize = protocol.DefaultMaxFrameSize
	}

	return &Server{
		logger:       logger.With("component", "websocket"),
		hub:          hub,
		maxFrameSize: maxFrameSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(*http.Request) bool {
				return true
			},
		},
	}
}

func (that *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", that.upgradeToWebSocket)

	return mux
}

// Start - starts WebSocket server and shuts it down when ctx is cancelled.
func (that *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           that.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       30 * time.Second,
	}

	stop := context.AfterFunc(ctx, func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	})
	defer stop()

	that.logger.Info("WebSocket server listening", "addr", addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeToWebSocket")

	conn, err := that.upgrader.Upgrade(writer, req, nil)
	if err != nil {
		log.Warn("failed to upgrade connection", "remote_addr", req.RemoteAddr, "error", err)
		return
	}

	conn.SetReadLimit(int64(that.maxFrameSize))

	if _, err = that.hub.Attach(&connTransport{conn: conn}); err != nil {
		log.Warn("failed to attach connection", "remote_addr", conn.RemoteAddr(), "error", err)
	}
}

type connTransport struct {
	conn    *websocket.Conn
	pending []string
}

// ReadFrame - returns the next frame, reading a new message once the
// frames of the previous one are used up.
func (that *connTransport) ReadFrame() (string, error) {
	for len(that.pending) == 0 {
		messageType, data, err := that.conn.ReadMessage()
		if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
			return "", io.EOF
		}

		if errors.Is(err, websocket.ErrReadLimit) {
			return "", fmt.Errorf("%w: %w", protocol.ErrFrameTooLong, err)
		}

		if err != nil {
			return "", fmt.Errorf("failed to read message: %w", err)
		}

		if messageType != websocket.TextMessage {
			return "", fmt.Errorf("%w: binary message", protocol.ErrMalformedFrame)
		}

		for _, line := range strings.Split(string(data), "\n") {
			if frame := strings.TrimRight(line, "\r"); frame != "" {
				that.pending = append(that.pending, frame)
			}
		}
	}

	frame := that.pending[0]
	that.pending = that.pending[1:]

	return frame, nil
}

func (that *connTransport) WriteFrame(frame string) error {
	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *connTransport) Close() error {
	_ = that.conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(writeWait),
	)

	return that.conn.Close()
}

func (that *connTransport) RemoteAddr() net.Addr {
	return that.conn.RemoteAddr()
}
