package websocket

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/reactor"
)

// upperHandler answers every frame with its upper-case form.
type upperHandler struct{}

func (upperHandler) OnConnect(context.Context, reactor.Peer)    {}
func (upperHandler) OnDisconnect(context.Context, reactor.Peer) {}

func (upperHandler) OnFrame(_ context.Context, peer reactor.Peer, frame string) error {
	peer.Send(strings.ToUpper(frame))
	return nil
}

func dialTestServer(t *testing.T, maxFrameSize int) *websocket.Conn {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	hub := reactor.NewHub(logger, upperHandler{}, 0)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(done)
	}()

	server := httptest.NewServer(New(logger, hub, maxFrameSize).Handler())

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
		cancel()
		<-done
		server.Close()
	})

	return conn
}

func TestServer_FramesPerMessage(t *testing.T) {
	// Given: a websocket client attached to the hub
	conn := dialTestServer(t, 0)

	// When: one message carries two frames
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("login:a:b\r\n\nroomlist:player\n")))

	// Then: each frame is answered by its own message
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for _, expected := range []string{"LOGIN:A:B", "ROOMLIST:PLAYER"} {
		messageType, data, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.Equal(t, websocket.TextMessage, messageType)
		assert.Equal(t, expected, string(data))
	}
}

func TestServer_OversizedMessageCloses(t *testing.T) {
	conn := dialTestServer(t, 16)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(strings.Repeat("x", 64))))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}
