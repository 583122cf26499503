package lobby

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/entity"
	"github.com/superpiggyng/TicTacToe-Networked-Game-Platform/internal/protocol"
)

type fakeHub struct {
	players map[string]*entity.Player
	frames  map[string][]string
}

func newFakeHub() *fakeHub {
	return &fakeHub{
		players: make(map[string]*entity.Player),
		frames:  make(map[string][]string),
	}
}

func (that *fakeHub) Player(id string) (*entity.Player, bool) {
	player, ok := that.players[id]
	return player, ok
}

func (that *fakeHub) Notify(playerID, frame string) {
	that.frames[playerID] = append(that.frames[playerID], frame)
}

func (that *fakeHub) add(username string) *entity.Player {
	player := entity.NewPlayer("id-"+username, username)
	that.players[player.ID] = player

	return player
}

// take - returns and forgets the frames delivered to player.
func (that *fakeHub) take(player *entity.Player) []string {
	frames := that.frames[player.ID]
	delete(that.frames, player.ID)

	return frames
}

type fakeRecorder struct {
	results []entity.GameResult
}

func (that *fakeRecorder) Record(result entity.GameResult) {
	that.results = append(that.results, result)
}

func newTestRegistry(hub *fakeHub, opts ...Option) *Registry {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), hub, hub, opts...)
}

// startedGame - alice (X) and bob (O) in room "r" with the game begun.
func startedGame(t *testing.T, hub *fakeHub, opts ...Option) (*Registry, *entity.Player, *entity.Player) {
	t.Helper()

	registry := newTestRegistry(hub, opts...)
	alice, bob := hub.add("alice"), hub.add("bob")

	require.Equal(t, protocol.StatusSuccess, registry.Create(alice, "r"))
	require.Equal(t, protocol.StatusSuccess, registry.Join(bob, "r", protocol.ModePlayer))
	hub.take(alice)
	hub.take(bob)

	return registry, alice, bob
}

func TestValidRoomName(t *testing.T) {
	for _, name := range []string{"a", "room 1", "my_room-2", "12345678901234567890"} {
		assert.True(t, ValidRoomName(name), name)
	}

	for _, name := range []string{"", "bad!", "123456789012345678901", "a:b", "tab\there"} {
		assert.False(t, ValidRoomName(name), name)
	}
}

func TestRegistry_Create(t *testing.T) {
	t.Run("Successful creation seats the creator", func(t *testing.T) {
		// Given: an empty registry
		hub := newFakeHub()
		registry := newTestRegistry(hub)
		alice := hub.add("alice")

		// When: alice creates a room
		status := registry.Create(alice, "r1")

		// Then: the room exists and alice waits in it
		assert.Equal(t, protocol.StatusSuccess, status)
		assert.Equal(t, []string{"CREATE:ACKSTATUS:0"}, hub.take(alice))
		assert.Equal(t, "r1", alice.Room)

		room, ok := registry.Get("r1")
		require.True(t, ok)
		assert.Equal(t, []string{alice.ID}, room.Players())
		assert.False(t, room.Begun())
	})

	t.Run("Error statuses", func(t *testing.T) {
		hub := newFakeHub()
		registry := newTestRegistry(hub, WithCapacity(1))
		alice, bob := hub.add("alice"), hub.add("bob")
		require.Equal(t, protocol.StatusSuccess, registry.Create(alice, "r1"))

		assert.Equal(t, protocol.CreateAlreadyInRoom, registry.Create(alice, "r2"))
		assert.Equal(t, protocol.CreateInvalidName, registry.Create(bob, "bad!"))
		assert.Equal(t, protocol.CreateRoomExists, registry.Create(bob, "r1"))
		assert.Equal(t, protocol.CreateMaxRooms, registry.Create(bob, "r2"))
		assert.Equal(t, []string{
			"CREATE:ACKSTATUS:1",
			"CREATE:ACKSTATUS:2",
			"CREATE:ACKSTATUS:3",
		}, hub.take(bob))
		assert.False(t, bob.InRoom())
		assert.Equal(t, 1, registry.Len())
	})
}

func TestRegistry_List(t *testing.T) {
	hub := newFakeHub()
	registry := newTestRegistry(hub)
	alice, bob, carol := hub.add("alice"), hub.add("bob"), hub.add("carol")

	require.Equal(t, protocol.StatusSuccess, registry.Create(alice, "zeta"))
	require.Equal(t, protocol.StatusSuccess, registry.Join(bob, "zeta", protocol.ModePlayer))
	require.Equal(t, protocol.StatusSuccess, registry.Create(carol, "alpha"))

	assert.Equal(t, []string{"alpha"}, registry.List(protocol.ModePlayer))
	assert.Equal(t, []string{"alpha", "zeta"}, registry.List(protocol.ModeViewer))
}

func TestRegistry_Join(t *testing.T) {
	t.Run("Second player starts the game", func(t *testing.T) {
		// Given: alice waiting in a room
		hub := newFakeHub()
		registry := newTestRegistry(hub)
		alice, bob := hub.add("alice"), hub.add("bob")
		require.Equal(t, protocol.StatusSuccess, registry.Create(alice, "r"))
		hub.take(alice)

		// When: bob joins as a player
		status := registry.Join(bob, "r", protocol.ModePlayer)

		// Then: bob is acknowledged before both players see BEGIN
		assert.Equal(t, protocol.StatusSuccess, status)
		assert.Equal(t, []string{"JOIN:ACKSTATUS:0", "BEGIN:alice:bob"}, hub.take(bob))
		assert.Equal(t, []string{"BEGIN:alice:bob"}, hub.take(alice))
		assert.Equal(t, entity.MarkX, alice.Mark)
		assert.Equal(t, entity.MarkO, bob.Mark)

		room, _ := registry.Get("r")
		assert.True(t, room.Begun())
		assert.Equal(t, alice.ID, room.Game().Turn)
	})

	t.Run("Viewer of a running game gets INPROGRESS", func(t *testing.T) {
		hub := newFakeHub()
		registry, alice, _ := startedGame(t, hub)
		carol := hub.add("carol")
		registry.Place(alice, 0, 0)

		status := registry.Join(carol, "r", protocol.ModeViewer)

		assert.Equal(t, protocol.StatusSuccess, status)
		assert.Equal(t, []string{"JOIN:ACKSTATUS:0", "INPROGRESS:bob:alice"}, hub.take(carol))
	})

	t.Run("Viewer of a waiting room gets only the ack and later BEGIN", func(t *testing.T) {
		hub := newFakeHub()
		registry := newTestRegistry(hub)
		alice, bob, carol := hub.add("alice"), hub.add("bob"), hub.add("carol")
		require.Equal(t, protocol.StatusSuccess, registry.Create(alice, "r"))

		require.Equal(t, protocol.StatusSuccess, registry.Join(carol, "r", protocol.ModeViewer))
		require.Equal(t, protocol.StatusSuccess, registry.Join(bob, "r", protocol.ModePlayer))

		assert.Equal(t, []string{"JOIN:ACKSTATUS:0", "BEGIN:alice:bob"}, hub.take(carol))
	})

	t.Run("Error statuses", func(t *testing.T) {
		hub := newFakeHub()
		registry, alice, _ := startedGame(t, hub)
		carol := hub.add("carol")

		assert.Equal(t, protocol.JoinRoomNotFound, registry.Join(carol, "missing", protocol.ModePlayer))
		assert.Equal(t, protocol.JoinRoomFull, registry.Join(carol, "r", protocol.ModePlayer))
		assert.Equal(t, protocol.JoinAlreadyInRoom, registry.Join(alice, "r", protocol.ModeViewer))
		assert.Equal(t, protocol.JoinInvalidFormat, registry.Join(carol, "r", protocol.Mode("REFEREE")))
		assert.Equal(t, []string{
			"JOIN:ACKSTATUS:1",
			"JOIN:ACKSTATUS:2",
			"JOIN:ACKSTATUS:3",
		}, hub.take(carol))
		assert.False(t, carol.InRoom())
	})
}

func TestRegistry_Place(t *testing.T) {
	t.Run("Move on turn is broadcast to everyone", func(t *testing.T) {
		// Given: a running game watched by carol
		hub := newFakeHub()
		registry, alice, bob := startedGame(t, hub)
		carol := hub.add("carol")
		require.Equal(t, protocol.StatusSuccess, registry.Join(carol, "r", protocol.ModeViewer))
		hub.take(carol)

		// When: alice places top-left
		registry.Place(alice, 0, 0)

		// Then: every participant sees the new board
		for _, player := range []*entity.Player{alice, bob, carol} {
			assert.Equal(t, []string{"BOARDSTATUS:100000000"}, hub.take(player), player.Username)
		}
	})

	t.Run("Out of turn move is replayed when the turn arrives", func(t *testing.T) {
		hub := newFakeHub()
		registry, alice, bob := startedGame(t, hub)

		// When: bob moves before alice, then alice moves
		registry.Place(bob, 2, 2)
		assert.Empty(t, hub.take(alice))
		registry.Place(alice, 0, 0)

		// Then: both moves are applied in turn order
		assert.Equal(t, []string{"BOARDSTATUS:100000000", "BOARDSTATUS:100000002"}, hub.take(alice))
		assert.Empty(t, bob.Pending())
		room, _ := registry.Get("r")
		assert.Equal(t, alice.ID, room.Game().Turn)
	})

	t.Run("Moves queued before BEGIN are replayed on start", func(t *testing.T) {
		hub := newFakeHub()
		registry := newTestRegistry(hub)
		alice, bob := hub.add("alice"), hub.add("bob")
		require.Equal(t, protocol.StatusSuccess, registry.Create(alice, "r"))
		registry.Place(alice, 1, 1)
		hub.take(alice)

		require.Equal(t, protocol.StatusSuccess, registry.Join(bob, "r", protocol.ModePlayer))

		assert.Equal(t, []string{"BEGIN:alice:bob", "BOARDSTATUS:000010000"}, hub.take(alice))
	})

	t.Run("Replace policy keeps only the latest queued move", func(t *testing.T) {
		hub := newFakeHub()
		registry, _, bob := startedGame(t, hub, WithQueuePolicy(entity.QueueReplace))

		registry.Place(bob, 0, 0)
		registry.Place(bob, 2, 2)

		assert.Equal(t, []entity.Move{{Col: 2, Row: 2}}, bob.Pending())
	})

	t.Run("Occupied cell is ignored and the turn is kept", func(t *testing.T) {
		hub := newFakeHub()
		registry, alice, bob := startedGame(t, hub)
		registry.Place(alice, 0, 0)
		hub.take(alice)
		hub.take(bob)

		registry.Place(bob, 0, 0)
		registry.Place(bob, 3, 0)

		assert.Empty(t, hub.take(alice))
		room, _ := registry.Get("r")
		assert.Equal(t, bob.ID, room.Game().Turn)
	})

	t.Run("Win ends the game and removes the room", func(t *testing.T) {
		// Given: a game with a recorder attached
		hub := newFakeHub()
		recorder := &fakeRecorder{}
		registry, alice, bob := startedGame(t, hub, WithRecorder(recorder))

		// When: alice completes the top row
		moves := []struct {
			player   *entity.Player
			col, row int
		}{
			{alice, 0, 0}, {bob, 0, 1}, {alice, 1, 0}, {bob, 1, 1}, {alice, 2, 0},
		}
		for _, move := range moves {
			registry.Place(move.player, move.col, move.row)
		}

		// Then: GAMEEND names the winner and everyone is detached
		frames := hub.take(bob)
		assert.Equal(t, "GAMEEND:111220000:0:alice", frames[len(frames)-1])
		assert.Equal(t, 0, registry.Len())
		assert.False(t, alice.InRoom())
		assert.False(t, bob.InRoom())
		assert.Equal(t, entity.MarkEmpty, alice.Mark)

		require.Len(t, recorder.results, 1)
		result := recorder.results[0]
		assert.Equal(t, "alice", result.Winner)
		assert.Equal(t, entity.OutcomeWin, result.Outcome)
		assert.Equal(t, [2]string{"alice", "bob"}, result.Players)
		assert.Equal(t, "111220000", result.Board)
		assert.NotEmpty(t, result.ID)
	})

	t.Run("Draw ends the game and removes the room", func(t *testing.T) {
		hub := newFakeHub()
		recorder := &fakeRecorder{}
		registry, alice, bob := startedGame(t, hub, WithRecorder(recorder))

		// X O X / X O O / O X X
		moves := []struct {
			player   *entity.Player
			col, row int
		}{
			{alice, 0, 0}, {bob, 1, 0}, {alice, 2, 0},
			{bob, 1, 1}, {alice, 0, 1}, {bob, 2, 1},
			{alice, 1, 2}, {bob, 0, 2}, {alice, 2, 2},
		}
		for _, move := range moves {
			registry.Place(move.player, move.col, move.row)
		}

		frames := hub.take(alice)
		assert.Equal(t, "GAMEEND:121122211:1", frames[len(frames)-1])
		assert.Equal(t, 0, registry.Len())
		assert.False(t, alice.InRoom())
		require.Len(t, recorder.results, 1)
		assert.Equal(t, entity.OutcomeDraw, recorder.results[0].Outcome)
		assert.Empty(t, recorder.results[0].Winner)
	})

	t.Run("Viewer placement is ignored", func(t *testing.T) {
		hub := newFakeHub()
		registry, alice, _ := startedGame(t, hub)
		carol := hub.add("carol")
		require.Equal(t, protocol.StatusSuccess, registry.Join(carol, "r", protocol.ModeViewer))

		registry.Place(carol, 0, 0)

		assert.Empty(t, hub.take(alice))
		assert.Empty(t, carol.Pending())
	})
}

func TestRegistry_Forfeit(t *testing.T) {
	t.Run("Forfeit hands the win to the opponent", func(t *testing.T) {
		hub := newFakeHub()
		recorder := &fakeRecorder{}
		registry, alice, bob := startedGame(t, hub, WithRecorder(recorder))
		carol := hub.add("carol")
		require.Equal(t, protocol.StatusSuccess, registry.Join(carol, "r", protocol.ModeViewer))
		hub.take(carol)

		registry.Forfeit(alice)

		for _, player := range []*entity.Player{alice, bob, carol} {
			assert.Equal(t, []string{"GAMEEND:000000000:2:bob"}, hub.take(player), player.Username)
			assert.False(t, player.InRoom(), player.Username)
		}
		assert.Equal(t, 0, registry.Len())
		require.Len(t, recorder.results, 1)
		assert.Equal(t, entity.OutcomeForfeit, recorder.results[0].Outcome)
		assert.Equal(t, "bob", recorder.results[0].Winner)
	})

	t.Run("Forfeit before BEGIN closes the room silently", func(t *testing.T) {
		hub := newFakeHub()
		recorder := &fakeRecorder{}
		registry := newTestRegistry(hub, WithRecorder(recorder))
		alice := hub.add("alice")
		require.Equal(t, protocol.StatusSuccess, registry.Create(alice, "r"))
		hub.take(alice)

		registry.Forfeit(alice)

		assert.Empty(t, hub.take(alice))
		assert.False(t, alice.InRoom())
		assert.Equal(t, 0, registry.Len())
		assert.Empty(t, recorder.results)
	})

	t.Run("Viewer forfeit is ignored", func(t *testing.T) {
		hub := newFakeHub()
		registry, _, _ := startedGame(t, hub)
		carol := hub.add("carol")
		require.Equal(t, protocol.StatusSuccess, registry.Join(carol, "r", protocol.ModeViewer))

		registry.Forfeit(carol)

		assert.Equal(t, 1, registry.Len())
		assert.True(t, carol.InRoom())
	})
}

func TestRegistry_Leave(t *testing.T) {
	t.Run("Player disconnect forfeits", func(t *testing.T) {
		hub := newFakeHub()
		registry, alice, bob := startedGame(t, hub)

		registry.Leave(bob)

		assert.Equal(t, []string{"GAMEEND:000000000:2:alice"}, hub.take(alice))
		assert.Equal(t, 0, registry.Len())
	})

	t.Run("Viewer disconnect leaves the game running", func(t *testing.T) {
		hub := newFakeHub()
		registry, alice, _ := startedGame(t, hub)
		carol := hub.add("carol")
		require.Equal(t, protocol.StatusSuccess, registry.Join(carol, "r", protocol.ModeViewer))

		registry.Leave(carol)
		registry.Place(alice, 0, 0)

		room, ok := registry.Get("r")
		require.True(t, ok)
		assert.Empty(t, room.Viewers())
		assert.False(t, carol.InRoom())
		assert.Equal(t, []string{"JOIN:ACKSTATUS:0", "INPROGRESS:alice:bob"}, hub.take(carol))
	})

	t.Run("Leaving outside a room is a no-op", func(t *testing.T) {
		hub := newFakeHub()
		registry := newTestRegistry(hub)

		registry.Leave(hub.add("alice"))

		assert.Equal(t, 0, registry.Len())
	})
}

func TestRegistry_Snapshot(t *testing.T) {
	hub := newFakeHub()
	registry, alice, _ := startedGame(t, hub)
	registry.Place(alice, 1, 1)

	infos := registry.Snapshot()

	require.Len(t, infos, 1)
	assert.Equal(t, RoomInfo{
		Name:    "r",
		Players: []string{"alice", "bob"},
		Begun:   true,
		Board:   "000010000",
		Turn:    "bob",
	}, infos[0])
}
