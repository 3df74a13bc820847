package session

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstepanov/goalduel/internal/protocol"
)

// fakePeer records everything the session sends it.
type fakePeer struct {
	msgs []protocol.Message
}

func (f *fakePeer) Send(msg protocol.Message) {
	f.msgs = append(f.msgs, msg)
}

func (f *fakePeer) events() []string {
	out := make([]string, len(f.msgs))
	for i, m := range f.msgs {
		out[i] = m.Event
	}
	return out
}

// last returns the most recent message of the given event, decoded into
// out.
func (f *fakePeer) last(t *testing.T, event string, out any) {
	t.Helper()
	for i := len(f.msgs) - 1; i >= 0; i-- {
		if f.msgs[i].Event == event {
			require.NoError(t, json.Unmarshal(f.msgs[i].Data, out))
			return
		}
	}
	t.Fatalf("no %q message received, got %v", event, f.events())
}

func (f *fakePeer) count(event string) int {
	n := 0
	for _, m := range f.msgs {
		if m.Event == event {
			n++
		}
	}
	return n
}

func newTestSession() *Session {
	return New(zerolog.Nop())
}

func TestJoinFirstPlayerAwaitsOpponent(t *testing.T) {
	s := newTestSession()
	a := &fakePeer{}

	require.True(t, s.Join("a", a, "Alice", "blue"))
	assert.Equal(t, PhaseAwaiting, s.Phase())

	var roster protocol.CurrentPlayersPayload
	a.last(t, protocol.EventCurrentPlayers, &roster)
	assert.Equal(t, "a", roster.You)
	require.Len(t, roster.Players, 1)
	assert.Equal(t, "Alice", roster.Players["a"].Name)
	assert.Equal(t, protocol.TeamBlue, roster.Players["a"].Team)
}

func TestJoinSecondPlayerStartsPlaying(t *testing.T) {
	s := newTestSession()
	a, b := &fakePeer{}, &fakePeer{}

	require.True(t, s.Join("a", a, "Alice", "blue"))
	require.True(t, s.Join("b", b, "Bob", "red"))

	assert.Equal(t, PhasePlaying, s.Phase())

	// Existing peer learns about the newcomer.
	var joined protocol.PlayerRecord
	a.last(t, protocol.EventPlayerJoined, &joined)
	assert.Equal(t, "b", joined.ID)
	assert.Equal(t, protocol.TeamRed, joined.Team)

	// Joiner receives the full roster of two.
	var roster protocol.CurrentPlayersPayload
	b.last(t, protocol.EventCurrentPlayers, &roster)
	assert.Len(t, roster.Players, 2)
}

func TestJoinDefaultsColorAndName(t *testing.T) {
	s := newTestSession()
	a := &fakePeer{}

	require.True(t, s.Join("abcdef", a, "", "green"))

	var roster protocol.CurrentPlayersPayload
	a.last(t, protocol.EventCurrentPlayers, &roster)
	assert.Equal(t, protocol.TeamBlue, roster.Players["abcdef"].Team)
	assert.Equal(t, "Player-abcd", roster.Players["abcdef"].Name)
}

func TestDuplicateColorsAllowed(t *testing.T) {
	s := newTestSession()
	a, b := &fakePeer{}, &fakePeer{}

	require.True(t, s.Join("a", a, "Alice", "red"))
	require.True(t, s.Join("b", b, "Bob", "red"))

	var roster protocol.CurrentPlayersPayload
	b.last(t, protocol.EventCurrentPlayers, &roster)
	assert.Equal(t, protocol.TeamRed, roster.Players["a"].Team)
	assert.Equal(t, protocol.TeamRed, roster.Players["b"].Team)
}

func TestThirdJoinRejectedWithoutMutation(t *testing.T) {
	s := newTestSession()
	a, b, c := &fakePeer{}, &fakePeer{}, &fakePeer{}

	require.True(t, s.Join("a", a, "Alice", "blue"))
	require.True(t, s.Join("b", b, "Bob", "red"))
	require.False(t, s.Join("c", c, "Carol", "red"))

	assert.Equal(t, []string{protocol.EventSessionFull}, c.events())
	assert.Equal(t, 2, s.Stats().Players)
	assert.Equal(t, PhasePlaying, s.Phase())

	// The roster peers heard nothing about the rejected join.
	assert.Equal(t, 1, a.count(protocol.EventPlayerJoined)) // Bob's join only
	assert.Zero(t, b.count(protocol.EventPlayerJoined))
}

func TestMoveRelayedToOtherPeerOnly(t *testing.T) {
	s := newTestSession()
	a, b := &fakePeer{}, &fakePeer{}
	require.True(t, s.Join("a", a, "Alice", "blue"))
	require.True(t, s.Join("b", b, "Bob", "red"))

	s.Move("a", 1.5, -7.35)

	var moved protocol.PlayerMovedPayload
	b.last(t, protocol.EventPlayerMoved, &moved)
	assert.Equal(t, "a", moved.ID)
	assert.Equal(t, 1.5, moved.X)
	assert.Zero(t, a.count(protocol.EventPlayerMoved))
}

func TestMoveUnknownPlayerIgnored(t *testing.T) {
	s := newTestSession()
	a := &fakePeer{}
	require.True(t, s.Join("a", a, "Alice", "blue"))

	s.Move("ghost", 1, 2) // message after disconnect: silently dropped
	assert.Zero(t, a.count(protocol.EventPlayerMoved))
}

func TestDisconnectEndsSessionForRemainingPeer(t *testing.T) {
	s := newTestSession()
	a, b := &fakePeer{}, &fakePeer{}
	require.True(t, s.Join("a", a, "Alice", "blue"))
	require.True(t, s.Join("b", b, "Bob", "red"))

	s.Disconnect("a")

	var left protocol.PlayerLeftPayload
	b.last(t, protocol.EventPlayerLeft, &left)
	assert.Equal(t, "a", left.ID)
	assert.Equal(t, 1, b.count(protocol.EventSessionOver))
	assert.Equal(t, PhaseAwaiting, s.Phase())

	s.Disconnect("b")
	assert.Equal(t, PhaseEmpty, s.Phase())
}

func TestDisconnectDuringMatchOverStillEndsSession(t *testing.T) {
	s := newTestSession()
	a, b := &fakePeer{}, &fakePeer{}
	require.True(t, s.Join("a", a, "Alice", "blue"))
	require.True(t, s.Join("b", b, "Bob", "red"))
	for i := 0; i < 5; i++ {
		s.ReportShot("a", protocol.OutcomeGoal)
	}
	require.Equal(t, PhaseMatchOver, s.Phase())

	s.Disconnect("a")
	assert.Equal(t, 1, b.count(protocol.EventSessionOver))
}
