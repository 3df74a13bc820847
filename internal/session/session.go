// Package session owns the authoritative match state: the roster of at
// most two players, their scores, and the match phase. Every inbound
// message mutates state and broadcasts the resulting full-roster snapshot
// before the next message is handled; clients replace their local caches
// with whatever the session says.
package session

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/dstepanov/goalduel/internal/protocol"
)

const (
	maxPlayers    = 2
	pointsPerGoal = 10
	winPoints     = 50
	maxMissStreak = 3
)

// Phase is the explicit match lifecycle. The source tracked this
// implicitly through player count and flags; here invalid operations for
// the current phase are dropped instead of trusted.
type Phase uint8

const (
	PhaseEmpty Phase = iota
	PhaseAwaiting
	PhasePlaying
	PhaseMatchOver
)

func (p Phase) String() string {
	switch p {
	case PhaseEmpty:
		return "empty"
	case PhaseAwaiting:
		return "awaiting"
	case PhasePlaying:
		return "playing"
	case PhaseMatchOver:
		return "matchOver"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// Peer is the outbound half of a connected player. Sends must not block.
type Peer interface {
	Send(msg protocol.Message)
}

type player struct {
	rec  protocol.PlayerRecord
	peer Peer
}

// Session is the process-wide match container. A single mutex serializes
// all handlers, so every mutate-then-broadcast sequence completes before
// the next message is processed.
type Session struct {
	mu      sync.Mutex
	phase   Phase
	players map[string]*player
	log     zerolog.Logger
}

func New(log zerolog.Logger) *Session {
	return &Session{
		phase:   PhaseEmpty,
		players: make(map[string]*player),
		log:     log.With().Str("component", "session").Logger(),
	}
}

// Phase returns the current match phase.
func (s *Session) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// Stats describes the session for the health endpoint.
type Stats struct {
	Phase   string `json:"phase"`
	Players int    `json:"players"`
}

func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Phase: s.phase.String(), Players: len(s.players)}
}

// Join admits a player. A third join is rejected with sessionFull and
// leaves the roster untouched. The joiner receives the full roster; the
// existing peer is told about the newcomer. Returns false on rejection.
func (s *Session) Join(id string, peer Peer, name, color string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.players) >= maxPlayers {
		s.log.Info().Str("player", id).Msg("join rejected, session full")
		if msg, err := protocol.NewMessage(protocol.EventSessionFull, nil); err == nil {
			peer.Send(msg)
		}
		return false
	}
	if _, ok := s.players[id]; ok {
		return false // already joined on this connection
	}

	if name == "" {
		name = "Player-" + shortID(id)
	}
	p := &player{
		rec: protocol.PlayerRecord{
			ID:   id,
			Name: name,
			Team: protocol.ParseTeam(color),
		},
		peer: peer,
	}
	s.players[id] = p

	if msg, err := protocol.NewMessage(protocol.EventCurrentPlayers,
		protocol.CurrentPlayersPayload{You: id, Players: s.snapshot()}); err == nil {
		peer.Send(msg)
	}
	s.broadcastExcept(id, protocol.EventPlayerJoined, p.rec)

	if len(s.players) == maxPlayers {
		s.resetMatchStats()
		s.phase = PhasePlaying
	} else {
		s.phase = PhaseAwaiting
	}
	s.log.Info().Str("player", id).Str("name", name).
		Str("team", string(p.rec.Team)).Stringer("phase", s.phase).Msg("player joined")
	return true
}

// Move records a player's lateral position and relays it to the other
// peer. Unknown ids are ignored.
func (s *Session) Move(id string, x, z float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return
	}
	p.rec.X = x
	p.rec.Z = z
	s.broadcastExcept(id, protocol.EventPlayerMoved,
		protocol.PlayerMovedPayload{ID: id, X: x, Z: z})
}

// Disconnect removes a player and unconditionally ends the session for
// everyone remaining: playerLeft, then sessionOver, which forces every
// client back to its menu regardless of match phase.
func (s *Session) Disconnect(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.players[id]; !ok {
		return
	}
	delete(s.players, id)

	s.broadcast(protocol.EventPlayerLeft, protocol.PlayerLeftPayload{ID: id})
	s.broadcast(protocol.EventSessionOver, nil)

	if len(s.players) == 0 {
		s.phase = PhaseEmpty
	} else {
		s.phase = PhaseAwaiting
	}
	s.log.Info().Str("player", id).Stringer("phase", s.phase).Msg("player disconnected")
}

// opponentOf finds the other connected id, if any. With two players this
// is unambiguous; otherwise it returns "".
func (s *Session) opponentOf(id string) string {
	for pid := range s.players {
		if pid != id {
			return pid
		}
	}
	return ""
}

// snapshot copies the roster for a broadcast payload. Callers must hold
// the mutex.
func (s *Session) snapshot() map[string]protocol.PlayerRecord {
	out := make(map[string]protocol.PlayerRecord, len(s.players))
	for id, p := range s.players {
		out[id] = p.rec
	}
	return out
}

// resetMatchStats zeroes per-match fields on everyone; wins persist.
// Callers must hold the mutex.
func (s *Session) resetMatchStats() {
	for _, p := range s.players {
		p.rec.Points = 0
		p.rec.MissStreak = 0
		p.rec.Ready = false
	}
}

func (s *Session) broadcast(event string, payload any) {
	msg, err := protocol.NewMessage(event, payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", event).Msg("broadcast encode failed")
		return
	}
	for _, p := range s.players {
		p.peer.Send(msg)
	}
}

func (s *Session) broadcastExcept(exceptID string, event string, payload any) {
	msg, err := protocol.NewMessage(event, payload)
	if err != nil {
		s.log.Error().Err(err).Str("event", event).Msg("broadcast encode failed")
		return
	}
	for id, p := range s.players {
		if id != exceptID {
			p.peer.Send(msg)
		}
	}
}

func shortID(id string) string {
	if len(id) > 4 {
		return id[:4]
	}
	return id
}
