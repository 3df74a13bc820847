package session

import "github.com/dstepanov/goalduel/internal/protocol"

// ReportShot applies a client-reported outcome to the reporter's record.
// The server trusts the report as-is; outcome validation is a deliberate
// non-goal for this casual 1v1 mode. Reports outside the playing phase are
// dropped.
//
// A goal is worth 10 points and clears the miss streak; any other outcome
// extends the streak. The updated scoreboard is broadcast before the win
// check so both clients see the final tally even when the match ends on
// this report.
func (s *Session) ReportShot(id string, outcome protocol.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase != PhasePlaying {
		s.log.Debug().Str("player", id).Stringer("phase", s.phase).
			Str("outcome", string(outcome)).Msg("shot report dropped, not playing")
		return
	}
	p, ok := s.players[id]
	if !ok {
		return
	}

	if outcome == protocol.OutcomeGoal {
		p.rec.Points += pointsPerGoal
		p.rec.MissStreak = 0
	} else {
		p.rec.MissStreak++
	}
	s.log.Info().Str("player", id).Str("outcome", string(outcome)).
		Uint("points", p.rec.Points).Uint("missStreak", p.rec.MissStreak).Msg("shot reported")

	s.broadcast(protocol.EventScoreUpdate,
		protocol.ScoreUpdatePayload{Players: s.snapshot()})

	// Win conditions, in order: the points target first, then the miss
	// streak handing the match to the opponent.
	var winnerID, loserID string
	var reason protocol.WinReason
	switch {
	case p.rec.Points >= winPoints:
		winnerID = id
		loserID = s.opponentOf(id)
		reason = protocol.WinByPoints
	case p.rec.MissStreak >= maxMissStreak:
		loserID = id
		winnerID = s.opponentOf(id)
		reason = protocol.WinByMisses
	default:
		return
	}
	s.endMatch(winnerID, loserID, reason)
}

// endMatch credits the winner, resets per-match stats and freezes play
// until a rematch. Win credit to an absent player is silently dropped.
// Callers must hold the mutex.
func (s *Session) endMatch(winnerID, loserID string, reason protocol.WinReason) {
	if w, ok := s.players[winnerID]; ok {
		w.rec.Wins++
	}
	s.resetMatchStats()
	s.phase = PhaseMatchOver

	s.log.Info().Str("winner", winnerID).Str("loser", loserID).
		Str("reason", string(reason)).Msg("match over")
	s.broadcast(protocol.EventMatchOver, protocol.MatchOverPayload{
		WinnerID: winnerID,
		LoserID:  loserID,
		Reason:   reason,
		Players:  s.snapshot(),
	})
}

// SetReady stores a player's rematch flag and broadcasts the ready count.
// The moment both of exactly two players are ready, everything resets and
// a new match starts.
func (s *Session) SetReady(id string, ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.players[id]
	if !ok {
		return
	}
	p.rec.Ready = ready

	readyCount := 0
	for _, pl := range s.players {
		if pl.rec.Ready {
			readyCount++
		}
	}
	s.broadcast(protocol.EventReadyStatus, protocol.ReadyStatusPayload{
		ReadyCount:   readyCount,
		TotalPlayers: len(s.players),
	})

	if len(s.players) == maxPlayers && readyCount == maxPlayers {
		s.resetMatchStats()
		s.phase = PhasePlaying
		s.log.Info().Msg("both players ready, starting new match")
		s.broadcast(protocol.EventNewMatchStart,
			protocol.NewMatchStartPayload{Players: s.snapshot()})
	}
}
