package client

import "github.com/dstepanov/goalduel/internal/protocol"

// Tally is the client-local display score: +3 for a goal, -1 for a save,
// -2 for a miss, with an attempt counter. It is a display convenience
// only; the server's scoreboard snapshots are the truth for the match.
type Tally struct {
	Score      int
	Attempts   int
	MissStreak int
}

// Apply records one resolved shot.
func (t *Tally) Apply(outcome protocol.Outcome) {
	t.Attempts++
	switch outcome {
	case protocol.OutcomeGoal:
		t.Score += 3
		t.MissStreak = 0
	case protocol.OutcomeMiss:
		t.Score -= 2
		t.MissStreak++
	default: // save
		t.Score--
		t.MissStreak++
	}
}

// Reset clears the tally for a new match.
func (t *Tally) Reset() {
	*t = Tally{}
}

// Level is the difficulty tier, one per 10 display points.
func (t *Tally) Level() int {
	if t.Score <= 0 {
		return 0
	}
	return t.Score / 10
}
