package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dstepanov/goalduel/internal/protocol"
)

// runShot steps the simulator until the shot resolves, failing the test if
// it never does.
func runShot(t *testing.T, s *Simulator, dir Vec3, blockers []Blocker) protocol.Outcome {
	t.Helper()
	require.True(t, s.Shoot(dir))
	for i := 0; i < 10*TickRate; i++ {
		if out, ok := s.Step(blockers); ok {
			return out
		}
	}
	t.Fatal("shot never resolved")
	return ""
}

// Aimed wide of the keeper's sway range but inside the goal mouth: always
// a goal.
func TestShotInsideMouthIsGoal(t *testing.T) {
	s := New(protocol.TeamBlue)
	out := runShot(t, s, Vec3{-3, 0.6, -7.7}, nil)

	assert.Equal(t, protocol.OutcomeGoal, out)
	assert.Zero(t, s.Velocity())
	assert.Equal(t, GoalZ-0.6, s.Ball().Z)
}

// |x| beyond the half-width at the crossing plane is a miss no matter the
// height.
func TestWideShotIsMissRegardlessOfHeight(t *testing.T) {
	for _, dir := range []Vec3{
		{-5, 0.3, -7.7},
		{-5, 1.8, -7.7},
		{5, 0.3, -7.7},
	} {
		s := New(protocol.TeamBlue)
		out := runShot(t, s, dir, nil)
		assert.Equal(t, protocol.OutcomeMiss, out, "dir %+v", dir)
		assert.Zero(t, s.Velocity())
		assert.LessOrEqual(t, s.Ball().Z, GoalZ-0.8)
	}
}

func TestShotOverCrossbarIsMiss(t *testing.T) {
	s := New(protocol.TeamBlue)
	out := runShot(t, s, Vec3{0, 3.5, -7.7}, nil)
	assert.Equal(t, protocol.OutcomeMiss, out)
}

// A straight shot down the middle runs into the keeper's box.
func TestKeeperContactIsSave(t *testing.T) {
	s := New(protocol.TeamBlue)
	out := runShot(t, s, Vec3{0, 0.05, -1}, nil)

	assert.Equal(t, protocol.OutcomeSave, out)
	// Reflected: the ball is no longer heading into the goal.
	assert.GreaterOrEqual(t, s.Velocity().Z, 0.0)
	assert.Greater(t, s.Ball().Z, GoalPlaneZ)
}

func TestOpposingBlockerSaves(t *testing.T) {
	s := New(protocol.TeamBlue)
	blockers := []Blocker{{X: 0, Z: -2, Team: protocol.TeamRed}}
	out := runShot(t, s, Vec3{0, 0.05, -1}, blockers)

	assert.Equal(t, protocol.OutcomeSave, out)
	assert.Greater(t, s.Velocity().Z, 0.0)
}

// A same-team avatar on the exact same trajectory never blocks; the shot
// continues past it into the goal.
func TestSameTeamBlockerNeverSaves(t *testing.T) {
	dir := Vec3{-3, 0.6, -7.7}
	onPath := func(team protocol.Team) []Blocker {
		// On the shot line at z=-3.
		return []Blocker{{X: -3 * 3 / 7.7, Z: -3, Team: team}}
	}

	s := New(protocol.TeamBlue)
	assert.Equal(t, protocol.OutcomeSave, runShot(t, s, dir, onPath(protocol.TeamRed)))

	s = New(protocol.TeamBlue)
	assert.Equal(t, protocol.OutcomeGoal, runShot(t, s, dir, onPath(protocol.TeamBlue)))
}

func TestFailSafeForcesMiss(t *testing.T) {
	s := New(protocol.TeamBlue)
	require.True(t, s.Shoot(Vec3{0, 0, -1}))

	// A tunneled ball far behind the goal line that somehow skipped the
	// plane classification.
	s.ball = Vec3{0, 1, FailSafeZ - 0.5}
	out, hit := s.checkFailSafe()
	require.True(t, hit)
	assert.Equal(t, protocol.OutcomeMiss, out)
	assert.Zero(t, s.vel)
}

// Once resolved, no detector may fire again until the ball resets.
func TestResolutionIsExactlyOnce(t *testing.T) {
	s := New(protocol.TeamBlue)
	runShot(t, s, Vec3{-3, 0.6, -7.7}, nil)

	for i := 0; i < HoldTicks+CooldownTicks-1; i++ {
		_, ok := s.Step(nil)
		assert.False(t, ok, "tick %d re-resolved", i)
		assert.False(t, s.CanShoot())
	}
	_, ok := s.Step(nil)
	assert.False(t, ok)
	assert.True(t, s.CanShoot())
	assert.Equal(t, Vec3{0, BallRadius, 0}, s.Ball())
}

func TestShootRejectedWhileShotInFlight(t *testing.T) {
	s := New(protocol.TeamBlue)
	require.True(t, s.Shoot(Vec3{0, 0, -1}))
	assert.False(t, s.Shoot(Vec3{0, 0, -1}))
	assert.False(t, s.CanShoot())
}

// Reset cancels the pending hold and respawn, so nothing from the old
// shot fires into a new match.
func TestResetCancelsPendingHold(t *testing.T) {
	s := New(protocol.TeamBlue)
	runShot(t, s, Vec3{-3, 0.6, -7.7}, nil)
	require.Equal(t, ShotHold, s.Phase())

	s.Reset()

	assert.True(t, s.CanShoot())
	assert.Equal(t, Vec3{0, BallRadius, 0}, s.Ball())
	assert.Equal(t, 1.0, s.Keeper.SpeedScale())
	_, ok := s.Step(nil)
	assert.False(t, ok)
	assert.True(t, s.CanShoot())
}

func TestVelocityDampedEachTick(t *testing.T) {
	s := New(protocol.TeamBlue)
	require.True(t, s.Shoot(Vec3{0, 1, -1}))
	v0 := s.Velocity().Length()
	assert.InDelta(t, ShotPower, v0, 1e-9)

	s.Step(nil)
	assert.InDelta(t, v0*Damping, s.Velocity().Length(), 1e-9)
}

func TestFloorClampKeepsBallAboveGround(t *testing.T) {
	s := New(protocol.TeamBlue)
	require.True(t, s.Shoot(Vec3{0, -0.5, -1}))
	for i := 0; i < TickRate; i++ {
		if _, ok := s.Step(nil); ok {
			break
		}
		assert.GreaterOrEqual(t, s.Ball().Y, BallRadius)
	}
}
