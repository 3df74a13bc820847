// Package sim is the client-local shot simulator: a fixed-timestep
// integration of the ball against the goalkeeper, the opposing blocker and
// the goal plane. Each shot resolves exactly once into a goal, save or
// miss; the server never re-simulates, it only aggregates the reported
// outcomes.
package sim

import (
	"math"

	"github.com/dstepanov/goalduel/internal/protocol"
)

// Field and physics constants.
const (
	TickRate = 60
	DT       = 1.0 / float64(TickRate)

	BallRadius = 0.22
	ShotPower  = 18.0
	Damping    = 0.99 // per-tick velocity multiplier

	GoalZ         = -7.5 // goal line
	KeeperZ       = GoalZ + 0.15
	GoalHalfWidth = 3.6
	GoalHeight    = 2.5

	// Resolution planes: classification happens just in front of the goal
	// line; the fail-safe catches tunneling far behind it.
	GoalPlaneZ = GoalZ - 0.2
	FailSafeZ  = GoalZ - 6

	KeeperHalfWidth  = 0.45
	KeeperHalfHeight = 0.95
	KeeperHalfDepth  = 0.30
	KeeperCenterY    = 0.95
	KeeperSwayFreq   = 1.2
	KeeperSwayAmp    = 0.8

	BlockerRadius = 0.4
	BlockerMargin = 0.3
	BlockerMinX   = -GoalHalfWidth + BlockerMargin
	BlockerMaxX   = GoalHalfWidth - BlockerMargin

	RestitutionKeeper  = 0.6
	RestitutionBlocker = 0.55
	pushEpsilon        = 0.002

	AimPitchMin = -0.6
	AimPitchMax = 0.4
	AimStep     = 0.03

	// Post-resolution hold, then a short delay before the ball respawns.
	HoldTicks     = 40 // ~667ms
	CooldownTicks = 18 // ~300ms
)

// ShotPhase is the per-shot lifecycle.
type ShotPhase uint8

const (
	ShotIdle ShotPhase = iota // aiming permitted
	ShotActive
	ShotHold // resolved, visual settle
	ShotCooldown
)

// Blocker is the opposing player's avatar approximated as a sphere at its
// last-known lateral position. Only blockers on the other team can save.
type Blocker struct {
	X    float64
	Z    float64
	Team protocol.Team
}

// Simulator runs one shot at a time for the local player.
type Simulator struct {
	Keeper *Keeper

	team protocol.Team

	ball     Vec3
	vel      Vec3
	phase    ShotPhase
	resolved bool
	timer    int // ticks left in the current hold/cooldown
}

func New(team protocol.Team) *Simulator {
	s := &Simulator{
		Keeper: NewKeeper(),
		team:   team,
	}
	s.resetBall()
	return s
}

func (s *Simulator) resetBall() {
	s.ball = Vec3{0, BallRadius, 0}
	s.vel = Vec3{}
}

// Ball returns the current ball position.
func (s *Simulator) Ball() Vec3 { return s.ball }

// Velocity returns the current ball velocity.
func (s *Simulator) Velocity() Vec3 { return s.vel }

// Phase returns the shot lifecycle phase.
func (s *Simulator) Phase() ShotPhase { return s.phase }

// CanShoot reports whether a new shot may be launched.
func (s *Simulator) CanShoot() bool { return s.phase == ShotIdle }

// Shoot launches the ball along dir at full power. It is a no-op unless
// the simulator is idle.
func (s *Simulator) Shoot(dir Vec3) bool {
	if s.phase != ShotIdle {
		return false
	}
	s.vel = dir.Normalize().Scale(ShotPower)
	s.phase = ShotActive
	s.resolved = false
	return true
}

// Reset cancels any in-flight shot and pending hold/cooldown and returns
// the ball to the spot. A rematch must call this so no timer from the
// previous match can fire afterwards.
func (s *Simulator) Reset() {
	s.resetBall()
	s.phase = ShotIdle
	s.resolved = false
	s.timer = 0
	s.Keeper.Reset()
}

// Step advances the simulation by one tick. It returns an outcome with
// ok=true on the single tick a shot resolves; every other tick returns
// ok=false. blockers are the remote players at their last-known positions.
func (s *Simulator) Step(blockers []Blocker) (outcome protocol.Outcome, ok bool) {
	s.Keeper.Advance(DT)

	switch s.phase {
	case ShotActive:
		return s.stepActive(blockers)
	case ShotHold:
		s.timer--
		if s.timer <= 0 {
			s.phase = ShotCooldown
			s.timer = CooldownTicks
		}
	case ShotCooldown:
		s.timer--
		if s.timer <= 0 {
			s.resetBall()
			s.phase = ShotIdle
			s.resolved = false
		}
	}
	return "", false
}

func (s *Simulator) stepActive(blockers []Blocker) (protocol.Outcome, bool) {
	s.ball = s.ball.Add(s.vel.Scale(DT))
	s.vel = s.vel.Scale(Damping)
	if s.ball.Y < BallRadius {
		s.ball.Y = BallRadius
	}

	// Detector order is fixed: keeper, then blocker, then goal plane, then
	// the tunneling fail-safe. The resolved guard makes the first hit win.
	if out, hit := s.checkKeeper(); hit {
		return s.resolve(out), true
	}
	if out, hit := s.checkBlockers(blockers); hit {
		return s.resolve(out), true
	}
	if out, hit := s.checkGoalPlane(); hit {
		return s.resolve(out), true
	}
	if out, hit := s.checkFailSafe(); hit {
		return s.resolve(out), true
	}
	return "", false
}

// checkFailSafe forces a miss when the ball has traveled far past the
// goal line without resolving, so a tunneled shot can never stay active
// forever.
func (s *Simulator) checkFailSafe() (protocol.Outcome, bool) {
	if s.resolved || s.ball.Z >= FailSafeZ {
		return "", false
	}
	s.vel = Vec3{}
	return protocol.OutcomeMiss, true
}

func (s *Simulator) resolve(out protocol.Outcome) protocol.Outcome {
	s.resolved = true
	s.phase = ShotHold
	s.timer = HoldTicks
	return out
}

// checkKeeper tests the ball against the keeper's AABB via the closest
// point on the box; on contact the ball is pushed out along the contact
// normal and its velocity reflected.
func (s *Simulator) checkKeeper() (protocol.Outcome, bool) {
	if s.resolved {
		return "", false
	}
	min, max := s.Keeper.AABB()
	closest := Vec3{
		X: clamp(s.ball.X, min.X, max.X),
		Y: clamp(s.ball.Y, min.Y, max.Y),
		Z: clamp(s.ball.Z, min.Z, max.Z),
	}
	delta := s.ball.Sub(closest)
	d2 := delta.LengthSq()
	if d2 > BallRadius*BallRadius {
		return "", false
	}
	normal := delta.Normalize()
	if normal.LengthSq() == 0 {
		normal = Vec3{0, 0, 1} // ball center inside the box; push back out
	}
	penetration := BallRadius - math.Sqrt(d2)
	s.ball = s.ball.Add(normal.Scale(penetration + pushEpsilon))
	s.vel = reflect(s.vel, normal, RestitutionKeeper)
	return protocol.OutcomeSave, true
}

// checkBlockers tests the ball against each opposing blocker, approximated
// as a sphere at the blocker's lateral position at ball height. Same-team
// blockers never save.
func (s *Simulator) checkBlockers(blockers []Blocker) (protocol.Outcome, bool) {
	if s.resolved {
		return "", false
	}
	const combined = BallRadius + BlockerRadius
	for _, b := range blockers {
		if b.Team == s.team {
			continue
		}
		center := Vec3{b.X, s.ball.Y, b.Z}
		delta := s.ball.Sub(center)
		d2 := delta.LengthSq()
		if d2 > combined*combined {
			continue
		}
		dist := math.Sqrt(d2)
		if dist < 1e-4 {
			dist = 1e-4
		}
		normal := delta.Scale(1 / dist)
		penetration := combined - dist
		s.ball = s.ball.Add(normal.Scale(penetration + pushEpsilon))
		s.vel = reflect(s.vel, normal, RestitutionBlocker)
		return protocol.OutcomeSave, true
	}
	return "", false
}

// checkGoalPlane classifies the shot once the ball crosses the plane just
// in front of the goal line: inside the mouth is a goal, anything else is
// a miss. The ball is stopped and clamped behind the line either way.
func (s *Simulator) checkGoalPlane() (protocol.Outcome, bool) {
	if s.resolved || s.ball.Z >= GoalPlaneZ {
		return "", false
	}
	inMouth := math.Abs(s.ball.X) <= GoalHalfWidth &&
		s.ball.Y >= 0 && s.ball.Y <= GoalHeight
	s.vel = Vec3{}
	if inMouth {
		s.ball.Z = GoalZ - 0.6
		return protocol.OutcomeGoal, true
	}
	s.ball.Z = math.Min(s.ball.Z, GoalZ-0.8)
	return protocol.OutcomeMiss, true
}
