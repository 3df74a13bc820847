package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAimStartsAtGoal(t *testing.T) {
	a := NewAim()
	dir := a.Direction()
	assert.Zero(t, dir.X)
	assert.Negative(t, dir.Z)
	assert.Negative(t, dir.Y) // slight initial downward pitch
	assert.InDelta(t, 1.0, dir.Length(), 1e-9)
}

func TestAimPitchClamped(t *testing.T) {
	a := NewAim()
	for i := 0; i < 100; i++ {
		a.Adjust(0, AimStep)
	}
	assert.Equal(t, AimPitchMax, a.Pitch)

	for i := 0; i < 100; i++ {
		a.Adjust(0, -AimStep)
	}
	assert.Equal(t, AimPitchMin, a.Pitch)
}

func TestAimYawTurnsLeft(t *testing.T) {
	a := NewAim()
	a.Adjust(0.3, 0)
	assert.Negative(t, a.Direction().X)
}

func TestKeeperSwayStaysBounded(t *testing.T) {
	k := NewKeeper()
	for i := 0; i < 10*TickRate; i++ {
		k.Advance(DT)
		assert.LessOrEqual(t, math.Abs(k.X()), KeeperSwayAmp)
	}
}

func TestKeeperAABBTracksSway(t *testing.T) {
	k := NewKeeper()
	for i := 0; i < TickRate; i++ {
		k.Advance(DT)
	}
	min, max := k.AABB()
	assert.InDelta(t, k.X(), (min.X+max.X)/2, 1e-9)
	assert.InDelta(t, 2*KeeperHalfHeight, max.Y-min.Y, 1e-9)
	assert.InDelta(t, KeeperZ, (min.Z+max.Z)/2, 1e-9)
}

func TestKeeperSpeedScaleFloor(t *testing.T) {
	k := NewKeeper()
	k.SetSpeedScale(0)
	assert.Equal(t, 0.25, k.SpeedScale())

	k.SetSpeedScale(1)
	k.BumpSpeedScale(1.2)
	k.BumpSpeedScale(1.2)
	assert.InDelta(t, 1.44, k.SpeedScale(), 1e-9)
}
