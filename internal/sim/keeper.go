package sim

import "math"

// Keeper models the goalkeeper as a swaying axis-aligned box on the goal
// line. The sway is a sine over accumulated time; difficulty scaling speeds
// the sway up without widening it.
type Keeper struct {
	timer      float64
	speedScale float64
}

func NewKeeper() *Keeper {
	return &Keeper{speedScale: 1}
}

// Advance moves the sway forward by one timestep.
func (k *Keeper) Advance(dt float64) {
	k.timer += dt * k.speedScale
}

// X is the keeper's current lateral position.
func (k *Keeper) X() float64 {
	return math.Sin(k.timer*KeeperSwayFreq) * KeeperSwayAmp
}

// AABB returns the keeper's current world-space bounding box.
func (k *Keeper) AABB() (min, max Vec3) {
	c := Vec3{k.X(), KeeperCenterY, KeeperZ}
	h := Vec3{KeeperHalfWidth, KeeperHalfHeight, KeeperHalfDepth}
	return c.Sub(h), c.Add(h)
}

// SetSpeedScale sets the sway speed multiplier, floored at 0.25.
func (k *Keeper) SetSpeedScale(s float64) {
	if s < 0.25 {
		s = 0.25
	}
	k.speedScale = s
}

// BumpSpeedScale multiplies the sway speed, used for per-tier difficulty.
func (k *Keeper) BumpSpeedScale(f float64) {
	k.SetSpeedScale(k.speedScale * f)
}

func (k *Keeper) SpeedScale() float64 {
	return k.speedScale
}

// Reset recenters the keeper and restores normal speed.
func (k *Keeper) Reset() {
	k.timer = 0
	k.speedScale = 1
}
