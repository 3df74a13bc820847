package sim

import "math"

// Aim is the local player's aiming state: a yaw around the vertical axis
// and a bounded pitch. It never leaves the client.
type Aim struct {
	Yaw   float64
	Pitch float64
}

// NewAim starts aimed at the goal with a slight downward pitch.
func NewAim() Aim {
	return Aim{Pitch: -0.1}
}

// Adjust applies an aim input and clamps the pitch to its legal range.
func (a *Aim) Adjust(dYaw, dPitch float64) {
	a.Yaw += dYaw
	a.Pitch = clamp(a.Pitch+dPitch, AimPitchMin, AimPitchMax)
}

// Direction is the unit shot direction: -Z rotated by pitch about X, then
// by yaw about Y.
func (a Aim) Direction() Vec3 {
	cp := math.Cos(a.Pitch)
	return Vec3{
		X: -cp * math.Sin(a.Yaw),
		Y: math.Sin(a.Pitch),
		Z: -cp * math.Cos(a.Yaw),
	}
}
