// Package transform converts raw runtime poses into the client's coordinate convention.
package transform

import (
	"fmt"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"trackerlink/internal/openvr"
	"trackerlink/internal/telemetry"
)

// FeetPerMeter scales runtime meters into client studs-compatible feet.
const FeetPerMeter = 3.28084

// Mode selects the reference frame of the output.
type Mode string

const (
	// ModeWorld reports poses in the runtime's standing tracking space.
	ModeWorld Mode = "world"
	// ModeHeadset re-bases poses on the headset pose.
	ModeHeadset Mode = "headset"
)

// ParseMode validates a mode name. An empty name selects ModeWorld.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeWorld:
		return ModeWorld, nil
	case ModeHeadset:
		return ModeHeadset, nil
	default:
		return "", fmt.Errorf("unknown coordinate mode %q (want %q or %q)", s, ModeWorld, ModeHeadset)
	}
}

// Device is one polled slot with its resolved role.
type Device struct {
	Index uint32
	Class openvr.DeviceClass
	Role  telemetry.Role
	Pose  openvr.TrackedDevicePose
}

// Transformer is stateless; the mode is fixed at construction.
type Transformer struct {
	mode Mode
}

// New returns a Transformer for mode.
func New(mode Mode) *Transformer {
	if mode == "" {
		mode = ModeWorld
	}
	return &Transformer{mode: mode}
}

// Mode returns the configured mode.
func (t *Transformer) Mode() Mode {
	return t.mode
}

// Transform builds one frame per generic tracker in devices, preserving order.
// headset is only consulted in ModeHeadset; when it is nil the poses are
// reported in world space.
func (t *Transformer) Transform(devices []Device, headset *openvr.TrackedDevicePose) []telemetry.Frame {
	frames := make([]telemetry.Frame, 0, len(devices))

	var (
		rebase  bool
		origin  r3.Vector
		inverse quat.Number
	)
	if t.mode == ModeHeadset && headset != nil {
		rebase = true
		origin = headset.DeviceToAbsoluteTracking.Position()
		inverse = quat.Inv(headset.DeviceToAbsoluteTracking.Rotation())
	}

	for _, d := range devices {
		if d.Class != openvr.ClassGenericTracker {
			continue
		}

		position := d.Pose.DeviceToAbsoluteTracking.Position()
		rotation := d.Pose.DeviceToAbsoluteTracking.Rotation()
		velocity := d.Pose.LinearVelocity()

		if rebase {
			position = rotate(inverse, position.Sub(origin))
			rotation = quat.Mul(inverse, rotation)
			velocity = rotate(inverse, velocity)
		}

		frames = append(frames, telemetry.Frame{
			DeviceIndex: d.Index,
			Class:       d.Class,
			Role:        d.Role,
			Position:    position.Mul(FeetPerMeter),
			Rotation:    flipHandedness(rotation),
			Velocity:    velocity.Mul(FeetPerMeter),
		})
	}
	return frames
}

// flipHandedness negates the vector part and keeps the scalar part.
func flipHandedness(q quat.Number) quat.Number {
	return quat.Conj(q)
}

// rotate applies unit quaternion q to v.
func rotate(q quat.Number, v r3.Vector) r3.Vector {
	p := quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
	r := quat.Mul(quat.Mul(q, p), quat.Conj(q))
	return r3.Vector{X: r.Imag, Y: r.Jmag, Z: r.Kmag}
}
