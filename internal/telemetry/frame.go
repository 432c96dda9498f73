package telemetry

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"trackerlink/internal/openvr"
)

// APIVersion is the wire revision written by default.
const APIVersion = 2

// Frame is one tracker's transformed pose for a single poll cycle.
// Frames are built once by the transformer and never modified afterwards.
type Frame struct {
	DeviceIndex uint32
	Class       openvr.DeviceClass
	Role        Role
	Position    r3.Vector
	Rotation    quat.Number
	Velocity    r3.Vector
}

// Batch is the ordered set of frames produced by one cycle.
type Batch struct {
	APIVersion int
	Frames     []Frame
}
