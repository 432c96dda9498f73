// Package openvr exposes the small part of the OpenVR runtime that trackerlink
// reads: device classes, string properties and absolute tracking poses.
package openvr

import (
	"errors"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// MaxDevices is the number of device slots polled per cycle (k_unMaxTrackedDeviceCount).
const MaxDevices = 32

var (
	// ErrRuntimeMissing is returned when openvr_api.dll cannot be loaded. It is fatal.
	ErrRuntimeMissing = errors.New("openvr runtime library not found")

	// ErrNotRunning is returned when the runtime is installed but SteamVR is
	// not running or no headset is connected. Callers retry.
	ErrNotRunning = errors.New("openvr runtime not running")
)

// System is the query surface over the VR runtime.
type System interface {
	// DeviceToAbsoluteTrackingPose fills poses, indexed by device slot.
	DeviceToAbsoluteTrackingPose(origin TrackingOrigin, poses []TrackedDevicePose)
	// StringProperty returns a string property. Any error other than
	// PropertySuccess means the property is absent.
	StringProperty(index uint32, prop DeviceProperty) (string, PropertyError)
	DeviceClass(index uint32) DeviceClass
	IsDeviceConnected(index uint32) bool
}

// DeviceClass is ETrackedDeviceClass.
type DeviceClass int32

const (
	ClassInvalid DeviceClass = iota
	ClassHMD
	ClassController
	ClassGenericTracker
	ClassTrackingReference
	ClassDisplayRedirect
)

func (c DeviceClass) String() string {
	switch c {
	case ClassInvalid:
		return "Invalid"
	case ClassHMD:
		return "HMD"
	case ClassController:
		return "Controller"
	case ClassGenericTracker:
		return "GenericTracker"
	case ClassTrackingReference:
		return "TrackingReference"
	case ClassDisplayRedirect:
		return "DisplayRedirect"
	default:
		return "Unknown"
	}
}

// TrackingOrigin is ETrackingUniverseOrigin.
type TrackingOrigin int32

const (
	OriginSeated TrackingOrigin = iota
	OriginStanding
	OriginRawAndUncalibrated
)

// PropertyError is ETrackedPropertyError.
type PropertyError int32

const (
	PropertySuccess          PropertyError = 0
	PropertyWrongDataType    PropertyError = 1
	PropertyWrongDeviceClass PropertyError = 2
	PropertyBufferTooSmall   PropertyError = 3
	PropertyUnknownProperty  PropertyError = 4
	PropertyInvalidDevice    PropertyError = 5
	PropertyNotProvided      PropertyError = 7
	PropertyNotYetAvailable  PropertyError = 9
)

// Matrix34 is HmdMatrix34_t: a row-major 3x4 rigid transform in meters.
type Matrix34 [3][4]float32

// Position returns the translation column.
func (m Matrix34) Position() r3.Vector {
	return r3.Vector{X: float64(m[0][3]), Y: float64(m[1][3]), Z: float64(m[2][3])}
}

// Rotation returns the rotation part as a unit quaternion.
func (m Matrix34) Rotation() quat.Number {
	mat := mgl64.Mat4FromRows(
		mgl64.Vec4{float64(m[0][0]), float64(m[0][1]), float64(m[0][2]), 0},
		mgl64.Vec4{float64(m[1][0]), float64(m[1][1]), float64(m[1][2]), 0},
		mgl64.Vec4{float64(m[2][0]), float64(m[2][1]), float64(m[2][2]), 0},
		mgl64.Vec4{0, 0, 0, 1},
	)
	q := mgl64.Mat4ToQuat(mat).Normalize()
	return quat.Number{Real: q.W, Imag: q.V[0], Jmag: q.V[1], Kmag: q.V[2]}
}

// Identity34 returns the identity transform translated to (x, y, z).
func Identity34(x, y, z float32) Matrix34 {
	return Matrix34{
		{1, 0, 0, x},
		{0, 1, 0, y},
		{0, 0, 1, z},
	}
}

// TrackedDevicePose mirrors TrackedDevicePose_t byte for byte so a slice of
// them can be handed to the runtime directly.
type TrackedDevicePose struct {
	DeviceToAbsoluteTracking Matrix34
	Velocity                 [3]float32
	AngularVelocity          [3]float32
	TrackingResult           int32
	PoseIsValid              bool
	DeviceIsConnected        bool
	_                        [2]byte
}

// LinearVelocity returns the velocity in meters per second.
func (p TrackedDevicePose) LinearVelocity() r3.Vector {
	return r3.Vector{X: float64(p.Velocity[0]), Y: float64(p.Velocity[1]), Z: float64(p.Velocity[2])}
}
