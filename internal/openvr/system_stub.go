//go:build !windows

package openvr

import "fmt"

// Stub implementation for platforms without the Windows OpenVR runtime

// Runtime represents a stub runtime connection
type Runtime struct{}

// Open always fails with ErrRuntimeMissing on this platform
func Open() (*Runtime, error) {
	return nil, fmt.Errorf("%w: only supported on windows", ErrRuntimeMissing)
}

// Close does nothing (stub)
func (r *Runtime) Close() error { return nil }

// DeviceToAbsoluteTrackingPose leaves poses untouched (stub)
func (r *Runtime) DeviceToAbsoluteTrackingPose(origin TrackingOrigin, poses []TrackedDevicePose) {}

// DeviceClass returns ClassInvalid (stub)
func (r *Runtime) DeviceClass(index uint32) DeviceClass { return ClassInvalid }

// IsDeviceConnected returns false (stub)
func (r *Runtime) IsDeviceConnected(index uint32) bool { return false }

// StringProperty reports every property as absent (stub)
func (r *Runtime) StringProperty(index uint32, prop DeviceProperty) (string, PropertyError) {
	return "", PropertyInvalidDevice
}
