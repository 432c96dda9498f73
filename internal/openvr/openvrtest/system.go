// Package openvrtest provides an in-memory openvr.System for tests.
package openvrtest

import (
	"sync"

	"trackerlink/internal/openvr"
)

// Device is one fake device slot.
type Device struct {
	Class      openvr.DeviceClass
	Connected  bool
	Properties map[openvr.DeviceProperty]string
	Pose       openvr.TrackedDevicePose
}

// System is a fake openvr.System. The zero value has no devices.
type System struct {
	mu      sync.Mutex
	devices map[uint32]Device

	// Origins records the origin passed to every pose query.
	Origins []openvr.TrackingOrigin
}

// NewSystem returns an empty fake.
func NewSystem() *System {
	return &System{devices: make(map[uint32]Device)}
}

// SetDevice puts d into slot index, replacing whatever was there.
func (s *System) SetDevice(index uint32, d Device) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.devices == nil {
		s.devices = make(map[uint32]Device)
	}
	s.devices[index] = d
}

// RemoveDevice empties slot index.
func (s *System) RemoveDevice(index uint32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.devices, index)
}

// Tracker returns a connected generic tracker at (x, y, z) with identity
// rotation and the given velocity.
func Tracker(serial string, pos, vel [3]float32) Device {
	return Device{
		Class:     openvr.ClassGenericTracker,
		Connected: true,
		Properties: map[openvr.DeviceProperty]string{
			openvr.PropTrackingSystemName: "lighthouse",
			openvr.PropSerialNumber:       serial,
		},
		Pose: Pose(pos, vel),
	}
}

// Pose returns a valid, connected pose with identity rotation.
func Pose(pos, vel [3]float32) openvr.TrackedDevicePose {
	return openvr.TrackedDevicePose{
		DeviceToAbsoluteTracking: openvr.Identity34(pos[0], pos[1], pos[2]),
		Velocity:                 vel,
		PoseIsValid:              true,
		DeviceIsConnected:        true,
	}
}

func (s *System) DeviceToAbsoluteTrackingPose(origin openvr.TrackingOrigin, poses []openvr.TrackedDevicePose) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Origins = append(s.Origins, origin)
	for i := range poses {
		d, ok := s.devices[uint32(i)]
		if !ok {
			poses[i] = openvr.TrackedDevicePose{}
			continue
		}
		poses[i] = d.Pose
		poses[i].DeviceIsConnected = d.Connected
	}
}

func (s *System) StringProperty(index uint32, prop openvr.DeviceProperty) (string, openvr.PropertyError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.devices[index]
	if !ok {
		return "", openvr.PropertyInvalidDevice
	}
	v, ok := d.Properties[prop]
	if !ok {
		return "", openvr.PropertyNotProvided
	}
	return v, openvr.PropertySuccess
}

func (s *System) DeviceClass(index uint32) openvr.DeviceClass {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.devices[index].Class
}

func (s *System) IsDeviceConnected(index uint32) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.devices[index].Connected
}
