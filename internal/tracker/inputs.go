package tracker

import (
	"trackerlink/internal/openvr"
	"trackerlink/internal/telemetry"
	"trackerlink/internal/transform"
)

// Device describes one occupied slot for diagnostics.
type Device struct {
	Index        uint32
	HardwareID   string
	Class        openvr.DeviceClass
	GuessedRole  telemetry.Role
	SettingsRole telemetry.Role
	Properties   map[openvr.DeviceProperty]string
}

// Inputs polls the runtime once per call and produces a telemetry batch.
// It is not safe for concurrent use; the scheduler guarantees one caller.
type Inputs struct {
	system      openvr.System
	resolver    *Resolver
	transformer *transform.Transformer
	apiVersion  int
	poses       []openvr.TrackedDevicePose
}

// NewInputs wires a poll source. apiVersion is stamped on every batch.
func NewInputs(system openvr.System, resolver *Resolver, transformer *transform.Transformer, apiVersion int) *Inputs {
	return &Inputs{
		system:      system,
		resolver:    resolver,
		transformer: transformer,
		apiVersion:  apiVersion,
		poses:       make([]openvr.TrackedDevicePose, openvr.MaxDevices),
	}
}

// GetInputs returns one frame per connected generic tracker, in slot order.
func (in *Inputs) GetInputs() telemetry.Batch {
	in.system.DeviceToAbsoluteTrackingPose(openvr.OriginStanding, in.poses)

	var (
		devices []transform.Device
		headset *openvr.TrackedDevicePose
	)
	for i := uint32(0); i < openvr.MaxDevices; i++ {
		switch in.system.DeviceClass(i) {
		case openvr.ClassHMD:
			if headset == nil && in.system.IsDeviceConnected(i) {
				pose := in.poses[i]
				headset = &pose
			}
		case openvr.ClassGenericTracker:
			if !in.system.IsDeviceConnected(i) {
				continue
			}
			_, role := in.resolver.Resolve(i)
			devices = append(devices, transform.Device{
				Index: i,
				Class: openvr.ClassGenericTracker,
				Role:  role,
				Pose:  in.poses[i],
			})
		}
	}

	return telemetry.Batch{
		APIVersion: in.apiVersion,
		Frames:     in.transformer.Transform(devices, headset),
	}
}

// ListDevices enumerates every valid slot with its non-empty string
// properties. Roles are only filled in for generic trackers.
func (in *Inputs) ListDevices() []Device {
	var devices []Device
	for i := uint32(0); i < openvr.MaxDevices; i++ {
		class := in.system.DeviceClass(i)
		if class == openvr.ClassInvalid {
			continue
		}

		d := Device{
			Index:      i,
			HardwareID: in.resolver.HardwareID(i),
			Class:      class,
			Properties: make(map[openvr.DeviceProperty]string),
		}
		if class == openvr.ClassGenericTracker {
			d.GuessedRole = in.resolver.GuessRole(i)
			d.SettingsRole = in.resolver.roles.Role(d.HardwareID)
		}
		for _, prop := range openvr.StringProperties {
			if v, ok := in.resolver.Property(i, prop); ok && v != "" {
				d.Properties[prop] = v
			}
		}
		devices = append(devices, d)
	}
	return devices
}
