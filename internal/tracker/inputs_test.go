package tracker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"trackerlink/internal/logging"
	"trackerlink/internal/openvr"
	"trackerlink/internal/openvr/openvrtest"
	"trackerlink/internal/telemetry"
	"trackerlink/internal/transform"
)

func newInputs(sys *openvrtest.System, roles RoleSource, mode transform.Mode) *Inputs {
	resolver := NewResolver(sys, roles, logging.NewOnce(), zap.NewNop().Sugar())
	return NewInputs(sys, resolver, transform.New(mode), telemetry.APIVersion)
}

func headset() openvrtest.Device {
	return openvrtest.Device{
		Class:      openvr.ClassHMD,
		Connected:  true,
		Properties: map[openvr.DeviceProperty]string{openvr.PropRegisteredDeviceType: "test/headset"},
		Pose:       openvrtest.Pose([3]float32{0, 1.5, 0}, [3]float32{}),
	}
}

func TestGetInputs(t *testing.T) {
	sys := openvrtest.NewSystem()
	sys.SetDevice(0, headset())
	sys.SetDevice(1, openvrtest.Tracker("LHR-12ABCD78", [3]float32{0, 0, 0}, [3]float32{1, 2, 3}))
	disconnected := openvrtest.Tracker("LHR-12ABCD79", [3]float32{}, [3]float32{})
	disconnected.Connected = false
	sys.SetDevice(2, disconnected)
	sys.SetDevice(3, openvrtest.Device{Class: openvr.ClassController, Connected: true})
	sys.SetDevice(4, openvrtest.Tracker("AME-LEFTFOOT", [3]float32{1, 0, 0}, [3]float32{}))

	batch := newInputs(sys, staticRoles{"/devices/lighthouse/LHR-12ABCD78": telemetry.RoleWaist}, transform.ModeWorld).GetInputs()
	assert.Equal(t, telemetry.APIVersion, batch.APIVersion)
	require.Len(t, batch.Frames, 2)

	first := batch.Frames[0]
	assert.Equal(t, uint32(1), first.DeviceIndex)
	assert.Equal(t, openvr.ClassGenericTracker, first.Class)
	assert.Equal(t, telemetry.RoleWaist, first.Role)
	assert.InDelta(t, 0, first.Position.Norm(), 1e-9)
	assert.InDelta(t, 1*transform.FeetPerMeter, first.Velocity.X, 1e-5)
	assert.InDelta(t, 2*transform.FeetPerMeter, first.Velocity.Y, 1e-5)
	assert.InDelta(t, 3*transform.FeetPerMeter, first.Velocity.Z, 1e-5)

	second := batch.Frames[1]
	assert.Equal(t, uint32(4), second.DeviceIndex)
	assert.Equal(t, telemetry.RoleLeftFoot, second.Role)
	assert.InDelta(t, transform.FeetPerMeter, second.Position.X, 1e-5)

	require.NotEmpty(t, sys.Origins)
	assert.Equal(t, openvr.OriginStanding, sys.Origins[0])
}

func TestGetInputsHeadsetRelative(t *testing.T) {
	sys := openvrtest.NewSystem()
	sys.SetDevice(0, headset())
	sys.SetDevice(1, openvrtest.Tracker("A", [3]float32{0, 0.5, 0}, [3]float32{}))

	batch := newInputs(sys, staticRoles{}, transform.ModeHeadset).GetInputs()
	require.Len(t, batch.Frames, 1)
	assert.InDelta(t, -1*transform.FeetPerMeter, batch.Frames[0].Position.Y, 1e-5)
}

func TestGetInputsNoTrackers(t *testing.T) {
	sys := openvrtest.NewSystem()
	sys.SetDevice(0, headset())
	batch := newInputs(sys, staticRoles{}, transform.ModeWorld).GetInputs()
	assert.Empty(t, batch.Frames)
}

func TestListDevices(t *testing.T) {
	sys := openvrtest.NewSystem()
	sys.SetDevice(0, headset())
	sys.SetDevice(1, openvrtest.Device{
		Class:     openvr.ClassGenericTracker,
		Connected: true,
		Properties: map[openvr.DeviceProperty]string{
			openvr.PropTrackingSystemName: "lighthouse",
			openvr.PropSerialNumber:       "LHR-12ABCD78",
			openvr.PropModelNumber:        "",
		},
	})

	devices := newInputs(sys, staticRoles{"/devices/lighthouse/LHR-12ABCD78": telemetry.RoleChest}, transform.ModeWorld).ListDevices()
	require.Len(t, devices, 2)

	assert.Equal(t, uint32(0), devices[0].Index)
	assert.Equal(t, "/devices/test/headset", devices[0].HardwareID)
	assert.Equal(t, openvr.ClassHMD, devices[0].Class)
	assert.Equal(t, map[openvr.DeviceProperty]string{openvr.PropRegisteredDeviceType: "test/headset"}, devices[0].Properties)
	assert.Equal(t, telemetry.RoleNone, devices[0].SettingsRole)

	assert.Equal(t, uint32(1), devices[1].Index)
	assert.Equal(t, "/devices/lighthouse/LHR-12ABCD78", devices[1].HardwareID)
	assert.Len(t, devices[1].Properties, 2)
	assert.Equal(t, telemetry.RoleChest, devices[1].SettingsRole)
	assert.Equal(t, telemetry.RoleNone, devices[1].GuessedRole)
}
