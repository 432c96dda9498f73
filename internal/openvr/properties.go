package openvr

import "fmt"

// DeviceProperty is ETrackedDeviceProperty.
type DeviceProperty int32

// String properties read by trackerlink.
const (
	PropTrackingSystemName        DeviceProperty = 1000
	PropModelNumber               DeviceProperty = 1001
	PropSerialNumber              DeviceProperty = 1002
	PropRenderModelName           DeviceProperty = 1003
	PropManufacturerName          DeviceProperty = 1005
	PropTrackingFirmwareVersion   DeviceProperty = 1006
	PropHardwareRevision          DeviceProperty = 1007
	PropAllWirelessDongleDescs    DeviceProperty = 1008
	PropConnectedWirelessDongle   DeviceProperty = 1009
	PropFirmwareProgrammingTarget DeviceProperty = 1028
	PropRegisteredDeviceType      DeviceProperty = 1036
	PropManufacturerSerialNumber  DeviceProperty = 1049
	PropComputedSerialNumber      DeviceProperty = 1050
	PropControllerType            DeviceProperty = 7000
)

var propertyNames = map[DeviceProperty]string{
	PropTrackingSystemName:        "TrackingSystemName",
	PropModelNumber:               "ModelNumber",
	PropSerialNumber:              "SerialNumber",
	PropRenderModelName:           "RenderModelName",
	PropManufacturerName:          "ManufacturerName",
	PropTrackingFirmwareVersion:   "TrackingFirmwareVersion",
	PropHardwareRevision:          "HardwareRevision",
	PropAllWirelessDongleDescs:    "AllWirelessDongleDescriptions",
	PropConnectedWirelessDongle:   "ConnectedWirelessDongle",
	PropFirmwareProgrammingTarget: "Firmware_ProgrammingTarget",
	PropRegisteredDeviceType:      "RegisteredDeviceType",
	PropManufacturerSerialNumber:  "ManufacturerSerialNumber",
	PropComputedSerialNumber:      "ComputedSerialNumber",
	PropControllerType:            "ControllerType",
}

// StringProperties lists every string property trackerlink knows, in key order.
var StringProperties = []DeviceProperty{
	PropTrackingSystemName,
	PropModelNumber,
	PropSerialNumber,
	PropRenderModelName,
	PropManufacturerName,
	PropTrackingFirmwareVersion,
	PropHardwareRevision,
	PropAllWirelessDongleDescs,
	PropConnectedWirelessDongle,
	PropFirmwareProgrammingTarget,
	PropRegisteredDeviceType,
	PropManufacturerSerialNumber,
	PropComputedSerialNumber,
	PropControllerType,
}

func (p DeviceProperty) String() string {
	if name, ok := propertyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Property(%d)", int32(p))
}
