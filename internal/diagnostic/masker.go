// Package diagnostic renders the list-devices report, optionally masking
// identifying device properties so the output can be shared publicly.
package diagnostic

import (
	"regexp"
	"strings"
	"unicode"

	"trackerlink/internal/openvr"
	"trackerlink/internal/telemetry"
)

// MaskChar replaces hidden characters.
const MaskChar = '#'

// MaskKind selects how a property value is masked.
type MaskKind int

const (
	MaskNone MaskKind = iota
	MaskText
	MaskDeviceID
)

// maskTable lists the properties that can identify a user's hardware.
var maskTable = []struct {
	prop openvr.DeviceProperty
	kind MaskKind
}{
	{openvr.PropSerialNumber, MaskDeviceID},
	{openvr.PropTrackingFirmwareVersion, MaskText},
	{openvr.PropHardwareRevision, MaskText},
	{openvr.PropAllWirelessDongleDescs, MaskText},
	{openvr.PropConnectedWirelessDongle, MaskText},
	{openvr.PropFirmwareProgrammingTarget, MaskDeviceID},
	{openvr.PropRegisteredDeviceType, MaskDeviceID},
	{openvr.PropManufacturerSerialNumber, MaskText},
	{openvr.PropComputedSerialNumber, MaskText},
}

var lighthouseID = regexp.MustCompile(`(LH[A-Z]-)([A-Z0-9])([A-Z0-9]+)([A-Z0-9])$`)

// KindFor returns the mask kind for prop.
func KindFor(prop openvr.DeviceProperty) MaskKind {
	for _, entry := range maskTable {
		if entry.prop == prop {
			return entry.kind
		}
	}
	return MaskNone
}

// MaskProperty masks value according to prop's mask kind.
func MaskProperty(prop openvr.DeviceProperty, value string) string {
	switch KindFor(prop) {
	case MaskText:
		return MaskString(value)
	case MaskDeviceID:
		return MaskDeviceIDString(value)
	default:
		return value
	}
}

// MaskString hides all but the first two and last two characters. Strings of
// four characters or fewer are hidden entirely. Tracker role names are left
// as they are.
func MaskString(value string) string {
	compact := strings.ReplaceAll(value, " ", "")
	for _, role := range telemetry.Roles() {
		if strings.EqualFold(compact, role.String()) {
			return value
		}
	}

	runes := []rune(value)
	if len(runes) <= 4 {
		return strings.Repeat(string(MaskChar), len(runes))
	}
	return string(runes[:2]) + strings.Repeat(string(MaskChar), len(runes)-4) + string(runes[len(runes)-2:])
}

// MaskDeviceIDString masks a hardware id or serial number segment by segment.
// Lighthouse serials keep their prefix and first and last characters; other
// segments containing digits are masked with MaskString.
func MaskDeviceIDString(value string) string {
	segments := strings.Split(value, "/")
	for i, segment := range segments {
		switch {
		case lighthouseID.MatchString(segment):
			segments[i] = lighthouseID.ReplaceAllStringFunc(segment, maskLighthouse)
		case strings.IndexFunc(segment, unicode.IsDigit) >= 0:
			segments[i] = MaskString(segment)
		}
	}
	return strings.Join(segments, "/")
}

func maskLighthouse(match string) string {
	groups := lighthouseID.FindStringSubmatch(match)
	return groups[1] + groups[2] + strings.Repeat(string(MaskChar), len(groups[3])) + groups[4]
}
