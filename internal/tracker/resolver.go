// Package tracker reads connected trackers from the VR runtime and works out
// which body part each one is worn on.
package tracker

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"trackerlink/internal/logging"
	"trackerlink/internal/openvr"
	"trackerlink/internal/telemetry"
)

const (
	undefinedTrackingSystem = "<UNDEFINED_TrackingSystemName>"
	undefinedSerialNumber   = "<UNDEFINED_SerialNumber>"

	// genericControllerType is reported by trackers that carry no role hint.
	genericControllerType = "vive_tracker"
)

// RoleSource returns user-assigned roles by hardware id.
type RoleSource interface {
	Role(hardwareID string) telemetry.Role
}

// Resolver derives hardware ids and roles for device slots.
type Resolver struct {
	system openvr.System
	roles  RoleSource
	once   *logging.Once
	logger *zap.SugaredLogger
}

// NewResolver creates a Resolver. once deduplicates the unknown-device warning
// and is normally shared for the whole process.
func NewResolver(system openvr.System, roles RoleSource, once *logging.Once, logger *zap.SugaredLogger) *Resolver {
	if once == nil {
		once = logging.NewOnce()
	}
	return &Resolver{system: system, roles: roles, once: once, logger: logger}
}

// Property returns a string property and whether the runtime provided it.
func (r *Resolver) Property(index uint32, prop openvr.DeviceProperty) (string, bool) {
	v, err := r.system.StringProperty(index, prop)
	if err != openvr.PropertySuccess {
		return "", false
	}
	return v, true
}

// HardwareID returns the id SteamVR uses for the device in its settings file.
// It never fails: missing properties are replaced by placeholders.
func (r *Resolver) HardwareID(index uint32) string {
	if registered, ok := r.Property(index, openvr.PropRegisteredDeviceType); ok {
		return "/devices/" + registered
	}

	system, ok := r.Property(index, openvr.PropTrackingSystemName)
	if !ok {
		system = undefinedTrackingSystem
	}
	serial, ok := r.Property(index, openvr.PropSerialNumber)
	if !ok {
		serial = undefinedSerialNumber
	}
	return fmt.Sprintf("/devices/%s/%s", system, serial)
}

// GuessRole matches the controller type and serial number against role names.
// The first role in declaration order whose name ends either string wins.
func (r *Resolver) GuessRole(index uint32) telemetry.Role {
	controllerType, hasControllerType := r.Property(index, openvr.PropControllerType)
	serial, _ := r.Property(index, openvr.PropSerialNumber)

	normalizedType := normalizeRoleHint(controllerType)
	normalizedSerial := normalizeRoleHint(serial)

	for _, role := range telemetry.Roles() {
		if role == telemetry.RoleNone {
			continue
		}
		name := strings.ToLower(role.String())
		if strings.HasSuffix(normalizedType, name) || strings.HasSuffix(normalizedSerial, name) {
			return role
		}
	}

	if hasControllerType && controllerType != genericControllerType {
		r.once.Warn(r.logger, fmt.Sprintf("Device %s tracker role could not be guessed. "+
			"Please create a GitHub Issue with the contents of `list-devices --masked`.", r.HardwareID(index)))
	}
	return telemetry.RoleNone
}

var roleHintSeparators = strings.NewReplacer("_", "", "-", "", " ", "")

// normalizeRoleHint lowercases s and drops separators so "vive-tracker left_foot"
// compares equal to the role name "leftfoot".
func normalizeRoleHint(s string) string {
	return strings.ToLower(roleHintSeparators.Replace(s))
}

// Resolve returns the device's hardware id and role. A role assigned in the
// SteamVR settings wins over the guessed one.
func (r *Resolver) Resolve(index uint32) (string, telemetry.Role) {
	id := r.HardwareID(index)
	if role := r.roles.Role(id); role != telemetry.RoleNone {
		return id, role
	}
	return id, r.GuessRole(index)
}
