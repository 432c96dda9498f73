// Package telemetry holds the tracker data model shared by the pipeline stages.
package telemetry

import (
	"fmt"
	"strings"
)

// Role is the body location a tracker is worn on. RoleNone means the role
// could not be determined and is a valid value.
type Role int

// Declaration order is significant: heuristic matching walks roles in this order.
const (
	RoleNone Role = iota
	RoleHanded
	RoleLeftFoot
	RoleRightFoot
	RoleLeftShoulder
	RoleRightShoulder
	RoleLeftElbow
	RoleRightElbow
	RoleLeftKnee
	RoleRightKnee
	RoleWaist
	RoleChest
	RoleCamera
	RoleKeyboard
)

var roleNames = [...]string{
	RoleNone:          "None",
	RoleHanded:        "Handed",
	RoleLeftFoot:      "LeftFoot",
	RoleRightFoot:     "RightFoot",
	RoleLeftShoulder:  "LeftShoulder",
	RoleRightShoulder: "RightShoulder",
	RoleLeftElbow:     "LeftElbow",
	RoleRightElbow:    "RightElbow",
	RoleLeftKnee:      "LeftKnee",
	RoleRightKnee:     "RightKnee",
	RoleWaist:         "Waist",
	RoleChest:         "Chest",
	RoleCamera:        "Camera",
	RoleKeyboard:      "Keyboard",
}

// Roles returns every role, RoleNone included, in declaration order.
func Roles() []Role {
	roles := make([]Role, len(roleNames))
	for i := range roleNames {
		roles[i] = Role(i)
	}
	return roles
}

func (r Role) String() string {
	if r < 0 || int(r) >= len(roleNames) {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return roleNames[r]
}

// Valid reports whether r is a declared role.
func (r Role) Valid() bool {
	return r >= 0 && int(r) < len(roleNames)
}

// ParseRole parses a role name case-insensitively. Numeric strings are rejected.
func ParseRole(name string) (Role, error) {
	for i, n := range roleNames {
		if strings.EqualFold(n, name) {
			return Role(i), nil
		}
	}
	return RoleNone, fmt.Errorf("unknown tracker role %q", name)
}

// MarshalText renders the role name.
func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses a role name.
func (r *Role) UnmarshalText(text []byte) error {
	role, err := ParseRole(string(text))
	if err != nil {
		return err
	}
	*r = role
	return nil
}
