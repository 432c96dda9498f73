// Package steamvr keeps the user's tracker role assignments from
// steamvr.vrsettings up to date.
package steamvr

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"

	"trackerlink/internal/telemetry"
)

// RolePrefix precedes every role name in the settings file.
const RolePrefix = "TrackerRole_"

// Document is the part of steamvr.vrsettings trackerlink reads.
type Document struct {
	Trackers map[string]string `json:"trackers"`
}

// ParseDocument decodes a settings file. SteamVR writes plain JSON but users
// edit the file by hand, so comments and trailing commas are tolerated.
func ParseDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return Document{}, fmt.Errorf("parse settings: %w", err)
	}
	return doc, nil
}

// ParseRole decodes a "TrackerRole_<Name>" string.
func ParseRole(s string) (telemetry.Role, error) {
	if len(s) < len(RolePrefix) || !strings.EqualFold(s[:len(RolePrefix)], RolePrefix) {
		return telemetry.RoleNone, fmt.Errorf("missing %s prefix", RolePrefix)
	}
	return telemetry.ParseRole(s[len(RolePrefix):])
}
