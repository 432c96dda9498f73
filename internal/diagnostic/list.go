package diagnostic

import (
	"fmt"
	"io"
	"slices"

	"github.com/samber/lo"

	"trackerlink/internal/openvr"
	"trackerlink/internal/tracker"
)

// Options configures the device report.
type Options struct {
	// Masked hides identifying property values.
	Masked bool
}

// WriteDevices writes a human readable report of devices to w.
func WriteDevices(w io.Writer, devices []tracker.Device, opts Options) error {
	trackers := lo.CountBy(devices, func(d tracker.Device) bool {
		return d.Class == openvr.ClassGenericTracker
	})
	if _, err := fmt.Fprintf(w, "Found %d devices (%d trackers).\n", len(devices), trackers); err != nil {
		return err
	}

	for _, d := range devices {
		if err := writeDevice(w, d, opts); err != nil {
			return err
		}
	}
	return nil
}

func writeDevice(w io.Writer, d tracker.Device, opts Options) error {
	hardwareID := d.HardwareID
	if opts.Masked {
		hardwareID = MaskDeviceIDString(hardwareID)
	}

	lines := []string{
		fmt.Sprintf("\nDevice %d (%s)", d.Index, d.Class),
		fmt.Sprintf("  Hardware id: %s", hardwareID),
	}
	if d.Class == openvr.ClassGenericTracker {
		lines = append(lines,
			fmt.Sprintf("  Guessed role: %s", d.GuessedRole),
			fmt.Sprintf("  SteamVR role: %s", d.SettingsRole),
		)
	}

	props := lo.Keys(d.Properties)
	slices.Sort(props)
	if len(props) > 0 {
		lines = append(lines, "  Properties:")
	}
	lines = append(lines, lo.Map(props, func(prop openvr.DeviceProperty, _ int) string {
		value := d.Properties[prop]
		if opts.Masked {
			value = MaskProperty(prop, value)
		}
		return fmt.Sprintf("    %s: %s", prop, value)
	})...)

	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
