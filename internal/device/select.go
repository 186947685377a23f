package device

import (
	"fmt"
	"strings"
)

// IsDefaultName reports whether name asks for the system default device.
func IsDefaultName(name string) bool {
	switch name {
	case "", "default", "sysdefault":
		return true
	}
	return false
}

// SelectDevice picks a device by name. The default names select the system
// default, or the first device when none is marked. Otherwise an exact name
// wins over an exact ID, which wins over a partial name match.
func SelectDevice(devices []DeviceInfo, name string) (DeviceInfo, error) {
	if len(devices) == 0 {
		return DeviceInfo{}, fmt.Errorf("no devices available")
	}

	if IsDefaultName(name) {
		for _, d := range devices {
			if d.IsDefault {
				return d, nil
			}
		}
		return devices[0], nil
	}

	for _, d := range devices {
		if d.Name == name {
			return d, nil
		}
	}
	for _, d := range devices {
		if d.ID == name {
			return d, nil
		}
	}
	lower := strings.ToLower(name)
	for _, d := range devices {
		if strings.Contains(strings.ToLower(d.Name), lower) {
			return d, nil
		}
	}
	return DeviceInfo{}, fmt.Errorf("no device matches %q among %d devices", name, len(devices))
}
