package connectivity

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// lowBatteryPercent is the threshold below which the periodic sync
// trigger stays quiet while discharging.
const lowBatteryPercent = 20

const powerSupplyDir = "/sys/class/power_supply"

// BatteryLow reports whether the device is discharging below the low
// threshold. Kiosks on mains power, and any read failure, report false
// so sync is never starved by a missing sensor.
func BatteryLow() bool {
	return batteryLow(powerSupplyDir)
}

func batteryLow(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}

	for _, entry := range entries {
		supply := filepath.Join(dir, entry.Name())

		kind, err := readSysfs(filepath.Join(supply, "type"))
		if err != nil || kind != "Battery" {
			continue
		}

		status, err := readSysfs(filepath.Join(supply, "status"))
		if err != nil || status != "Discharging" {
			continue
		}

		capStr, err := readSysfs(filepath.Join(supply, "capacity"))
		if err != nil {
			continue
		}
		capacity, err := strconv.Atoi(capStr)
		if err != nil {
			continue
		}

		if capacity < lowBatteryPercent {
			return true
		}
	}

	return false
}

func readSysfs(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
