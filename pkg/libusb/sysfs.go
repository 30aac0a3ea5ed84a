package libusb

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// SysfsUSBPath is where Linux exposes USB devices and their interfaces.
const SysfsUSBPath = "/sys/bus/usb/devices"

// kernelDriverBound reports whether a kernel driver is bound to interface intf of
// configuration cfg on the device at bus/addr. Interfaces show up in sysfs as
// "<port path>:<cfg>.<intf>" next to their device, with a "driver" link once bound.
//
// A missing sysfs tree (non-Linux hosts) reports no driver.
func kernelDriverBound(root string, bus, addr, cfg, intf int) (bool, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	for _, entry := range entries {
		name := entry.Name()
		if strings.Contains(name, ":") {
			continue
		}

		devPath := filepath.Join(root, name)
		busNum, err := readSysfsInt(filepath.Join(devPath, "busnum"))
		if err != nil || busNum != bus {
			continue
		}
		devNum, err := readSysfsInt(filepath.Join(devPath, "devnum"))
		if err != nil || devNum != addr {
			continue
		}

		driver := filepath.Join(root, fmt.Sprintf("%s:%d.%d", name, cfg, intf), "driver")
		_, err = os.Lstat(driver)
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	}

	return false, fmt.Errorf("device on bus %d address %d not found in %s", bus, addr, root)
}

func readSysfsInt(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(data)))
}
