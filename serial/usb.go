package serial

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// sysfsDir is the sysfs mount point; tests point it at a fake tree.
var sysfsDir = "/sys"

// USBDevice is a USB peripheral as seen by the kernel, whether or not a
// serial driver has bound to it.
type USBDevice struct {
	SysName      string // e.g. "1-1.4"
	Node         string // /dev/bus/usb/BBB/DDD
	VendorID     string
	ProductID    string
	SerialNumber string
	Manufacturer string
	Product      string
	BusNumber    string
	DeviceNumber string
}

// ListUSBDevices returns attached USB peripherals ordered by bus then device
// number, leaving out root hubs, hubs, and interface entries.
func ListUSBDevices() ([]USBDevice, error) {
	base := filepath.Join(sysfsDir, "bus", "usb", "devices")
	entries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read %s: %w", base, err)
	}

	var devices []USBDevice
	for _, entry := range entries {
		name := entry.Name()
		// "usbN" are root hubs, "1-1:1.0" are interfaces
		if strings.HasPrefix(name, "usb") || strings.Contains(name, ":") {
			continue
		}

		dir := filepath.Join(base, name)
		if readSysfsFile(filepath.Join(dir, "bDeviceClass")) == "09" {
			continue
		}

		dev := USBDevice{
			SysName:      name,
			VendorID:     readSysfsFile(filepath.Join(dir, "idVendor")),
			ProductID:    readSysfsFile(filepath.Join(dir, "idProduct")),
			SerialNumber: readSysfsFile(filepath.Join(dir, "serial")),
			Manufacturer: readSysfsFile(filepath.Join(dir, "manufacturer")),
			Product:      readSysfsFile(filepath.Join(dir, "product")),
			BusNumber:    readSysfsFile(filepath.Join(dir, "busnum")),
			DeviceNumber: readSysfsFile(filepath.Join(dir, "devnum")),
		}
		if dev.VendorID == "" {
			continue
		}
		dev.Node = usbNode(dev.BusNumber, dev.DeviceNumber)
		devices = append(devices, dev)
	}

	sort.SliceStable(devices, func(i, j int) bool {
		return usbSortKey(devices[i]) < usbSortKey(devices[j])
	})
	return devices, nil
}

// usbNode builds the usbfs path the kernel exposes for a bus/device pair.
func usbNode(bus, dev string) string {
	b, errB := strconv.Atoi(bus)
	d, errD := strconv.Atoi(dev)
	if errB != nil || errD != nil {
		return ""
	}
	return filepath.Join(devDir, "bus", "usb", fmt.Sprintf("%03d", b), fmt.Sprintf("%03d", d))
}

// usbSortKey orders devices by bus then device number, the kernel's
// enumeration order.
func usbSortKey(d USBDevice) string {
	b, _ := strconv.Atoi(d.BusNumber)
	n, _ := strconv.Atoi(d.DeviceNumber)
	return fmt.Sprintf("%03d/%03d/%s", b, n, d.SysName)
}

// enrichUSBInfo fills USB metadata by walking from the tty's sysfs node up to
// the interface and then the USB device directory.
func enrichUSBInfo(info *PortInfo) {
	devicePath := filepath.Join(sysfsDir, "class", "tty", info.Name, "device")
	resolvedPath, err := filepath.EvalSymlinks(devicePath)
	if err != nil {
		return
	}

	// ttyUSB nodes sit one level below the interface, ttyACM devices link
	// straight to it.
	interfacePath := resolvedPath
	if !strings.Contains(filepath.Base(interfacePath), ":") {
		interfacePath = filepath.Dir(interfacePath)
	}
	info.InterfaceNumber = readSysfsFile(filepath.Join(interfacePath, "bInterfaceNumber"))

	usbDevicePath := filepath.Dir(interfacePath)
	info.VendorID = readSysfsFile(filepath.Join(usbDevicePath, "idVendor"))
	info.ProductID = readSysfsFile(filepath.Join(usbDevicePath, "idProduct"))
	info.SerialNumber = readSysfsFile(filepath.Join(usbDevicePath, "serial"))
	info.Manufacturer = readSysfsFile(filepath.Join(usbDevicePath, "manufacturer"))
	info.Product = readSysfsFile(filepath.Join(usbDevicePath, "product"))
	info.BusNumber = readSysfsFile(filepath.Join(usbDevicePath, "busnum"))
	info.DeviceNumber = readSysfsFile(filepath.Join(usbDevicePath, "devnum"))
}

// readSysfsFile returns the trimmed content of a sysfs attribute, or "" when
// it is missing or unreadable.
func readSysfsFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
