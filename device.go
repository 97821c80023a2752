package scanbridge

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.bug.st/serial/enumerator"

	"github.com/allbin/scanbridge/serial"
)

// Device describes an attached USB peripheral. Ports lists the serial
// nodes a driver exposes for it; a device with no ports is a raw
// peripheral that can only be checked for permission.
type Device struct {
	Name         string   `json:"name"`
	Node         string   `json:"node,omitempty"`
	Ports        []string `json:"ports,omitempty"`
	VendorID     string   `json:"vendor_id,omitempty"`
	ProductID    string   `json:"product_id,omitempty"`
	SerialNumber string   `json:"serial_number,omitempty"`
	Product      string   `json:"product,omitempty"`
}

// HasDriver reports whether a serial driver has claimed the device.
func (d Device) HasDriver() bool {
	return len(d.Ports) > 0
}

// AccessPath is the node whose permissions gate use of the device: the first
// serial port when a driver is bound, the usbfs node otherwise.
func (d Device) AccessPath() string {
	if d.HasDriver() {
		return d.Ports[0]
	}
	return d.Node
}

func (d Device) String() string {
	id := d.Name
	if d.VendorID != "" || d.ProductID != "" {
		id = fmt.Sprintf("%s [%s:%s]", id, d.VendorID, d.ProductID)
	}
	if d.Product != "" {
		id += " " + d.Product
	}
	return id
}

// Enumerator lists candidate devices.
type Enumerator interface {
	// SerialDevices returns USB devices with at least one serial port.
	SerialDevices() ([]Device, error)
	// USBDevices returns attached USB peripherals regardless of driver.
	USBDevices() ([]Device, error)
}

// SelectDevice picks the device Start will use. The first driver-recognized
// device wins; failing that the first raw peripheral is returned with raw
// set. ok is false when both lists are empty.
func SelectDevice(serialDevices, usbDevices []Device) (dev Device, raw bool, ok bool) {
	if len(serialDevices) > 0 {
		return serialDevices[0], false, true
	}
	if len(usbDevices) > 0 {
		return usbDevices[0], true, true
	}
	return Device{}, false, false
}

var detailedPortsList = enumerator.GetDetailedPortsList

// SystemEnumerator discovers devices on the running host.
type SystemEnumerator struct{}

// SerialDevices groups USB serial ports by the peripheral that exposes them.
// The port enumerator is consulted first and /dev plus sysfs is the fallback.
func (SystemEnumerator) SerialDevices() ([]Device, error) {
	ports, err := detailedPortsList()
	if err != nil {
		return sysfsSerialDevices()
	}

	var infos []serial.PortInfo
	for _, p := range ports {
		if p == nil || !p.IsUSB {
			continue
		}
		info := serial.PortInfo{
			Name:         filepath.Base(p.Name),
			Path:         p.Name,
			VendorID:     strings.ToLower(p.VID),
			ProductID:    strings.ToLower(p.PID),
			SerialNumber: p.SerialNumber,
			Product:      p.Product,
		}
		if sys, err := serial.GetPortInfo(p.Name); err == nil {
			if sys.Product != "" {
				info.Product = sys.Product
			}
			info.BusNumber = sys.BusNumber
			info.DeviceNumber = sys.DeviceNumber
		}
		infos = append(infos, info)
	}
	return groupPorts(infos), nil
}

func sysfsSerialDevices() ([]Device, error) {
	paths, err := serial.ListPorts()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	var infos []serial.PortInfo
	for _, path := range paths {
		info, err := serial.GetPortInfo(path)
		if err != nil || !info.IsUSB() {
			continue
		}
		infos = append(infos, *info)
	}
	return groupPorts(infos), nil
}

// groupPorts folds ports sharing a USB identity into one Device, keeping the
// order of each device's lowest-named port.
func groupPorts(infos []serial.PortInfo) []Device {
	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })

	var devices []Device
	index := make(map[string]int)
	for _, info := range infos {
		key := info.VendorID + ":" + info.ProductID + ":" + info.SerialNumber
		if info.BusNumber != "" && info.DeviceNumber != "" {
			key = info.BusNumber + "/" + info.DeviceNumber
		} else if info.SerialNumber == "" {
			key = info.Path
		}
		if i, ok := index[key]; ok {
			devices[i].Ports = append(devices[i].Ports, info.Path)
			continue
		}
		index[key] = len(devices)
		devices = append(devices, Device{
			Name:         info.Name,
			Ports:        []string{info.Path},
			VendorID:     info.VendorID,
			ProductID:    info.ProductID,
			SerialNumber: info.SerialNumber,
			Product:      info.Product,
		})
	}
	return devices
}

func (SystemEnumerator) USBDevices() ([]Device, error) {
	usb, err := serial.ListUSBDevices()
	if err != nil {
		return nil, err
	}
	devices := make([]Device, 0, len(usb))
	for _, u := range usb {
		devices = append(devices, Device{
			Name:         u.SysName,
			Node:         u.Node,
			VendorID:     u.VendorID,
			ProductID:    u.ProductID,
			SerialNumber: u.SerialNumber,
			Product:      u.Product,
		})
	}
	return devices, nil
}
