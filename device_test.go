package scanbridge

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.bug.st/serial/enumerator"

	"github.com/allbin/scanbridge/serial"
)

var (
	scannerUSB = Device{Name: "ttyUSB0", Ports: []string{"/dev/ttyUSB0"}, VendorID: "1a86", ProductID: "7523"}
	scannerACM = Device{Name: "ttyACM0", Ports: []string{"/dev/ttyACM0"}, VendorID: "2341", ProductID: "0043"}
	rawReader  = Device{Name: "1-1.4", Node: "/dev/bus/usb/001/005", VendorID: "072f", ProductID: "2200"}
	rawOther   = Device{Name: "1-1.5", Node: "/dev/bus/usb/001/006"}
)

func TestSelectDevice(t *testing.T) {
	tests := []struct {
		name      string
		serial    []Device
		usb       []Device
		wantDev   Device
		wantRaw bool
		wantOK    bool
	}{
		{"nothing attached", nil, nil, Device{}, false, false},
		{"first serial device wins", []Device{scannerUSB, scannerACM}, nil, scannerUSB, false, true},
		{"serial preferred over raw", []Device{scannerACM}, []Device{rawReader}, scannerACM, false, true},
		{"first raw device is a raw candidate", nil, []Device{rawReader, rawOther}, rawReader, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev, raw, ok := SelectDevice(tt.serial, tt.usb)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRaw, raw)
			assert.Equal(t, tt.wantDev.Name, dev.Name)
		})
	}
}

func TestDeviceAccessPath(t *testing.T) {
	assert.Equal(t, "/dev/ttyUSB0", scannerUSB.AccessPath())
	assert.Equal(t, "/dev/bus/usb/001/005", rawReader.AccessPath())
	assert.Empty(t, Device{Name: "ghost"}.AccessPath())

	assert.True(t, scannerUSB.HasDriver())
	assert.False(t, rawReader.HasDriver())
}

func TestDeviceString(t *testing.T) {
	assert.Equal(t, "ttyUSB0 [1a86:7523]", scannerUSB.String())
	assert.Equal(t, "1-1.5", rawOther.String())

	d := rawReader
	d.Product = "ACR122U"
	assert.Equal(t, "1-1.4 [072f:2200] ACR122U", d.String())
}

func TestGroupPorts(t *testing.T) {
	infos := []serial.PortInfo{
		{Name: "ttyUSB1", Path: "/dev/ttyUSB1", VendorID: "0403", ProductID: "6010", SerialNumber: "FT1"},
		{Name: "ttyUSB0", Path: "/dev/ttyUSB0", VendorID: "0403", ProductID: "6010", SerialNumber: "FT1"},
		{Name: "ttyACM1", Path: "/dev/ttyACM1", VendorID: "2341", ProductID: "0043"},
		{Name: "ttyACM0", Path: "/dev/ttyACM0", VendorID: "2341", ProductID: "0043"},
	}

	devices := groupPorts(infos)
	require.Len(t, devices, 3)

	// Identical boards without serial numbers stay separate.
	assert.Equal(t, []string{"/dev/ttyACM0"}, devices[0].Ports)
	assert.Equal(t, []string{"/dev/ttyACM1"}, devices[1].Ports)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, devices[2].Ports)
	assert.Equal(t, "ttyUSB0", devices[2].Name)
}

func TestGroupPortsByBusAddress(t *testing.T) {
	infos := []serial.PortInfo{
		{Name: "ttyUSB0", Path: "/dev/ttyUSB0", VendorID: "0403", ProductID: "6010", BusNumber: "1", DeviceNumber: "4"},
		{Name: "ttyUSB1", Path: "/dev/ttyUSB1", VendorID: "0403", ProductID: "6010", BusNumber: "1", DeviceNumber: "4"},
		{Name: "ttyUSB2", Path: "/dev/ttyUSB2", VendorID: "0403", ProductID: "6010", BusNumber: "1", DeviceNumber: "7"},
	}

	devices := groupPorts(infos)
	require.Len(t, devices, 2)
	assert.Equal(t, []string{"/dev/ttyUSB0", "/dev/ttyUSB1"}, devices[0].Ports)
	assert.Equal(t, []string{"/dev/ttyUSB2"}, devices[1].Ports)
}

func stubPortsList(t *testing.T, ports []*enumerator.PortDetails, err error) {
	t.Helper()
	old := detailedPortsList
	detailedPortsList = func() ([]*enumerator.PortDetails, error) { return ports, err }
	t.Cleanup(func() { detailedPortsList = old })
}

func TestSystemEnumeratorSerialDevices(t *testing.T) {
	stubPortsList(t, []*enumerator.PortDetails{
		{Name: "/dev/ttyS0"},
		nil,
		{Name: "/dev/ttyUSB3", IsUSB: true, VID: "1A86", PID: "7523"},
		{Name: "/dev/ttyACM0", IsUSB: true, VID: "2341", PID: "0043", SerialNumber: "95735353"},
	}, nil)

	devices, err := SystemEnumerator{}.SerialDevices()
	require.NoError(t, err)
	require.Len(t, devices, 2)

	assert.Equal(t, "ttyACM0", devices[0].Name)
	assert.Equal(t, "95735353", devices[0].SerialNumber)
	assert.Equal(t, "ttyUSB3", devices[1].Name)
	assert.Equal(t, "1a86", devices[1].VendorID)
	assert.Equal(t, "7523", devices[1].ProductID)
}

func TestSystemEnumeratorFallsBackToSysfs(t *testing.T) {
	stubPortsList(t, nil, errors.New("enumerator unavailable"))

	devices, err := SystemEnumerator{}.SerialDevices()
	require.NoError(t, err)
	for _, d := range devices {
		assert.True(t, d.HasDriver(), "device %s", d)
	}
}
