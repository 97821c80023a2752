// Package serial provides the receive side of a serial line for barcode and
// RFID scanners, plus discovery of the ports and USB peripherals behind them.
//
// # Basic Usage
//
// Open a port at the default configuration (115200 8N1):
//
//	port, err := serial.Open("/dev/ttyUSB0")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer port.Close()
//
//	buf := make([]byte, 256)
//	n, err := port.Read(buf)
//
// Read blocks until data arrives. Calling Close from another goroutine wakes
// a blocked Read, which then returns ErrPortClosed; Close returns only after
// the reader has left, so the descriptor is never read after release.
//
// # Configuration Options
//
//	port, err := serial.Open("/dev/ttyACM0", serial.WithBaudRate(9600))
//
// Data bits, stop bits, and parity are fixed at 8N1.
//
// # Port Discovery
//
//	ports, err := serial.ListPorts()
//	for _, portPath := range ports {
//	    info, _ := serial.GetPortInfo(portPath)
//	    fmt.Printf("%s: %s (VID=%s PID=%s)\n",
//	        info.Path, info.Description, info.VendorID, info.ProductID)
//	}
//
// ListUSBDevices reports USB peripherals whether or not a serial driver has
// claimed them, which is how a reader with no bound driver is found.
//
// # Error Handling
//
//	var (
//	    ErrDeviceNotFound     // node missing
//	    ErrPermissionDenied   // no access to the node
//	    ErrDeviceDisconnected // hang-up while reading
//	    ErrPortClosed         // port already closed
//	    // ... and more
//	)
//
// # Platform Support
//
// Linux uses termios directly through golang.org/x/sys/unix. Other platforms
// go through go.bug.st/serial. USB metadata is read from sysfs and is
// Linux-only.
package serial
