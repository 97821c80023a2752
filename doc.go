// Package scanbridge turns a USB serial barcode or RFID reader into a stream
// of scan lines.
//
// A Bridge finds the first attached serial device, obtains access to its
// node, opens it at the requested baud rate (8N1) and reads newline
// terminated lines on a dedicated goroutine:
//
//	b := scanbridge.New(scanbridge.WithLogger(logger))
//	defer b.Close()
//
//	b.Start(115200)
//	for {
//	    select {
//	    case st := <-b.Statuses():
//	        fmt.Println(st) // STATUS:CONNECTING, STATUS:STARTED, ERROR:...
//	    case line := <-b.Lines():
//	        fmt.Println(line.Text)
//	    }
//	}
//
// Missing hardware, drivers or permissions are reported as statuses rather
// than errors. Nothing is retried: after ERROR, NO_DEVICE, NO_DRIVER or
// NO_PERMISSION the caller decides when to Start again.
package scanbridge
