package transport

import (
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/tarm/serial"

	"github.com/ardnew/softkbd/pkg"
)

// Serial HID bridge parameters.
const (
	// BridgePrefix starts every raw report frame sent to the bridge.
	BridgePrefix = 0xFD

	// DefaultBaud is the bridge UART speed.
	DefaultBaud = 9600
)

// OpenSerial opens a UART HID bridge on dev. If dev is empty the usual
// serial devices of the platform are tried in order.
func OpenSerial(dev string, baud int) (*Stream, error) {
	if baud <= 0 {
		baud = DefaultBaud
	}
	var devices []string
	if dev != "" {
		devices = append(devices, dev)
	} else if runtime.GOOS == "linux" {
		devices = append(devices, "/dev/serial0", "/dev/ttyAMA0", "/dev/ttyUSB0")
	}
	if len(devices) == 0 {
		return nil, errors.New("no serial device specified")
	}

	var firstErr error
	for _, dev := range devices {
		c := &serial.Config{Name: dev, Baud: baud, ReadTimeout: 100 * time.Millisecond}
		port, err := serial.OpenPort(c)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		pkg.LogInfo(pkg.ComponentTransport, "serial bridge opened", "device", dev, "baud", baud)
		return NewStream(port, StreamOptions{Prefix: []byte{BridgePrefix}})
	}
	return nil, fmt.Errorf("open serial bridge: %w", firstErr)
}
