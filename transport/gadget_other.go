//go:build !linux

package transport

import (
	"errors"
	"time"

	"github.com/ardnew/softkbd/report"
)

// ConfigfsRoot is where the kernel exposes USB gadget configfs.
const ConfigfsRoot = "/sys/kernel/config/usb_gadget"

// DefaultWriteTimeout bounds a gadget write.
const DefaultWriteTimeout = 5 * time.Millisecond

var errNoGadget = errors.New("transport requires Linux")

// Gadget is unavailable on this platform.
type Gadget struct{}

// OpenGadget always fails on this platform.
func OpenGadget(path string, timeout time.Duration) (*Gadget, error) {
	return nil, errNoGadget
}

func (*Gadget) Write(p []byte) (int, error) { return 0, errNoGadget }
func (*Gadget) Poll() bool                  { return false }
func (*Gadget) LEDs() report.LEDs           { return 0 }
func (*Gadget) Close() error                { return nil }

// GadgetConfig describes a HID keyboard gadget.
type GadgetConfig struct {
	Name             string
	VendorID         uint16
	ProductID        uint16
	Manufacturer     string
	Product          string
	Serial           string
	MaxPower         uint16
	UDC              string
	ReportDescriptor []byte
}

// DefaultGadgetConfig returns a boot keyboard gadget configuration.
func DefaultGadgetConfig() GadgetConfig {
	return GadgetConfig{Name: "softkbd", ReportDescriptor: report.KeyboardReportDescriptor}
}

// SetupGadget always fails on this platform.
func SetupGadget(root string, cfg GadgetConfig) (string, error) {
	return "", errNoGadget
}

// OpenFIFO always fails on this platform.
func OpenFIFO(dir string, timeout time.Duration) (*Stream, error) {
	return nil, errNoGadget
}
