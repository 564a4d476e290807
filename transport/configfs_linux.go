//go:build linux

package transport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ardnew/softkbd/pkg"
	"github.com/ardnew/softkbd/report"
)

// =============================================================================
// Gadget Configuration
// =============================================================================

// ConfigfsRoot is where the kernel exposes USB gadget configfs.
const ConfigfsRoot = "/sys/kernel/config/usb_gadget"

// udcClassPath lists the USB device controllers available for binding.
var udcClassPath = "/sys/class/udc"

// GadgetConfig describes the HID keyboard gadget created by SetupGadget.
type GadgetConfig struct {
	Name         string // Gadget directory name
	VendorID     uint16 // idVendor
	ProductID    uint16 // idProduct
	Manufacturer string
	Product      string
	Serial       string
	MaxPower     uint16 // mA
	UDC          string // Controller to bind; empty selects the first one

	ReportDescriptor []byte
}

// DefaultGadgetConfig returns a boot keyboard gadget using the Linux
// Foundation multifunction composite gadget IDs.
func DefaultGadgetConfig() GadgetConfig {
	return GadgetConfig{
		Name:             "softkbd",
		VendorID:         0x1d6b,
		ProductID:        0x0104,
		Manufacturer:     "softkbd",
		Product:          "softkbd keyboard",
		Serial:           "0001",
		MaxPower:         100,
		ReportDescriptor: report.KeyboardReportDescriptor,
	}
}

const (
	hidFunction = "functions/hid.usb0"
	hidConfig   = "configs/c.1"
	langUS      = "0x409"

	hidSubclassBoot = 1
	hidProtocolKbd  = 1
)

// SetupGadget creates and binds the gadget described by cfg under root and
// returns the path of its HID character device. A gadget that is already
// bound is left unchanged.
func SetupGadget(root string, cfg GadgetConfig) (string, error) {
	if cfg.Name == "" || len(cfg.ReportDescriptor) == 0 {
		return "", fmt.Errorf("gadget name and report descriptor required: %w", pkg.ErrInvalidConfig)
	}
	g := filepath.Join(root, cfg.Name)

	if udc, err := readConfigfsString(filepath.Join(g, "UDC")); err == nil && udc != "" {
		pkg.LogInfo(pkg.ComponentTransport, "gadget already bound", "gadget", g, "udc", udc)
		return hidgPath(g)
	}

	for _, dir := range []string{
		filepath.Join(g, "strings", langUS),
		filepath.Join(g, hidConfig, "strings", langUS),
		filepath.Join(g, hidFunction),
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("create gadget: %w", err)
		}
	}

	attrs := []struct {
		path  string
		value string
	}{
		{"idVendor", formatHex16(cfg.VendorID)},
		{"idProduct", formatHex16(cfg.ProductID)},
		{"bcdDevice", "0x0100"},
		{"bcdUSB", "0x0200"},
		{"strings/" + langUS + "/manufacturer", cfg.Manufacturer},
		{"strings/" + langUS + "/product", cfg.Product},
		{"strings/" + langUS + "/serialnumber", cfg.Serial},
		{hidConfig + "/MaxPower", strconv.Itoa(int(cfg.MaxPower))},
		{hidConfig + "/strings/" + langUS + "/configuration", "keyboard"},
		{hidFunction + "/protocol", strconv.Itoa(hidProtocolKbd)},
		{hidFunction + "/subclass", strconv.Itoa(hidSubclassBoot)},
		{hidFunction + "/report_length", strconv.Itoa(report.Size)},
	}
	for _, a := range attrs {
		if err := writeConfigfs(filepath.Join(g, a.path), []byte(a.value)); err != nil {
			return "", err
		}
	}
	if err := writeConfigfs(filepath.Join(g, hidFunction, "report_desc"), cfg.ReportDescriptor); err != nil {
		return "", err
	}

	link := filepath.Join(g, hidConfig, filepath.Base(hidFunction))
	if err := os.Symlink(filepath.Join(g, hidFunction), link); err != nil && !errors.Is(err, os.ErrExist) {
		return "", fmt.Errorf("link gadget function: %w", err)
	}

	udc := cfg.UDC
	if udc == "" {
		var err error
		if udc, err = firstUDC(); err != nil {
			return "", err
		}
	}
	if err := writeConfigfs(filepath.Join(g, "UDC"), []byte(udc)); err != nil {
		return "", err
	}
	pkg.LogInfo(pkg.ComponentTransport, "gadget bound", "gadget", g, "udc", udc)
	return hidgPath(g)
}

// =============================================================================
// Configfs Helpers
// =============================================================================

// hidgPath derives /dev/hidgN from the minor number of the HID function.
func hidgPath(gadget string) (string, error) {
	dev, err := readConfigfsString(filepath.Join(gadget, hidFunction, "dev"))
	if err != nil {
		return "", fmt.Errorf("read gadget device number: %w", err)
	}
	_, minor, ok := strings.Cut(dev, ":")
	if !ok {
		return "", fmt.Errorf("gadget device number %q: %w", dev, os.ErrInvalid)
	}
	if _, err := strconv.ParseUint(minor, 10, 32); err != nil {
		return "", fmt.Errorf("gadget device number %q: %w", dev, os.ErrInvalid)
	}
	return "/dev/hidg" + minor, nil
}

// firstUDC returns the first USB device controller listed by the kernel.
func firstUDC() (string, error) {
	entries, err := os.ReadDir(udcClassPath)
	if err != nil {
		return "", fmt.Errorf("list device controllers: %w", err)
	}
	if len(entries) == 0 {
		return "", fmt.Errorf("no USB device controller: %w", pkg.ErrNotConfigured)
	}
	return entries[0].Name(), nil
}

// readConfigfsString reads a string from a configfs attribute file.
func readConfigfsString(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// writeConfigfs writes a configfs attribute file.
func writeConfigfs(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// formatHex16 formats v as a 0x-prefixed 4-digit hex string.
func formatHex16(v uint16) string {
	const digits = "0123456789abcdef"
	return string([]byte{
		'0', 'x',
		digits[v>>12&0xF],
		digits[v>>8&0xF],
		digits[v>>4&0xF],
		digits[v&0xF],
	})
}
