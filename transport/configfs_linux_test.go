//go:build linux

package transport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ardnew/softkbd/report"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(data)
}

func TestSetupGadget(t *testing.T) {
	root := t.TempDir()
	udcs := t.TempDir()
	if err := os.Mkdir(filepath.Join(udcs, "fe980000.usb"), 0755); err != nil {
		t.Fatal(err)
	}
	saved := udcClassPath
	udcClassPath = udcs
	defer func() { udcClassPath = saved }()

	cfg := DefaultGadgetConfig()
	g := filepath.Join(root, cfg.Name)
	// The kernel creates the dev attribute with the function directory.
	if err := os.MkdirAll(filepath.Join(g, hidFunction), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(g, hidFunction, "dev"), []byte("243:1\n"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := SetupGadget(root, cfg)
	if err != nil {
		t.Fatalf("SetupGadget() error = %v", err)
	}
	if path != "/dev/hidg1" {
		t.Errorf("SetupGadget() = %q, want /dev/hidg1", path)
	}

	attrs := []struct {
		path string
		want string
	}{
		{"idVendor", "0x1d6b"},
		{"idProduct", "0x0104"},
		{"strings/0x409/product", "softkbd keyboard"},
		{"configs/c.1/MaxPower", "100"},
		{"functions/hid.usb0/protocol", "1"},
		{"functions/hid.usb0/subclass", "1"},
		{"functions/hid.usb0/report_length", "8"},
		{"UDC", "fe980000.usb"},
	}
	for _, a := range attrs {
		if got := readFile(t, filepath.Join(g, a.path)); got != a.want {
			t.Errorf("%s = %q, want %q", a.path, got, a.want)
		}
	}
	desc := readFile(t, filepath.Join(g, hidFunction, "report_desc"))
	if !bytes.Equal([]byte(desc), report.KeyboardReportDescriptor) {
		t.Error("report_desc does not match the keyboard report descriptor")
	}
	if target, err := os.Readlink(filepath.Join(g, "configs/c.1/hid.usb0")); err != nil || target != filepath.Join(g, hidFunction) {
		t.Errorf("function link = %q, %v", target, err)
	}

	// A bound gadget is left alone.
	cfg.Product = "changed"
	if _, err := SetupGadget(root, cfg); err != nil {
		t.Fatalf("SetupGadget() again error = %v", err)
	}
	if got := readFile(t, filepath.Join(g, "strings/0x409/product")); got != "softkbd keyboard" {
		t.Errorf("bound gadget was rewritten: product = %q", got)
	}
}

func TestSetupGadget_Errors(t *testing.T) {
	if _, err := SetupGadget(t.TempDir(), GadgetConfig{}); err == nil {
		t.Error("SetupGadget(empty config) error = nil")
	}

	saved := udcClassPath
	udcClassPath = t.TempDir()
	defer func() { udcClassPath = saved }()
	if _, err := SetupGadget(t.TempDir(), DefaultGadgetConfig()); err == nil {
		t.Error("SetupGadget() without a device controller error = nil")
	}
}

func TestFormatHex16(t *testing.T) {
	tests := []struct {
		val  uint16
		want string
	}{
		{0, "0x0000"},
		{0x1d6b, "0x1d6b"},
		{0xFFFF, "0xffff"},
	}
	for _, tt := range tests {
		if got := formatHex16(tt.val); got != tt.want {
			t.Errorf("formatHex16(%#x) = %q, want %q", tt.val, got, tt.want)
		}
	}
}

func TestHidgPath(t *testing.T) {
	tests := []struct {
		dev     string
		want    string
		wantErr bool
	}{
		{"243:0\n", "/dev/hidg0", false},
		{"236:12", "/dev/hidg12", false},
		{"garbage", "", true},
		{"243:x", "", true},
	}
	for _, tt := range tests {
		g := t.TempDir()
		os.MkdirAll(filepath.Join(g, hidFunction), 0755)
		os.WriteFile(filepath.Join(g, hidFunction, "dev"), []byte(tt.dev), 0644)
		got, err := hidgPath(g)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("hidgPath(%q) = %q, %v", tt.dev, got, err)
		}
	}
}
