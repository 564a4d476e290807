//go:build linux

package transport

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softkbd/pkg"
	"github.com/ardnew/softkbd/report"
)

// openTestGadget opens a named pipe standing in for /dev/hidgN.
func openTestGadget(t *testing.T) (*Gadget, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hidg0")
	if err := unix.Mkfifo(path, 0o666); err != nil {
		t.Fatalf("Mkfifo() error = %v", err)
	}
	g, err := OpenGadget(path, time.Millisecond)
	if err != nil {
		t.Fatalf("OpenGadget() error = %v", err)
	}
	return g, path
}

func TestGadget_WriteBusy(t *testing.T) {
	g, _ := openTestGadget(t)
	defer g.Close()

	var r report.Report
	r.SetKey(0x04)
	b := r.Bytes()
	if n, err := g.Write(b[:]); err != nil || n != report.Size {
		t.Fatalf("Write() = %d, %v, want %d, nil", n, err, report.Size)
	}

	// Nobody reads the pipe, so it fills up and the deadline expires.
	for i := 0; i < 1<<20; i++ {
		_, err := g.Write(b[:])
		if errors.Is(err, pkg.ErrBusy) {
			return
		}
		if err != nil {
			t.Fatalf("Write() error = %v, want %v", err, pkg.ErrBusy)
		}
	}
	t.Fatalf("Write() never returned %v", pkg.ErrBusy)
}

func TestGadget_PollLEDs(t *testing.T) {
	g, path := openTestGadget(t)
	defer g.Close()

	if g.Poll() {
		t.Error("Poll() = true with nothing pending")
	}
	if got := g.LEDs(); got != 0 {
		t.Errorf("LEDs() = %v, want none", got)
	}

	host, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open host side error = %v", err)
	}
	defer host.Close()
	want := report.NumLock | report.CapsLock
	if _, err := host.Write([]byte{byte(want)}); err != nil {
		t.Fatal(err)
	}

	if !g.Poll() {
		t.Fatal("Poll() = false, want true after LED report")
	}
	if got := g.LEDs(); got != want {
		t.Errorf("LEDs() = %v, want %v", got, want)
	}
	if g.Poll() {
		t.Error("second Poll() = true, want false")
	}
	if got := g.LEDs(); got != want {
		t.Errorf("LEDs() after idle Poll = %v, want %v", got, want)
	}
}

func TestGadget_Closed(t *testing.T) {
	g, _ := openTestGadget(t)
	if err := g.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	var b [report.Size]byte
	if _, err := g.Write(b[:]); !errors.Is(err, pkg.ErrClosed) {
		t.Errorf("Write() after Close error = %v, want %v", err, pkg.ErrClosed)
	}
	if g.Poll() {
		t.Error("Poll() after Close = true, want false")
	}
}

func TestOpenGadget_Missing(t *testing.T) {
	_, err := OpenGadget(filepath.Join(t.TempDir(), "hidg9"), 0)
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("OpenGadget() error = %v, want %v", err, os.ErrNotExist)
	}
}
