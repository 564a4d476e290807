//go:build linux

package transport

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"syscall"
	"testing"
	"time"

	"github.com/ardnew/softkbd/pkg"
	"github.com/ardnew/softkbd/report"
)

func TestOpenFIFO(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "kbd")
	s, err := OpenFIFO(dir, time.Millisecond)
	if err != nil {
		t.Fatalf("OpenFIFO() error = %v", err)
	}
	defer s.Close()

	for _, name := range []string{FIFOReports, FIFOLEDs} {
		fi, err := os.Lstat(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("Lstat(%s) error = %v", name, err)
		}
		if fi.Mode()&os.ModeNamedPipe == 0 {
			t.Errorf("%s mode = %v, want named pipe", name, fi.Mode())
		}
	}

	host, err := os.OpenFile(filepath.Join(dir, FIFOReports), os.O_RDONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		t.Fatalf("open reports error = %v", err)
	}
	defer host.Close()

	var r report.Report
	r.SetKey(0x04)
	b := r.Bytes()
	if n, err := s.Write(b[:]); err != nil || n != report.Size {
		t.Fatalf("Write() = %d, %v, want %d, nil", n, err, report.Size)
	}
	var got [report.Size]byte
	host.SetReadDeadline(time.Now().Add(time.Second))
	if _, err := io.ReadFull(host, got[:]); err != nil {
		t.Fatalf("read report error = %v", err)
	}
	if got != b {
		t.Errorf("report = % x, want % x", got, b)
	}
}

func TestOpenFIFO_LEDs(t *testing.T) {
	dir := t.TempDir()
	s, err := OpenFIFO(dir, time.Millisecond)
	if err != nil {
		t.Fatalf("OpenFIFO() error = %v", err)
	}
	defer s.Close()

	host, err := os.OpenFile(filepath.Join(dir, FIFOLEDs), os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open leds error = %v", err)
	}
	defer host.Close()
	if _, err := host.Write([]byte{byte(report.CapsLock)}); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(time.Second)
	for !s.Poll() {
		if time.Now().After(deadline) {
			t.Fatal("Poll() never reported activity")
		}
		time.Sleep(time.Millisecond)
	}
	if got := s.LEDs(); got != report.CapsLock {
		t.Errorf("LEDs() = %v, want %v", got, report.CapsLock)
	}
}

func TestOpenFIFO_Busy(t *testing.T) {
	s, err := OpenFIFO(t.TempDir(), time.Millisecond)
	if err != nil {
		t.Fatalf("OpenFIFO() error = %v", err)
	}
	defer s.Close()

	// Nobody drains the reports pipe, so it eventually fills up.
	var b [report.Size]byte
	for i := 0; i < 1<<20; i++ {
		_, err := s.Write(b[:])
		if errors.Is(err, pkg.ErrBusy) {
			return
		}
		if err != nil {
			t.Fatalf("Write() error = %v, want %v", err, pkg.ErrBusy)
		}
	}
	t.Fatalf("Write() never returned %v", pkg.ErrBusy)
}

func TestCreateFIFO_ReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), FIFOReports)
	if err := os.WriteFile(path, []byte("stale"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := createFIFO(path); err != nil {
		t.Fatalf("createFIFO() error = %v", err)
	}
	fi, err := os.Lstat(path)
	if err != nil {
		t.Fatal(err)
	}
	if fi.Mode()&os.ModeNamedPipe == 0 {
		t.Errorf("mode = %v, want named pipe", fi.Mode())
	}
	// An existing pipe is kept.
	if err := createFIFO(path); err != nil {
		t.Errorf("createFIFO() on existing pipe error = %v", err)
	}
}
