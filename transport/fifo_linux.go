//go:build linux

package transport

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softkbd/pkg"
)

// FIFO file names inside a FIFO transport directory.
const (
	FIFOReports = "reports" // keyboard writes 8-byte reports
	FIFOLEDs    = "leds"    // host writes 1-byte LED output reports
)

// fifoPair joins the report and LED pipes into one io.ReadWriteCloser.
type fifoPair struct {
	reports *os.File
	leds    *os.File
	timeout time.Duration
}

// OpenFIFO creates (if needed) and opens the named pipes of a FIFO transport
// in dir. A host-side tool reads reports from dir/reports and writes LED
// bytes to dir/leds.
//
// Both pipes are opened read-write so that opening never waits for the
// other side. A write that cannot complete within timeout, because nobody
// drains the pipe, returns pkg.ErrBusy.
func OpenFIFO(dir string, timeout time.Duration) (*Stream, error) {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create fifo directory: %w", err)
	}
	for _, name := range []string{FIFOReports, FIFOLEDs} {
		if err := createFIFO(filepath.Join(dir, name)); err != nil {
			return nil, err
		}
	}

	p := &fifoPair{timeout: timeout}
	var err error
	if p.reports, err = openFIFO(filepath.Join(dir, FIFOReports)); err != nil {
		return nil, err
	}
	if p.leds, err = openFIFO(filepath.Join(dir, FIFOLEDs)); err != nil {
		p.reports.Close()
		return nil, err
	}

	s, err := NewStream(p, StreamOptions{ReadLEDs: true})
	if err != nil {
		p.Close()
		return nil, err
	}
	pkg.LogInfo(pkg.ComponentTransport, "fifo opened", "dir", dir, "timeout", timeout)
	return s, nil
}

// createFIFO makes a named pipe at path unless one already exists. Any other
// file in its place is replaced.
func createFIFO(path string) error {
	if fi, err := os.Lstat(path); err == nil {
		if fi.Mode()&os.ModeNamedPipe != 0 {
			return nil
		}
		os.Remove(path)
	}
	if err := unix.Mkfifo(path, 0o666); err != nil {
		return fmt.Errorf("mkfifo %s: %w", filepath.Base(path), err)
	}
	return nil
}

func openFIFO(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	return f, nil
}

func (p *fifoPair) Read(b []byte) (int, error) {
	return p.leds.Read(b)
}

func (p *fifoPair) Write(b []byte) (int, error) {
	if err := p.reports.SetWriteDeadline(time.Now().Add(p.timeout)); err != nil {
		return 0, err
	}
	n, err := p.reports.Write(b)
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return n, pkg.ErrBusy
	}
	return n, err
}

func (p *fifoPair) Close() error {
	return errors.Join(p.reports.Close(), p.leds.Close())
}
