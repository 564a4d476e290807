//go:build linux

package transport

import (
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ardnew/softkbd/pkg"
	"github.com/ardnew/softkbd/report"
)

// DefaultWriteTimeout bounds a gadget write. If no host reads the gadget a
// write would otherwise block forever.
const DefaultWriteTimeout = 5 * time.Millisecond

// Gadget is a USB HID gadget character device.
type Gadget struct {
	f       *os.File
	raw     syscall.RawConn
	timeout time.Duration
	leds    uint32
}

// OpenGadget opens the gadget device at path, e.g. /dev/hidg0.
func OpenGadget(path string, timeout time.Duration) (*Gadget, error) {
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	f, err := os.OpenFile(path, os.O_RDWR, 0666)
	if err != nil {
		return nil, fmt.Errorf("open gadget: %w", err)
	}
	raw, err := f.SyscallConn()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open gadget: %w", err)
	}
	pkg.LogInfo(pkg.ComponentTransport, "gadget opened", "path", path, "timeout", timeout)
	return &Gadget{f: f, raw: raw, timeout: timeout}, nil
}

// Write sends one report. A write that misses its deadline returns
// pkg.ErrBusy.
func (g *Gadget) Write(p []byte) (int, error) {
	n, err := g.write(p)
	switch {
	case errors.Is(err, os.ErrDeadlineExceeded):
		return n, pkg.ErrBusy
	case errors.Is(err, os.ErrClosed):
		return n, pkg.ErrClosed
	}
	return n, err
}

func (g *Gadget) write(p []byte) (int, error) {
	if err := g.f.SetWriteDeadline(time.Now().Add(g.timeout)); err != nil {
		return 0, err
	}
	return g.f.Write(p)
}

// Poll reads a pending LED output report, if any, without blocking.
func (g *Gadget) Poll() bool {
	activity := false
	err := g.raw.Control(func(fd uintptr) {
		fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		for {
			n, err := unix.Poll(fds, 0)
			if err == unix.EINTR {
				continue
			}
			if err != nil || n == 0 || fds[0].Revents&unix.POLLIN == 0 {
				return
			}
			var b [1]byte
			if r, err := unix.Read(int(fd), b[:]); err != nil || r != 1 {
				return
			}
			atomic.StoreUint32(&g.leds, uint32(b[0]))
			activity = true
			pkg.LogDebug(pkg.ComponentTransport, "LED report", "leds", report.LEDs(b[0]))
		}
	})
	if err != nil {
		pkg.LogDebug(pkg.ComponentTransport, "gadget poll failed", "error", err)
	}
	return activity
}

// LEDs returns the last LED state the host sent.
func (g *Gadget) LEDs() report.LEDs {
	return report.LEDs(atomic.LoadUint32(&g.leds))
}

// Close closes the device.
func (g *Gadget) Close() error {
	return g.f.Close()
}

// Compile-time interface checks
var (
	_ report.Transport = (*Gadget)(nil)
	_ report.LEDSource = (*Gadget)(nil)
)
