package report

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"sync"
	"sync/atomic"

	"github.com/ardnew/softkbd/keycode"
	"github.com/ardnew/softkbd/pkg"
)

// DefaultRetries is the number of extra write attempts MaybeSend makes when
// the transport is busy.
const DefaultRetries = 16

// Transport carries reports to the host.
type Transport interface {
	// Write sends one report. A zero-length write or pkg.ErrBusy means the
	// transport could not take the report right now.
	Write(p []byte) (int, error)

	// Poll services pending host traffic without blocking and reports
	// whether there was any.
	Poll() bool
}

// LEDSource is implemented by transports that receive the host LED output
// report.
type LEDSource interface {
	LEDs() LEDs
}

// AssemblerOptions configures an Assembler.
type AssemblerOptions struct {
	// Retries is the number of extra attempts for a busy write. Zero selects
	// DefaultRetries; a negative value disables retries.
	Retries int

	// Overflow selects the report contents when more than MaxKeys keys are
	// active.
	Overflow Overflow
}

// Assembler builds reports and sends them when they change.
//
// The mutex guards the transport. The send path holds it for the duration
// of a write; the poll path only ever tries to take it.
type Assembler struct {
	transport Transport
	retries   int
	overflow  Overflow

	mutex sync.Mutex
	last  Report
	buf   [Size]byte

	deferred uint32
	busy     uint64
}

// NewAssembler returns an Assembler writing to t. The host is assumed to
// start with all keys released.
func NewAssembler(t Transport, opts AssemblerOptions) *Assembler {
	retries := opts.Retries
	switch {
	case retries == 0:
		retries = DefaultRetries
	case retries < 0:
		retries = 0
	}
	return &Assembler{
		transport: t,
		retries:   retries,
		overflow:  opts.Overflow,
	}
}

// Build assembles a report from active key codes using the configured
// overflow policy.
func (a *Assembler) Build(keys iter.Seq[keycode.KeyCode]) Report {
	return Build(keys, a.overflow)
}

// MaybeSend writes r unless it equals the last report sent. It reports
// whether r was written. If the transport stays busy through every retry,
// MaybeSend returns pkg.ErrBusy and r is not recorded as sent.
//
// A poll deferred while the write was in progress runs before MaybeSend
// returns.
func (a *Assembler) MaybeSend(r Report) (bool, error) {
	a.mutex.Lock()
	sent, err := a.send(r)
	a.mutex.Unlock()

	if atomic.SwapUint32(&a.deferred, 0) != 0 {
		a.mutex.Lock()
		activity := a.transport.Poll()
		a.mutex.Unlock()
		pkg.LogDebug(pkg.ComponentReport, "deferred poll serviced", "activity", activity)
	}
	return sent, err
}

// send must be called with the mutex held.
func (a *Assembler) send(r Report) (bool, error) {
	if r == a.last {
		return false, nil
	}
	n := r.MarshalTo(a.buf[:])
	for attempt := 0; attempt <= a.retries; attempt++ {
		w, err := a.transport.Write(a.buf[:n])
		switch {
		case err == nil && w == n:
			a.last = r
			pkg.LogDebug(pkg.ComponentReport, "report sent", "report", r, "attempts", attempt+1)
			return true, nil
		case err == nil && w == 0, errors.Is(err, pkg.ErrBusy):
			continue
		case err == nil:
			return false, fmt.Errorf("report write %d of %d bytes: %w", w, n, io.ErrShortWrite)
		default:
			return false, fmt.Errorf("report write: %w", err)
		}
	}
	a.busy++
	pkg.LogDebug(pkg.ComponentReport, "transport busy, retrying next tick",
		"report", r,
		"attempts", a.retries+1)
	return false, pkg.ErrBusy
}

// Poll services host traffic. It never blocks: if the send path holds the
// transport, the poll is deferred until that write completes and Poll
// returns deferred = true.
func (a *Assembler) Poll() (activity, deferred bool) {
	if !a.mutex.TryLock() {
		atomic.StoreUint32(&a.deferred, 1)
		testHookPollDeferred()
		// The sender may have checked the flag before it was set. Take the
		// poll back if the transport was released in the meantime.
		if !a.mutex.TryLock() {
			return false, true
		}
		if atomic.SwapUint32(&a.deferred, 0) == 0 {
			a.mutex.Unlock()
			return false, true
		}
	}
	defer a.mutex.Unlock()
	return a.transport.Poll(), false
}

var testHookPollDeferred = func() {}

// Last returns the last report the transport accepted.
func (a *Assembler) Last() Report {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.last
}

// BusyCount returns how many reports were given up after exhausting their
// retries.
func (a *Assembler) BusyCount() uint64 {
	a.mutex.Lock()
	defer a.mutex.Unlock()
	return a.busy
}

// LEDs returns the host LED state if the transport receives it.
func (a *Assembler) LEDs() (LEDs, bool) {
	src, ok := a.transport.(LEDSource)
	if !ok {
		return 0, false
	}
	return src.LEDs(), true
}
