package transport

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/ardnew/softkbd/pkg"
	"github.com/ardnew/softkbd/report"
)

// MaxPrefix is the maximum length of a frame prefix.
const MaxPrefix = 4

// StreamOptions configures a Stream.
type StreamOptions struct {
	// Prefix is written before every report.
	Prefix []byte

	// ReadLEDs starts a reader that treats every byte received as an LED
	// output report.
	ReadLEDs bool
}

// Stream writes reports to an io.ReadWriter.
type Stream struct {
	rw     io.ReadWriter
	prefix int
	buf    [MaxPrefix + report.Size]byte

	leds     uint32
	activity uint32
	closed   uint32

	wg sync.WaitGroup
}

// NewStream returns a Stream writing to rw. If rw is an io.Closer, Close
// closes it.
func NewStream(rw io.ReadWriter, opts StreamOptions) (*Stream, error) {
	if len(opts.Prefix) > MaxPrefix {
		return nil, pkg.ErrBufferTooSmall
	}
	s := &Stream{rw: rw, prefix: len(opts.Prefix)}
	copy(s.buf[:], opts.Prefix)
	if opts.ReadLEDs {
		s.wg.Add(1)
		go s.read()
	}
	return s, nil
}

// Write sends p as one frame. It returns the number of bytes of p written.
//
// Once any byte of a frame is out, the frame cannot be resent without
// corrupting the stream, so a partial frame, even one that stops inside the
// prefix, is reported as io.ErrShortWrite rather than a zero-length write.
func (s *Stream) Write(p []byte) (int, error) {
	if atomic.LoadUint32(&s.closed) != 0 {
		return 0, pkg.ErrClosed
	}
	if len(p) > report.Size {
		return 0, pkg.ErrBufferTooSmall
	}
	n := copy(s.buf[s.prefix:], p)
	w, err := s.rw.Write(s.buf[:s.prefix+n])
	if w > 0 && w < s.prefix+n && err == nil {
		err = io.ErrShortWrite
	}
	w -= s.prefix
	if w < 0 {
		w = 0
	}
	return w, err
}

// Poll reports whether the host sent anything since the last Poll.
func (s *Stream) Poll() bool {
	return atomic.SwapUint32(&s.activity, 0) != 0
}

// LEDs returns the last LED state received.
func (s *Stream) LEDs() report.LEDs {
	return report.LEDs(atomic.LoadUint32(&s.leds))
}

// Close closes the underlying stream and waits for the reader to exit.
func (s *Stream) Close() error {
	if !atomic.CompareAndSwapUint32(&s.closed, 0, 1) {
		return nil
	}
	var err error
	if c, ok := s.rw.(io.Closer); ok {
		err = c.Close()
	}
	s.wg.Wait()
	return err
}

func (s *Stream) read() {
	defer s.wg.Done()
	var b [1]byte
	for {
		n, err := s.rw.Read(b[:])
		if n == 1 {
			atomic.StoreUint32(&s.leds, uint32(b[0]))
			atomic.StoreUint32(&s.activity, 1)
			pkg.LogDebug(pkg.ComponentTransport, "LED report", "leds", report.LEDs(b[0]))
		}
		if err == nil {
			continue
		}
		if atomic.LoadUint32(&s.closed) == 0 && !errors.Is(err, io.EOF) {
			pkg.LogWarn(pkg.ComponentTransport, "stream read failed", "error", err)
		}
		return
	}
}

// Compile-time interface checks
var (
	_ report.Transport = (*Stream)(nil)
	_ report.LEDSource = (*Stream)(nil)
)
