package matrix

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/ardnew/softkbd/pkg"
)

// DefaultSettleDelay is the time a row is held active before its columns
// are sampled.
const DefaultSettleDelay = 5 * time.Microsecond

// ScannerOptions configures a Scanner. The zero value selects active-low
// wiring and DefaultSettleDelay.
type ScannerOptions struct {
	// ActiveHigh drives rows high and pulls columns down. By default rows are
	// driven low and columns are pulled up.
	ActiveHigh bool

	// SettleDelay is waited after driving a row before sampling. Zero selects
	// DefaultSettleDelay; a negative value disables the wait.
	SettleDelay time.Duration
}

// Scanner strobes a key matrix through GPIO lines.
type Scanner struct {
	rows   []gpio.PinOut
	cols   []gpio.PinIn
	active gpio.Level
	settle time.Duration

	mutex sync.Mutex
	err   error
}

// NewScanner configures the column lines as inputs and parks every row line
// at its inactive level.
func NewScanner(rows []gpio.PinOut, cols []gpio.PinIn, opts ScannerOptions) (*Scanner, error) {
	if len(rows) == 0 || len(rows) > MaxRows || len(cols) == 0 || len(cols) > MaxCols {
		return nil, fmt.Errorf("matrix %dx%d: %w", len(rows), len(cols), pkg.ErrInvalidDimensions)
	}

	s := &Scanner{
		rows:   rows,
		cols:   cols,
		active: gpio.Low,
		settle: opts.SettleDelay,
	}
	pull := gpio.PullUp
	if opts.ActiveHigh {
		s.active = gpio.High
		pull = gpio.PullDown
	}
	if s.settle == 0 {
		s.settle = DefaultSettleDelay
	}

	for i, p := range cols {
		if p == nil {
			return nil, fmt.Errorf("column %d: %w", i, pkg.ErrNotConfigured)
		}
		if err := p.In(pull, gpio.NoEdge); err != nil {
			return nil, fmt.Errorf("column %d (%s): %w", i, p, err)
		}
	}
	for i, p := range rows {
		if p == nil {
			return nil, fmt.Errorf("row %d: %w", i, pkg.ErrNotConfigured)
		}
		if err := p.Out(!s.active); err != nil {
			return nil, fmt.Errorf("row %d (%s): %w", i, p, err)
		}
	}

	pkg.LogDebug(pkg.ComponentMatrix, "scanner configured",
		"rows", len(rows),
		"cols", len(cols),
		"activeHigh", opts.ActiveHigh,
		"settle", s.settle)

	return s, nil
}

// Rows returns the number of row lines.
func (s *Scanner) Rows() int { return len(s.rows) }

// Cols returns the number of column lines.
func (s *Scanner) Cols() int { return len(s.cols) }

// Scan strobes every row and returns the complete frame. A row whose line
// cannot be driven reads as all open; see Err.
func (s *Scanner) Scan() Frame {
	var f Frame
	for r, row := range s.rows {
		if err := row.Out(s.active); err != nil {
			s.fail(r, err)
			continue
		}
		s.wait()
		var closed uint32
		for c, col := range s.cols {
			if col.Read() == s.active {
				closed |= 1 << c
			}
		}
		if err := row.Out(!s.active); err != nil {
			s.fail(r, err)
		}
		f.rows[r] = closed
	}
	return f
}

// Err returns the first row drive error seen by Scan, if any.
func (s *Scanner) Err() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.err
}

func (s *Scanner) fail(row int, err error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.err != nil {
		return
	}
	s.err = fmt.Errorf("row %d: %w", row, err)
	pkg.LogWarn(pkg.ComponentMatrix, "row drive failed", "row", row, "error", err)
}

// wait spins for the settle delay; sleeping would overshoot by far more than
// the delay itself.
func (s *Scanner) wait() {
	if s.settle <= 0 {
		return
	}
	for start := time.Now(); time.Since(start) < s.settle; {
	}
}
