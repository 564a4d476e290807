package keyboard

import (
	"fmt"
	"time"

	"github.com/ardnew/softkbd/debounce"
	"github.com/ardnew/softkbd/keymap"
	"github.com/ardnew/softkbd/matrix"
	"github.com/ardnew/softkbd/pkg"
	"github.com/ardnew/softkbd/report"
)

// Default timing.
const (
	DefaultTickPeriod = time.Millisecond
	DefaultPollPeriod = time.Millisecond
)

// Config holds the firmware configuration.
type Config struct {
	// Rows and Cols give the matrix size.
	Rows int
	Cols int

	// TickPeriod is the pipeline period.
	TickPeriod time.Duration

	// PollPeriod is the host poll period.
	PollPeriod time.Duration

	// DebounceCycles is the number of consecutive agreeing scans needed to
	// accept a key change.
	DebounceCycles uint8

	// SettleDelay is the wait between driving a row and sampling columns.
	SettleDelay time.Duration

	// ActiveHigh drives rows high and pulls columns down.
	ActiveHigh bool

	// SendRetries bounds the extra attempts for a busy write per tick.
	SendRetries int

	// Overflow selects the report contents when too many keys are held.
	Overflow report.Overflow
}

// DefaultConfig returns the configuration of the built-in 5x13 board.
func DefaultConfig() Config {
	return Config{
		Rows:           keymap.DefaultRows,
		Cols:           keymap.DefaultCols,
		TickPeriod:     DefaultTickPeriod,
		PollPeriod:     DefaultPollPeriod,
		DebounceCycles: debounce.DefaultCycles,
		SettleDelay:    matrix.DefaultSettleDelay,
		SendRetries:    report.DefaultRetries,
		Overflow:       report.KeepFirst,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Rows <= 0 || c.Rows > matrix.MaxRows || c.Cols <= 0 || c.Cols > matrix.MaxCols {
		return fmt.Errorf("matrix %dx%d: %w", c.Rows, c.Cols, pkg.ErrInvalidDimensions)
	}
	if c.TickPeriod <= 0 {
		return fmt.Errorf("tick period %v: %w", c.TickPeriod, pkg.ErrInvalidConfig)
	}
	if c.PollPeriod <= 0 {
		return fmt.Errorf("poll period %v: %w", c.PollPeriod, pkg.ErrInvalidConfig)
	}
	if c.DebounceCycles == 0 {
		return fmt.Errorf("debounce cycles must be at least 1: %w", pkg.ErrInvalidConfig)
	}
	if c.Overflow > report.RollOver {
		return fmt.Errorf("overflow policy %d: %w", c.Overflow, pkg.ErrInvalidConfig)
	}
	return nil
}

// Ticks converts d into HoldTap ticks at the configured tick period.
func (c *Config) Ticks(d time.Duration) uint16 {
	return keymap.Ticks(d, c.TickPeriod)
}

// ScannerOptions returns the matrix scanner options.
func (c *Config) ScannerOptions() matrix.ScannerOptions {
	return matrix.ScannerOptions{
		ActiveHigh:  c.ActiveHigh,
		SettleDelay: c.SettleDelay,
	}
}
