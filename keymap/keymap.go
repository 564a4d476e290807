package keymap

import (
	"fmt"
	"time"

	"github.com/ardnew/softkbd/layout"
	"github.com/ardnew/softkbd/pkg"
)

// Keymap is a layer stack together with the matrix size it was made for.
type Keymap struct {
	Rows   int
	Cols   int
	Layers layout.Layers
}

// Validate checks the layers against the matrix size.
func (km *Keymap) Validate() error {
	if km.Rows <= 0 || km.Cols <= 0 {
		return fmt.Errorf("keymap %dx%d: %w", km.Rows, km.Cols, pkg.ErrInvalidDimensions)
	}
	return km.Layers.Validate(km.Rows, km.Cols)
}

// Ticks converts d into a number of tick periods, rounding up. The result
// is at least 1 and saturates at the largest HoldTap timeout.
func Ticks(d, tick time.Duration) uint16 {
	if tick <= 0 {
		tick = time.Millisecond
	}
	n := (d + tick - 1) / tick
	switch {
	case n < 1:
		return 1
	case n > 0xFFFF:
		return 0xFFFF
	}
	return uint16(n)
}

// Duration converts a number of ticks back into a duration.
func Duration(ticks uint16, tick time.Duration) time.Duration {
	return time.Duration(ticks) * tick
}
