package pkg

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	// Verify all sentinel errors are distinct
	errs := []error{
		ErrBusy,
		ErrNotConfigured,
		ErrInvalidDimensions,
		ErrInvalidCoordinate,
		ErrInvalidLayout,
		ErrInvalidLayer,
		ErrNestingTooDeep,
		ErrInvalidAction,
		ErrInvalidConfig,
		ErrInvalidKeymap,
		ErrBufferTooSmall,
		ErrAlreadyRunning,
		ErrClosed,
	}

	for i, a := range errs {
		for j, b := range errs {
			if i != j && errors.Is(a, b) {
				t.Errorf("errors %d (%v) and %d (%v) are not distinct", i, a, j, b)
			}
		}
	}
}

func TestWrappedErrors(t *testing.T) {
	err := fmt.Errorf("layer 2 row 4 col 7: %w", ErrInvalidLayer)
	if !errors.Is(err, ErrInvalidLayer) {
		t.Errorf("errors.Is(%v, ErrInvalidLayer) = false", err)
	}
	if errors.Is(err, ErrInvalidLayout) {
		t.Errorf("errors.Is(%v, ErrInvalidLayout) = true", err)
	}
}
