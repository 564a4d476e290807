// Package debounce filters contact bounce out of raw matrix frames.
//
// A cell's confirmed state changes only after its new raw value has been
// sampled on N consecutive scans following the first differing sample. Each
// confirmed change yields exactly one [matrix.Event], so a coordinate's events
// strictly alternate between press and release.
package debounce

import (
	"fmt"
	"iter"
	"log/slog"

	"github.com/ardnew/softkbd/matrix"
	"github.com/ardnew/softkbd/pkg"
)

// DefaultCycles is the number of agreeing scans needed to confirm a change.
const DefaultCycles = 5

// Debouncer holds the per-key debounce history of a rows by cols matrix.
type Debouncer struct {
	rows, cols int
	cycles     uint8

	prev   matrix.Frame // last raw sample
	stable matrix.Frame // confirmed state
	streak [matrix.MaxRows][matrix.MaxCols]uint8
}

// New returns a Debouncer confirming changes after cycles agreeing scans.
func New(rows, cols int, cycles uint8) (*Debouncer, error) {
	if rows <= 0 || rows > matrix.MaxRows || cols <= 0 || cols > matrix.MaxCols {
		return nil, fmt.Errorf("debounce %dx%d: %w", rows, cols, pkg.ErrInvalidDimensions)
	}
	if cycles == 0 {
		return nil, fmt.Errorf("debounce cycles must be at least 1: %w", pkg.ErrInvalidConfig)
	}
	pkg.LogDebug(pkg.ComponentDebounce, "debouncer created",
		"rows", rows,
		"cols", cols,
		"cycles", cycles)
	return &Debouncer{rows: rows, cols: cols, cycles: cycles}, nil
}

// Cycles returns the number of agreeing scans needed to confirm a change.
func (d *Debouncer) Cycles() uint8 { return d.cycles }

// Stable returns the confirmed key state.
func (d *Debouncer) Stable() matrix.Frame { return d.stable }

// Events folds frame into the debounce history and returns the events it
// confirmed, in row-major order. The state is updated before Events returns;
// the returned sequence only replays this frame's transitions and may be
// ranged over any number of times.
func (d *Debouncer) Events(frame matrix.Frame) iter.Seq[matrix.Event] {
	changed := d.update(frame)
	if changed.Empty() {
		return none
	}
	stable := d.stable
	rows, cols := d.rows, d.cols
	return func(yield func(matrix.Event) bool) {
		for r := 0; r < rows; r++ {
			bits := changed.Row(r)
			if bits == 0 {
				continue
			}
			for c := 0; c < cols; c++ {
				if bits&(1<<c) == 0 {
					continue
				}
				coord := matrix.Coordinate{Row: uint8(r), Col: uint8(c)}
				kind := matrix.Release
				if stable.Get(coord) {
					kind = matrix.Press
				}
				if !yield(matrix.Event{Coord: coord, Kind: kind}) {
					return
				}
			}
		}
	}
}

// update applies one raw sample and returns the set of cells whose
// confirmed state flipped.
func (d *Debouncer) update(frame matrix.Frame) matrix.Frame {
	var changed matrix.Frame
	for r := 0; r < d.rows; r++ {
		raw, prev, stable := frame.Row(r), d.prev.Row(r), d.stable.Row(r)
		if raw == stable {
			d.streak[r] = [matrix.MaxCols]uint8{}
			continue
		}
		var flips uint32
		for c := 0; c < d.cols; c++ {
			bit := uint32(1) << c
			switch {
			case raw&bit == stable&bit:
				d.streak[r][c] = 0
			case raw&bit == prev&bit:
				d.streak[r][c]++
				if d.streak[r][c] >= d.cycles {
					d.streak[r][c] = 0
					flips |= bit
				}
			default:
				d.streak[r][c] = 0
			}
		}
		if flips != 0 {
			d.stable.SetRow(r, stable^flips)
			changed.SetRow(r, flips)
			if pkg.Enabled(slog.LevelDebug) {
				pkg.LogDebug(pkg.ComponentDebounce, "change confirmed",
					"row", r,
					"cols", fmt.Sprintf("%#x", flips),
					"state", fmt.Sprintf("%#x", stable^flips))
			}
		}
	}
	d.prev = frame
	return changed
}

func none(func(matrix.Event) bool) {}
