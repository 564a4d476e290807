package matrix

import (
	"fmt"
	"math/bits"
	"strings"
)

// Matrix size limits.
const (
	MaxRows = 32
	MaxCols = 32
)

// Coordinate identifies a physical key position.
type Coordinate struct {
	Row uint8
	Col uint8
}

// String returns the coordinate as "(row,col)".
func (c Coordinate) String() string {
	return fmt.Sprintf("(%d,%d)", c.Row, c.Col)
}

// In reports whether c lies inside a rows by cols matrix.
func (c Coordinate) In(rows, cols int) bool {
	return int(c.Row) < rows && int(c.Col) < cols
}

// Frame is a bitmap of key contact state, one bit per coordinate.
// Bit c of row r is set when the switch at (r,c) is closed.
type Frame struct {
	rows [MaxRows]uint32
}

// Get reports whether the key at c is closed.
func (f *Frame) Get(c Coordinate) bool {
	if c.Row >= MaxRows || c.Col >= MaxCols {
		return false
	}
	return f.rows[c.Row]&(1<<c.Col) != 0
}

// Set records the state of the key at c. Out of range coordinates are ignored.
func (f *Frame) Set(c Coordinate, closed bool) {
	if c.Row >= MaxRows || c.Col >= MaxCols {
		return
	}
	if closed {
		f.rows[c.Row] |= 1 << c.Col
	} else {
		f.rows[c.Row] &^= 1 << c.Col
	}
}

// Row returns the column bits of row r.
func (f *Frame) Row(r int) uint32 {
	if r < 0 || r >= MaxRows {
		return 0
	}
	return f.rows[r]
}

// SetRow replaces the column bits of row r.
func (f *Frame) SetRow(r int, cols uint32) {
	if r < 0 || r >= MaxRows {
		return
	}
	f.rows[r] = cols
}

// Count returns the number of closed keys.
func (f *Frame) Count() int {
	n := 0
	for _, r := range f.rows {
		n += bits.OnesCount32(r)
	}
	return n
}

// Empty reports whether no key is closed.
func (f *Frame) Empty() bool {
	return *f == Frame{}
}

// Format renders the first rows by cols cells, one line per row, using
// '#' for closed and '.' for open keys.
func (f *Frame) Format(rows, cols int) string {
	var b strings.Builder
	for r := 0; r < rows && r < MaxRows; r++ {
		if r > 0 {
			b.WriteByte('\n')
		}
		for c := 0; c < cols && c < MaxCols; c++ {
			if f.rows[r]&(1<<c) != 0 {
				b.WriteByte('#')
			} else {
				b.WriteByte('.')
			}
		}
	}
	return b.String()
}

// Kind is the direction of a key transition.
type Kind uint8

// Event kinds.
const (
	Press Kind = iota + 1
	Release
)

// String returns "press" or "release".
func (k Kind) String() string {
	switch k {
	case Press:
		return "press"
	case Release:
		return "release"
	default:
		return "unknown"
	}
}

// Event is a settled key transition.
type Event struct {
	Coord Coordinate
	Kind  Kind
}

// PressAt returns a press event for (row, col).
func PressAt(row, col uint8) Event {
	return Event{Coord: Coordinate{Row: row, Col: col}, Kind: Press}
}

// ReleaseAt returns a release event for (row, col).
func ReleaseAt(row, col uint8) Event {
	return Event{Coord: Coordinate{Row: row, Col: col}, Kind: Release}
}

// String returns e as "press(row,col)".
func (e Event) String() string {
	return e.Kind.String() + e.Coord.String()
}
