package matrix

import (
	"errors"
	"testing"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"

	"github.com/ardnew/softkbd/pkg"
)

// switchColumn simulates a column line: it reads low while any row driven
// low has a closed switch on this column.
type switchColumn struct {
	*gpiotest.Pin
	col    int
	rows   []*gpiotest.Pin
	closed *Frame
}

func (p *switchColumn) Read() gpio.Level {
	for r, row := range p.rows {
		if row.Read() == gpio.Low && p.closed.Get(Coordinate{Row: uint8(r), Col: uint8(p.col)}) {
			return gpio.Low
		}
	}
	return gpio.High
}

// brokenRow fails every Out call once armed.
type brokenRow struct {
	*gpiotest.Pin
	armed bool
}

func (p *brokenRow) Out(l gpio.Level) error {
	if p.armed {
		return errors.New("line busy")
	}
	return p.Pin.Out(l)
}

func newTestMatrix(t *testing.T, nrows, ncols int, closed *Frame) (*Scanner, []*gpiotest.Pin) {
	t.Helper()
	rowPins := make([]*gpiotest.Pin, nrows)
	rows := make([]gpio.PinOut, nrows)
	for i := range rowPins {
		rowPins[i] = &gpiotest.Pin{N: "row", Num: i}
		rows[i] = rowPins[i]
	}
	cols := make([]gpio.PinIn, ncols)
	for i := range cols {
		cols[i] = &switchColumn{
			Pin:    &gpiotest.Pin{N: "col", Num: i},
			col:    i,
			rows:   rowPins,
			closed: closed,
		}
	}
	s, err := NewScanner(rows, cols, ScannerOptions{SettleDelay: -1})
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}
	return s, rowPins
}

func TestNewScanner_Dimensions(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
	}{
		{"no rows", 0, 3},
		{"no cols", 3, 0},
		{"too many rows", MaxRows + 1, 1},
		{"too many cols", 1, MaxCols + 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([]gpio.PinOut, tt.rows)
			for i := range rows {
				rows[i] = &gpiotest.Pin{N: "row", Num: i}
			}
			cols := make([]gpio.PinIn, tt.cols)
			for i := range cols {
				cols[i] = &gpiotest.Pin{N: "col", Num: i}
			}
			_, err := NewScanner(rows, cols, ScannerOptions{})
			if !errors.Is(err, pkg.ErrInvalidDimensions) {
				t.Errorf("NewScanner() error = %v, want %v", err, pkg.ErrInvalidDimensions)
			}
		})
	}
}

func TestNewScanner_ParksRows(t *testing.T) {
	var closed Frame
	_, rows := newTestMatrix(t, 3, 2, &closed)
	for i, p := range rows {
		if p.Read() != gpio.High {
			t.Errorf("row %d idle level = %v, want High", i, p.Read())
		}
	}
}

func TestNewScanner_ActiveHighPullsDown(t *testing.T) {
	col := &gpiotest.Pin{N: "col"}
	row := &gpiotest.Pin{N: "row"}
	if _, err := NewScanner([]gpio.PinOut{row}, []gpio.PinIn{col}, ScannerOptions{ActiveHigh: true}); err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}
	if col.P != gpio.PullDown {
		t.Errorf("column pull = %v, want %v", col.P, gpio.PullDown)
	}
	if row.L != gpio.Low {
		t.Errorf("row idle level = %v, want Low", row.L)
	}
}

func TestScan(t *testing.T) {
	var closed Frame
	s, rows := newTestMatrix(t, 4, 5, &closed)

	if f := s.Scan(); !f.Empty() {
		t.Errorf("Scan() with no keys = \n%s", f.Format(4, 5))
	}

	keys := []Coordinate{{0, 0}, {1, 4}, {3, 2}, {3, 3}}
	for _, c := range keys {
		closed.Set(c, true)
	}

	f := s.Scan()
	if f != closed {
		t.Errorf("Scan() = \n%s\nwant\n%s", f.Format(4, 5), closed.Format(4, 5))
	}
	if f.Count() != len(keys) {
		t.Errorf("Count() = %d, want %d", f.Count(), len(keys))
	}
	for i, p := range rows {
		if p.Read() != gpio.High {
			t.Errorf("row %d left at %v after scan", i, p.Read())
		}
	}
	if err := s.Err(); err != nil {
		t.Errorf("Err() = %v, want nil", err)
	}
}

func TestScan_GhostFree(t *testing.T) {
	// Keys sharing a column on different rows must not bleed into each other.
	var closed Frame
	s, _ := newTestMatrix(t, 2, 2, &closed)
	closed.Set(Coordinate{0, 1}, true)

	f := s.Scan()
	if f.Get(Coordinate{1, 1}) {
		t.Error("Scan() reported (1,1) closed; only (0,1) is")
	}
	if !f.Get(Coordinate{0, 1}) {
		t.Error("Scan() reported (0,1) open")
	}
}

func TestScan_RowFailure(t *testing.T) {
	var closed Frame
	closed.Set(Coordinate{0, 0}, true)
	closed.Set(Coordinate{1, 0}, true)

	good := &gpiotest.Pin{N: "row0"}
	bad := &brokenRow{Pin: &gpiotest.Pin{N: "row1", Num: 1}}
	col := &switchColumn{
		Pin:    &gpiotest.Pin{N: "col0"},
		rows:   []*gpiotest.Pin{good, bad.Pin},
		closed: &closed,
	}
	s, err := NewScanner([]gpio.PinOut{good, bad}, []gpio.PinIn{col}, ScannerOptions{SettleDelay: -1})
	if err != nil {
		t.Fatalf("NewScanner() error = %v", err)
	}
	bad.armed = true

	f := s.Scan()
	if !f.Get(Coordinate{0, 0}) {
		t.Error("healthy row lost its key")
	}
	if f.Get(Coordinate{1, 0}) {
		t.Error("failed row reported a closed key")
	}
	if s.Err() == nil {
		t.Error("Err() = nil after row failure")
	}
}
