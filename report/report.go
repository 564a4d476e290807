package report

import (
	"fmt"
	"iter"

	"github.com/ardnew/softkbd/keycode"
)

// Size is the size of a boot keyboard report in bytes.
const Size = 8

// MaxKeys is the number of key slots in a report.
const MaxKeys = 6

// Report is an 8-byte boot keyboard input report.
type Report struct {
	Modifiers uint8                    // Modifier key bits
	Reserved  uint8                    // Always 0
	Keys      [MaxKeys]keycode.KeyCode // Pressed keys, unused slots are None
}

// MarshalTo writes the report to buf.
// Returns the number of bytes written, or 0 if buf is too small.
func (r *Report) MarshalTo(buf []byte) int {
	if len(buf) < Size {
		return 0
	}
	buf[0] = r.Modifiers
	buf[1] = r.Reserved
	for i, k := range r.Keys {
		buf[2+i] = byte(k)
	}
	return Size
}

// Bytes returns the wire encoding of the report.
func (r *Report) Bytes() [Size]byte {
	var b [Size]byte
	r.MarshalTo(b[:])
	return b
}

// Clear resets the report to all keys released.
func (r *Report) Clear() {
	*r = Report{}
}

// SetKey adds k to the report. Modifiers set their bit. A key already in the
// report is not added twice. Returns false if no slot is available.
func (r *Report) SetKey(k keycode.KeyCode) bool {
	if k.IsModifier() {
		r.Modifiers |= k.ModifierBit()
		return true
	}
	for i := range r.Keys {
		if r.Keys[i] == keycode.None {
			r.Keys[i] = k
			return true
		}
		if r.Keys[i] == k {
			return true
		}
	}
	return false
}

// Len returns the number of occupied key slots.
func (r *Report) Len() int {
	n := 0
	for _, k := range r.Keys {
		if k != keycode.None {
			n++
		}
	}
	return n
}

// String formats the report as its wire bytes.
func (r Report) String() string {
	b := r.Bytes()
	return fmt.Sprintf("% x", b[:])
}

// Overflow selects what a report carries when more keys are active than
// it has slots.
type Overflow uint8

// Overflow policies.
const (
	// KeepFirst reports the first MaxKeys keys in press order and drops the
	// rest.
	KeepFirst Overflow = iota

	// RollOver reports ErrorRollOver in every slot.
	RollOver
)

// String returns the policy name.
func (o Overflow) String() string {
	switch o {
	case KeepFirst:
		return "keep-first"
	case RollOver:
		return "rollover"
	default:
		return "unknown"
	}
}

// ParseOverflow returns the policy named s.
func ParseOverflow(s string) (Overflow, error) {
	switch s {
	case "keep-first":
		return KeepFirst, nil
	case "rollover":
		return RollOver, nil
	}
	return 0, fmt.Errorf("unknown overflow policy %q", s)
}

// Build assembles a report from active key codes given in press order.
// Reserved codes are ignored.
func Build(keys iter.Seq[keycode.KeyCode], policy Overflow) Report {
	var r Report
	overflow := false
	for k := range keys {
		if k.IsReserved() {
			continue
		}
		if !r.SetKey(k) {
			overflow = true
		}
	}
	if overflow && policy == RollOver {
		for i := range r.Keys {
			r.Keys[i] = keycode.ErrorRollOver
		}
	}
	return r
}
