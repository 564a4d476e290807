package layout

import (
	"fmt"

	"github.com/ardnew/softkbd/keycode"
	"github.com/ardnew/softkbd/pkg"
)

// MaxDepth bounds how deeply actions may nest (HoldTap inside HoldTap,
// Multi inside Multi). Layouts exceeding it are rejected by New.
const MaxDepth = 4

// Action is what a key does when pressed. The set of actions is closed:
// NoOp, Trans, Key, Macro, Multi, Layer, DefaultLayer, HoldTap and Custom.
type Action interface {
	action()
}

// NoOp does nothing and stops layer fall-through.
type NoOp struct{}

// Trans defers to the next lower active layer.
type Trans struct{}

// Key presses a single key code.
type Key keycode.KeyCode

// Macro presses several key codes at once, e.g. Macro{LShift, Delete}.
type Macro []keycode.KeyCode

// Multi performs several actions at once.
type Multi []Action

// Layer activates a layer while the key is held.
type Layer int

// DefaultLayer makes a layer the base layer until another DefaultLayer
// action replaces it.
type DefaultLayer int

// HoldTapConfig selects how a pending HoldTap reacts to other keys.
type HoldTapConfig uint8

// HoldTap resolution policies.
const (
	// Default resolves only on release (tap) or timeout (hold).
	Default HoldTapConfig = iota

	// HoldOnOtherKeyPress resolves to hold as soon as another key is pressed.
	HoldOnOtherKeyPress

	// PermissiveHold resolves to hold when another key is pressed and
	// released while the HoldTap is pending.
	PermissiveHold
)

// String returns the policy name.
func (c HoldTapConfig) String() string {
	switch c {
	case Default:
		return "default"
	case HoldOnOtherKeyPress:
		return "hold-on-other-key-press"
	case PermissiveHold:
		return "permissive-hold"
	default:
		return "unknown"
	}
}

// HoldTap performs Hold if the key is held past Timeout ticks and Tap if it
// is released earlier.
type HoldTap struct {
	// Timeout is the number of ticks after which the key resolves to Hold.
	Timeout uint16

	// Config selects how other keys influence the resolution.
	Config HoldTapConfig

	// TapHoldInterval, when non-zero, makes a press within that many ticks of
	// this key's previous tap resolve to Tap immediately, so the tap can be
	// held (e.g. for key repeat).
	TapHoldInterval uint16

	Hold Action
	Tap  Action
}

// Custom surfaces an opaque value to the caller when pressed and released.
type Custom struct {
	Value any
}

func (NoOp) action()         {}
func (Trans) action()        {}
func (Key) action()          {}
func (Macro) action()        {}
func (Multi) action()        {}
func (Layer) action()        {}
func (DefaultLayer) action() {}
func (HoldTap) action()      {}
func (Custom) action()       {}

// K returns a Key action.
func K(k keycode.KeyCode) Action { return Key(k) }

// M returns a Macro action pressing all keys at once.
func M(keys ...keycode.KeyCode) Action { return Macro(keys) }

// L returns a momentary Layer action.
func L(layer int) Action { return Layer(layer) }

// Layers is a stack of key tables indexed by layer, row and column.
// Rows and columns may be shorter than the matrix; missing cells and nil
// cells behave as Trans.
type Layers [][][]Action

// At returns the action at (layer, row, col), or Trans when the cell is
// absent.
func (ls Layers) At(layer, row, col int) Action {
	if layer < 0 || layer >= len(ls) {
		return Trans{}
	}
	rows := ls[layer]
	if row < 0 || row >= len(rows) || col < 0 || col >= len(rows[row]) {
		return Trans{}
	}
	if a := rows[row][col]; a != nil {
		return a
	}
	return Trans{}
}

// Validate checks that ls fits a rows by cols matrix and that every action
// is well formed.
func (ls Layers) Validate(rows, cols int) error {
	if len(ls) == 0 {
		return fmt.Errorf("no layers: %w", pkg.ErrInvalidLayout)
	}
	for l, layer := range ls {
		if len(layer) > rows {
			return fmt.Errorf("layer %d has %d rows, matrix has %d: %w",
				l, len(layer), rows, pkg.ErrInvalidLayout)
		}
		for r, row := range layer {
			if len(row) > cols {
				return fmt.Errorf("layer %d row %d has %d columns, matrix has %d: %w",
					l, r, len(row), cols, pkg.ErrInvalidLayout)
			}
			for c, a := range row {
				if a == nil {
					continue
				}
				if err := validateAction(a, len(ls), 0); err != nil {
					return fmt.Errorf("layer %d row %d col %d: %w", l, r, c, err)
				}
			}
		}
	}
	return nil
}

func validateAction(a Action, layers, depth int) error {
	if depth >= MaxDepth {
		return pkg.ErrNestingTooDeep
	}
	switch a := a.(type) {
	case NoOp, Trans, Key, Macro, Custom:
		return nil
	case Layer:
		if int(a) < 0 || int(a) >= layers {
			return fmt.Errorf("layer %d: %w", int(a), pkg.ErrInvalidLayer)
		}
	case DefaultLayer:
		if int(a) < 0 || int(a) >= layers {
			return fmt.Errorf("default layer %d: %w", int(a), pkg.ErrInvalidLayer)
		}
	case Multi:
		for i, sub := range a {
			if sub == nil {
				return fmt.Errorf("multi action %d is nil: %w", i, pkg.ErrInvalidAction)
			}
			if err := validateAction(sub, layers, depth+1); err != nil {
				return err
			}
		}
	case HoldTap:
		if a.Timeout == 0 {
			return fmt.Errorf("hold-tap timeout is zero: %w", pkg.ErrInvalidAction)
		}
		if a.Config > PermissiveHold {
			return fmt.Errorf("hold-tap config %d: %w", a.Config, pkg.ErrInvalidAction)
		}
		if a.Hold == nil || a.Tap == nil {
			return fmt.Errorf("hold-tap without hold or tap action: %w", pkg.ErrInvalidAction)
		}
		if err := validateAction(a.Hold, layers, depth+1); err != nil {
			return fmt.Errorf("hold: %w", err)
		}
		if err := validateAction(a.Tap, layers, depth+1); err != nil {
			return fmt.Errorf("tap: %w", err)
		}
	default:
		return fmt.Errorf("unsupported action %T: %w", a, pkg.ErrInvalidAction)
	}
	return nil
}
