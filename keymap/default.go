package keymap

import (
	"time"

	kc "github.com/ardnew/softkbd/keycode"
	"github.com/ardnew/softkbd/layout"
)

// Default matrix size.
const (
	DefaultRows = 5
	DefaultCols = 13
)

// ResetValue is the Custom action value that asks the firmware to restart.
const ResetValue = "reset"

// HoldTapTimeout is the hold threshold of the built-in dual-purpose keys.
const HoldTapTimeout = 200 * time.Millisecond

func k(c kc.KeyCode) layout.Action { return layout.K(c) }

// s is the shifted key.
func s(c kc.KeyCode) layout.Action { return layout.M(kc.LShift, c) }

// a is the AltGr key.
func a(c kc.KeyCode) layout.Action { return layout.M(kc.RAlt, c) }

// Default returns the built-in 5x13 keymap with HoldTap timeouts expressed
// in ticks of the given period.
//
// Layer 0 is a QWERTY base. Holding the left thumb space key selects layer 1
// (function keys, navigation and editing); holding the right thumb enter key
// selects layer 2 (digits and symbols). The last column of the first row
// belongs to a board button that closes the whole column.
func Default(tick time.Duration) Keymap {
	timeout := Ticks(HoldTapTimeout, tick)
	holdTap := func(config layout.HoldTapConfig, hold, tap layout.Action) layout.Action {
		return layout.HoldTap{Timeout: timeout, Config: config, Hold: hold, Tap: tap}
	}

	var (
		t = layout.Trans{}

		cutKeys   = layout.M(kc.LShift, kc.Delete)
		copyKeys  = layout.M(kc.LCtrl, kc.Insert)
		pasteKeys = layout.M(kc.LShift, kc.Insert)
		cspace    = layout.M(kc.LCtrl, kc.Space)

		l2Enter  = holdTap(layout.HoldOnOtherKeyPress, layout.L(2), k(kc.Enter))
		l1Space  = holdTap(layout.Default, layout.L(1), k(kc.Space))
		shiftEsc = holdTap(layout.Default, k(kc.LShift), k(kc.Escape))
		ctrlIns  = holdTap(layout.Default, k(kc.LCtrl), k(kc.Insert))
		altNL    = holdTap(layout.Default, k(kc.LAlt), k(kc.NumLock))

		reset = layout.Custom{Value: ResetValue}
	)

	return Keymap{
		Rows: DefaultRows,
		Cols: DefaultCols,
		Layers: layout.Layers{
			{
				{k(kc.Grave), k(kc.Kb1), k(kc.Kb2), k(kc.Kb3), k(kc.Kb4), k(kc.Kb5), k(kc.Kb6), k(kc.Kb7), k(kc.Kb8), k(kc.Kb9), k(kc.Kb0), k(kc.Minus), k(kc.Space)},
				{k(kc.Tab), k(kc.Q), k(kc.W), k(kc.E), k(kc.R), k(kc.T), k(kc.Y), k(kc.U), k(kc.I), k(kc.O), k(kc.P), k(kc.LBracket)},
				{k(kc.RBracket), k(kc.A), k(kc.S), k(kc.D), k(kc.F), k(kc.G), k(kc.H), k(kc.J), k(kc.K), k(kc.L), k(kc.SColon), k(kc.Quote)},
				{k(kc.Equal), k(kc.Z), k(kc.X), k(kc.C), k(kc.V), k(kc.B), k(kc.N), k(kc.M), k(kc.Comma), k(kc.Dot), k(kc.Slash), k(kc.Bslash)},
				{t, t, k(kc.LGui), k(kc.LAlt), l1Space, k(kc.LCtrl), k(kc.RShift), l2Enter, k(kc.RAlt), k(kc.BSpace), t, t},
			},
			{
				{k(kc.F1), k(kc.F2), k(kc.F3), k(kc.F4), k(kc.F5), k(kc.F6), k(kc.F7), k(kc.F8), k(kc.F9), k(kc.F10), k(kc.F11), k(kc.F12)},
				{t, k(kc.Pause), t, k(kc.PScreen), t, t, t, k(kc.BSpace), k(kc.Delete), t, t, t},
				{t, t, altNL, ctrlIns, shiftEsc, t, k(kc.CapsLock), k(kc.Left), k(kc.Down), k(kc.Up), k(kc.Right), t},
				{k(kc.NonUsBslash), k(kc.Undo), cutKeys, copyKeys, pasteKeys, t, t, k(kc.Home), k(kc.PgDown), k(kc.PgUp), k(kc.End), t},
				{t, t, t, t, t, t, t, t, t, t, t, t},
			},
			{
				{t, t, t, t, t, t, t, t, t, t, t, t},
				{s(kc.Grave), s(kc.Kb1), s(kc.Kb2), s(kc.Kb3), s(kc.Kb4), s(kc.Kb5), s(kc.Kb6), s(kc.Kb7), s(kc.Kb8), s(kc.Kb9), s(kc.Kb0), s(kc.Minus)},
				{k(kc.Grave), k(kc.Kb1), k(kc.Kb2), k(kc.Kb3), k(kc.Kb4), k(kc.Kb5), k(kc.Kb6), k(kc.Kb7), k(kc.Kb8), k(kc.Kb9), k(kc.Kb0), k(kc.Minus)},
				{a(kc.Grave), a(kc.Kb1), a(kc.Kb2), a(kc.Kb3), a(kc.Kb4), a(kc.Kb5), a(kc.Kb6), a(kc.Kb7), a(kc.Kb8), a(kc.Kb9), a(kc.Kb0), a(kc.Minus)},
				{t, t, t, t, cspace, t, t, t, t, t, t, t},
			},
			{
				{t, t, t, t, t, t, t, t, t, t, t, t},
				{k(kc.F1), k(kc.F2), k(kc.F3), k(kc.F4), k(kc.F5), k(kc.F6), k(kc.F7), k(kc.F8), k(kc.F9), k(kc.F10), k(kc.F11), k(kc.F12)},
				{t, t, t, t, t, t, t, t, t, t, t, t},
				{reset, t, t, t, t, t, t, t, t, t, t, t},
				{t, t, t, t, t, t, t, t, t, t, t, t},
			},
		},
	}
}
