// Package layout turns settled key events into active key codes.
//
// A [Layout] is built from [Layers], a stack of key tables indexed by layer,
// row and column. Layer 0 is the base; pressing a key looks up the highest
// active layer whose cell is not [Trans]. [Layer] actions activate a layer
// while held, and [DefaultLayer] replaces the base layer.
//
// # Hold-Tap
//
// A [HoldTap] key acts as its Hold action when held past its timeout and as
// its Tap action when released earlier. The [HoldTapConfig] decides whether
// other keys pressed in the meantime resolve it early:
//
//	l2Enter := layout.HoldTap{
//	    Timeout: 200,
//	    Config:  layout.HoldOnOtherKeyPress,
//	    Hold:    layout.L(2),
//	    Tap:     layout.K(keycode.Enter),
//	}
//
// Timeouts are counted in ticks, so changing the tick rate requires
// rescaling them; see the keymap package.
//
// # Tick Protocol
//
// The caller feeds events with [Layout.Event], then calls [Layout.Tick] once
// per tick and reads [Layout.KeyCodes]:
//
//	for e := range debouncer.Events(scanner.Scan()) {
//	    l.Event(e)
//	}
//	if ev := l.Tick(); ev.Kind == layout.CustomRelease {
//	    // handle the custom action
//	}
//	report := assembler.Build(l.KeyCodes())
//
// # Fixed Capacity
//
// Key states and the event queue live in fixed-size arrays ([MaxStates],
// [MaxQueued]), so a Layout's memory use is fixed once New returns.
package layout
