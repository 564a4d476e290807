package layout

import (
	"fmt"
	"iter"

	"github.com/ardnew/softkbd/keycode"
	"github.com/ardnew/softkbd/matrix"
	"github.com/ardnew/softkbd/pkg"
)

// Capacity limits.
const (
	// MaxStates is the number of simultaneously active key states (key
	// codes, held layers and custom actions). Further states are dropped.
	MaxStates = 64

	// MaxQueued is the number of events that may wait behind a pending
	// HoldTap.
	MaxQueued = 64
)

// CustomKind tells whether a Custom action was pressed or released.
type CustomKind uint8

// Custom event kinds.
const (
	CustomNone CustomKind = iota
	CustomPress
	CustomRelease
)

// CustomEvent reports a change of a Custom action. The zero value means no
// change.
type CustomEvent struct {
	Kind  CustomKind
	Value any
}

type stateKind uint8

const (
	stateKey stateKind = iota + 1
	stateLayer
	stateCustom
)

// keyState is an active effect of a pressed coordinate. States created by
// a tap live for one tick.
type keyState struct {
	kind  stateKind
	coord matrix.Coordinate
	code  keycode.KeyCode
	layer int
	value any
	tap   bool
}

// waitingState is a HoldTap that has not resolved yet.
type waitingState struct {
	coord   matrix.Coordinate
	elapsed uint32
	action  HoldTap
	depth   int
}

// tapRecord remembers the last resolved tap for TapHoldInterval.
type tapRecord struct {
	coord matrix.Coordinate
	since uint32
	valid bool
}

// Layout resolves settled key events into active key codes through a stack
// of layers.
//
// Events are queued by Event and applied by Tick, one step per tick: a
// pending HoldTap is resolved first, otherwise the oldest queued event is
// processed. Events behind a pending HoldTap wait until it resolves, so the
// output order always matches the order keys were pressed.
type Layout struct {
	layers       Layers
	rows, cols   int
	defaultLayer int

	states  [MaxStates]keyState
	nstates int

	queue  [MaxQueued]matrix.Event
	nqueue int

	waiting   waitingState
	isWaiting bool

	lastTap tapRecord
	custom  CustomEvent
}

// New validates layers against a rows by cols matrix and returns a Layout
// with layer 0 as the default layer.
func New(layers Layers, rows, cols int) (*Layout, error) {
	if rows <= 0 || rows > matrix.MaxRows || cols <= 0 || cols > matrix.MaxCols {
		return nil, fmt.Errorf("layout %dx%d: %w", rows, cols, pkg.ErrInvalidDimensions)
	}
	if err := layers.Validate(rows, cols); err != nil {
		return nil, err
	}
	pkg.LogDebug(pkg.ComponentLayout, "layout loaded",
		"layers", len(layers),
		"rows", rows,
		"cols", cols)
	return &Layout{layers: layers, rows: rows, cols: cols}, nil
}

// Event queues a settled event. It takes effect on a later call to Tick.
//
// If the queue is full, a pending HoldTap is forced to hold and the oldest
// event is applied immediately to make room.
func (l *Layout) Event(e matrix.Event) {
	if !e.Coord.In(l.rows, l.cols) {
		pkg.LogWarn(pkg.ComponentLayout, "event dropped",
			"error", fmt.Errorf("%v outside %dx%d matrix: %w", e, l.rows, l.cols, pkg.ErrInvalidCoordinate))
		return
	}
	if l.nqueue == MaxQueued {
		pkg.LogWarn(pkg.ComponentLayout, "event queue full, forcing resolution", "queued", l.nqueue)
		for l.nqueue == MaxQueued {
			l.step(true)
		}
	}
	l.queue[l.nqueue] = e
	l.nqueue++
}

// Tick advances the layout by one tick and returns the first Custom action
// change of this tick, if any. Key codes produced by a tap last until the
// next Tick.
func (l *Layout) Tick() CustomEvent {
	l.removeTaps()
	if l.lastTap.valid && l.lastTap.since < ^uint32(0) {
		l.lastTap.since++
	}
	if l.isWaiting {
		l.waiting.elapsed++
	}
	l.step(false)

	ev := l.custom
	l.custom = CustomEvent{}
	return ev
}

// KeyCodes returns the active key codes in the order they were pressed.
// The sequence reflects the state as of the last Tick.
func (l *Layout) KeyCodes() iter.Seq[keycode.KeyCode] {
	return func(yield func(keycode.KeyCode) bool) {
		for i := 0; i < l.nstates; i++ {
			s := &l.states[i]
			if s.kind != stateKey {
				continue
			}
			if !yield(s.code) {
				return
			}
		}
	}
}

// ActiveLayer returns the highest active layer.
func (l *Layout) ActiveLayer() int {
	top := l.defaultLayer
	for i := 0; i < l.nstates; i++ {
		if s := &l.states[i]; s.kind == stateLayer && s.layer > top {
			top = s.layer
		}
	}
	return top
}

// DefaultLayer returns the current base layer.
func (l *Layout) DefaultLayer() int { return l.defaultLayer }

// Pending reports whether a HoldTap is waiting for resolution.
func (l *Layout) Pending() bool { return l.isWaiting }

// Queued returns the number of events waiting to be applied.
func (l *Layout) Queued() int { return l.nqueue }

// step performs one unit of work: resolve the pending HoldTap, or apply the
// oldest queued event. With force set a pending HoldTap always resolves.
func (l *Layout) step(force bool) {
	if l.isWaiting {
		if force {
			l.resolveHold()
		} else {
			l.resolve()
		}
		return
	}
	if l.nqueue == 0 {
		return
	}
	e := l.queue[0]
	l.dequeue(0)
	switch e.Kind {
	case matrix.Press:
		l.do(l.actionAt(e.Coord), e.Coord, 0, false)
	case matrix.Release:
		l.release(e.Coord)
	}
}

// resolve decides the pending HoldTap from the elapsed time and the queued
// events, in queue order.
func (l *Layout) resolve() {
	w := &l.waiting
	if w.elapsed >= uint32(w.action.Timeout) {
		l.resolveHold()
		return
	}
	for i := 0; i < l.nqueue; i++ {
		e := l.queue[i]
		if e.Coord == w.coord {
			if e.Kind == matrix.Release {
				l.resolveTap()
				return
			}
			continue
		}
		switch w.action.Config {
		case HoldOnOtherKeyPress:
			if e.Kind == matrix.Press {
				l.resolveHold()
				return
			}
		case PermissiveHold:
			if e.Kind == matrix.Release && l.queuedPress(e.Coord, i) {
				l.resolveHold()
				return
			}
		}
	}
}

// queuedPress reports whether a press of c is queued before index end.
func (l *Layout) queuedPress(c matrix.Coordinate, end int) bool {
	for i := 0; i < end; i++ {
		if l.queue[i].Coord == c && l.queue[i].Kind == matrix.Press {
			return true
		}
	}
	return false
}

func (l *Layout) resolveHold() {
	w := l.waiting
	l.isWaiting = false
	pkg.LogDebug(pkg.ComponentLayout, "hold-tap resolved",
		"coord", w.coord,
		"outcome", "hold",
		"elapsed", w.elapsed)
	l.do(w.action.Hold, w.coord, w.depth+1, false)
}

// resolveTap performs the tap action. Its states are removed at the start of
// the next tick; the queued release of the key then has nothing to release.
func (l *Layout) resolveTap() {
	w := l.waiting
	l.isWaiting = false
	pkg.LogDebug(pkg.ComponentLayout, "hold-tap resolved",
		"coord", w.coord,
		"outcome", "tap",
		"elapsed", w.elapsed)
	l.lastTap = tapRecord{coord: w.coord, valid: true}
	l.do(w.action.Tap, w.coord, w.depth+1, true)
}

// actionAt returns the action of the highest active layer that is not
// transparent at c.
func (l *Layout) actionAt(c matrix.Coordinate) Action {
	for i := len(l.layers) - 1; i >= 0; i-- {
		if !l.layerActive(i) {
			continue
		}
		a := l.layers.At(i, int(c.Row), int(c.Col))
		if _, ok := a.(Trans); !ok {
			return a
		}
	}
	return NoOp{}
}

func (l *Layout) layerActive(layer int) bool {
	if layer == 0 || layer == l.defaultLayer {
		return true
	}
	for i := 0; i < l.nstates; i++ {
		if s := &l.states[i]; s.kind == stateLayer && s.layer == layer {
			return true
		}
	}
	return false
}

// do performs a on behalf of the key at c. released is set when the key is
// already up, which turns any nested HoldTap into its tap.
func (l *Layout) do(a Action, c matrix.Coordinate, depth int, released bool) {
	if depth > MaxDepth {
		return
	}
	switch a := a.(type) {
	case Key:
		l.push(keyState{kind: stateKey, coord: c, code: keycode.KeyCode(a), tap: released})
	case Macro:
		for _, k := range a {
			l.push(keyState{kind: stateKey, coord: c, code: k, tap: released})
		}
	case Multi:
		for _, sub := range a {
			l.do(sub, c, depth+1, released)
		}
	case Layer:
		l.push(keyState{kind: stateLayer, coord: c, layer: int(a), tap: released})
	case DefaultLayer:
		l.defaultLayer = int(a)
		pkg.LogDebug(pkg.ComponentLayout, "default layer changed", "layer", int(a))
	case HoldTap:
		switch {
		case released:
			l.do(a.Tap, c, depth+1, true)
		case a.TapHoldInterval > 0 && l.lastTap.valid && l.lastTap.coord == c &&
			l.lastTap.since < uint32(a.TapHoldInterval):
			l.do(a.Tap, c, depth+1, false)
		case l.isWaiting:
			// Only one HoldTap can wait at a time; a second one started by
			// the same action resolves to hold.
			l.do(a.Hold, c, depth+1, false)
		default:
			l.waiting = waitingState{coord: c, action: a, depth: depth}
			l.isWaiting = true
		}
	case Custom:
		l.push(keyState{kind: stateCustom, coord: c, value: a.Value, tap: released})
		l.emit(CustomPress, a.Value)
	}
}

// release removes every state owned by c, keeping the rest in press order.
func (l *Layout) release(c matrix.Coordinate) {
	l.remove(func(s *keyState) bool { return s.coord == c })
}

// removeTaps ends the states created by the previous tick's taps.
func (l *Layout) removeTaps() {
	l.remove(func(s *keyState) bool { return s.tap })
}

// remove drops the states matching drop, keeping the rest in press order.
func (l *Layout) remove(drop func(*keyState) bool) {
	n := 0
	for i := 0; i < l.nstates; i++ {
		s := l.states[i]
		if drop(&s) {
			if s.kind == stateCustom {
				l.emit(CustomRelease, s.value)
			}
			continue
		}
		l.states[n] = s
		n++
	}
	for i := n; i < l.nstates; i++ {
		l.states[i] = keyState{}
	}
	l.nstates = n
}

func (l *Layout) push(s keyState) {
	if l.nstates == MaxStates {
		pkg.LogWarn(pkg.ComponentLayout, "key state capacity reached, dropping", "coord", s.coord)
		return
	}
	l.states[l.nstates] = s
	l.nstates++
}

func (l *Layout) dequeue(i int) {
	copy(l.queue[i:l.nqueue], l.queue[i+1:l.nqueue])
	l.nqueue--
	l.queue[l.nqueue] = matrix.Event{}
}

func (l *Layout) emit(kind CustomKind, value any) {
	if l.custom.Kind != CustomNone {
		return
	}
	l.custom = CustomEvent{Kind: kind, Value: value}
}
