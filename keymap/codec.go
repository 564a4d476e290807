package keymap

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/ardnew/softkbd/keycode"
	"github.com/ardnew/softkbd/layout"
	"github.com/ardnew/softkbd/pkg"
)

// Version is the keymap file format version.
const Version = 1

type file struct {
	Version uint             `cbor:"1,keyasint"`
	Rows    int              `cbor:"2,keyasint"`
	Cols    int              `cbor:"3,keyasint"`
	Layers  [][][]fileAction `cbor:"4,keyasint"`
}

type actionKind uint8

const (
	kindTrans actionKind = iota
	kindNoOp
	kindKey
	kindMacro
	kindMulti
	kindLayer
	kindDefaultLayer
	kindHoldTap
	kindCustom
)

type fileAction struct {
	Kind     actionKind   `cbor:"1,keyasint"`
	Keys     []uint8      `cbor:"2,keyasint,omitempty"`
	Layer    int          `cbor:"3,keyasint,omitempty"`
	Timeout  uint32       `cbor:"4,keyasint,omitempty"` // ms
	Config   uint8        `cbor:"5,keyasint,omitempty"`
	Interval uint32       `cbor:"6,keyasint,omitempty"` // ms
	Hold     *fileAction  `cbor:"7,keyasint,omitempty"`
	Tap      *fileAction  `cbor:"8,keyasint,omitempty"`
	Actions  []fileAction `cbor:"9,keyasint,omitempty"`
	Value    string       `cbor:"10,keyasint,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	em, err := cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	encMode = em
	dm, err := cbor.DecOptions{
		ExtraReturnErrors: cbor.ExtraDecErrorUnknownField,
	}.DecMode()
	if err != nil {
		panic(err)
	}
	decMode = dm
}

// Encode serializes km. HoldTap timeouts are converted from ticks of the
// given period to milliseconds. Custom values must be strings.
func Encode(km Keymap, tick time.Duration) ([]byte, error) {
	f := file{
		Version: Version,
		Rows:    km.Rows,
		Cols:    km.Cols,
		Layers:  make([][][]fileAction, len(km.Layers)),
	}
	for l, rows := range km.Layers {
		f.Layers[l] = make([][]fileAction, len(rows))
		for r, row := range rows {
			f.Layers[l][r] = make([]fileAction, len(row))
			for c, a := range row {
				fa, err := encodeAction(a, tick)
				if err != nil {
					return nil, fmt.Errorf("layer %d row %d col %d: %w", l, r, c, err)
				}
				f.Layers[l][r][c] = fa
			}
		}
	}
	return encMode.Marshal(f)
}

func encodeAction(a layout.Action, tick time.Duration) (fileAction, error) {
	switch a := a.(type) {
	case nil, layout.Trans:
		return fileAction{Kind: kindTrans}, nil
	case layout.NoOp:
		return fileAction{Kind: kindNoOp}, nil
	case layout.Key:
		return fileAction{Kind: kindKey, Keys: []uint8{uint8(a)}}, nil
	case layout.Macro:
		keys := make([]uint8, len(a))
		for i, k := range a {
			keys[i] = uint8(k)
		}
		return fileAction{Kind: kindMacro, Keys: keys}, nil
	case layout.Multi:
		fa := fileAction{Kind: kindMulti, Actions: make([]fileAction, len(a))}
		for i, sub := range a {
			enc, err := encodeAction(sub, tick)
			if err != nil {
				return fileAction{}, err
			}
			fa.Actions[i] = enc
		}
		return fa, nil
	case layout.Layer:
		return fileAction{Kind: kindLayer, Layer: int(a)}, nil
	case layout.DefaultLayer:
		return fileAction{Kind: kindDefaultLayer, Layer: int(a)}, nil
	case layout.HoldTap:
		hold, err := encodeAction(a.Hold, tick)
		if err != nil {
			return fileAction{}, fmt.Errorf("hold: %w", err)
		}
		tap, err := encodeAction(a.Tap, tick)
		if err != nil {
			return fileAction{}, fmt.Errorf("tap: %w", err)
		}
		return fileAction{
			Kind:     kindHoldTap,
			Timeout:  millis(a.Timeout, tick),
			Config:   uint8(a.Config),
			Interval: millis(a.TapHoldInterval, tick),
			Hold:     &hold,
			Tap:      &tap,
		}, nil
	case layout.Custom:
		v, ok := a.Value.(string)
		if !ok {
			return fileAction{}, fmt.Errorf("custom value %T is not a string: %w", a.Value, pkg.ErrInvalidKeymap)
		}
		return fileAction{Kind: kindCustom, Value: v}, nil
	default:
		return fileAction{}, fmt.Errorf("unsupported action %T: %w", a, pkg.ErrInvalidKeymap)
	}
}

// millis converts ticks into whole milliseconds, rounding up so that a
// non-zero tick count never encodes as zero.
func millis(ticks uint16, tick time.Duration) uint32 {
	d := Duration(ticks, tick)
	ms := (d + time.Millisecond - 1) / time.Millisecond
	if ms > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(ms)
}

// Decode parses and validates a keymap file. HoldTap timeouts are converted
// from milliseconds to ticks of the given period.
func Decode(data []byte, tick time.Duration) (Keymap, error) {
	var f file
	if err := decMode.Unmarshal(data, &f); err != nil {
		return Keymap{}, fmt.Errorf("decode keymap: %w: %w", err, pkg.ErrInvalidKeymap)
	}
	if f.Version != Version {
		return Keymap{}, fmt.Errorf("keymap version %d: %w", f.Version, pkg.ErrInvalidKeymap)
	}

	km := Keymap{Rows: f.Rows, Cols: f.Cols, Layers: make(layout.Layers, len(f.Layers))}
	for l, rows := range f.Layers {
		km.Layers[l] = make([][]layout.Action, len(rows))
		for r, row := range rows {
			km.Layers[l][r] = make([]layout.Action, len(row))
			for c := range row {
				a, err := decodeAction(&row[c], tick, 0)
				if err != nil {
					return Keymap{}, fmt.Errorf("layer %d row %d col %d: %w", l, r, c, err)
				}
				km.Layers[l][r][c] = a
			}
		}
	}
	if err := km.Validate(); err != nil {
		return Keymap{}, err
	}
	pkg.LogDebug(pkg.ComponentKeymap, "keymap decoded",
		"layers", len(km.Layers),
		"rows", km.Rows,
		"cols", km.Cols)
	return km, nil
}

func decodeAction(fa *fileAction, tick time.Duration, depth int) (layout.Action, error) {
	if depth >= layout.MaxDepth {
		return nil, pkg.ErrNestingTooDeep
	}
	switch fa.Kind {
	case kindTrans:
		return layout.Trans{}, nil
	case kindNoOp:
		return layout.NoOp{}, nil
	case kindKey:
		if len(fa.Keys) != 1 {
			return nil, fmt.Errorf("key action with %d key codes: %w", len(fa.Keys), pkg.ErrInvalidKeymap)
		}
		return layout.Key(fa.Keys[0]), nil
	case kindMacro:
		m := make(layout.Macro, len(fa.Keys))
		for i, k := range fa.Keys {
			m[i] = keycode.KeyCode(k)
		}
		return m, nil
	case kindMulti:
		m := make(layout.Multi, len(fa.Actions))
		for i := range fa.Actions {
			a, err := decodeAction(&fa.Actions[i], tick, depth+1)
			if err != nil {
				return nil, err
			}
			m[i] = a
		}
		return m, nil
	case kindLayer:
		return layout.Layer(fa.Layer), nil
	case kindDefaultLayer:
		return layout.DefaultLayer(fa.Layer), nil
	case kindHoldTap:
		if fa.Hold == nil || fa.Tap == nil {
			return nil, fmt.Errorf("hold-tap without hold or tap: %w", pkg.ErrInvalidKeymap)
		}
		hold, err := decodeAction(fa.Hold, tick, depth+1)
		if err != nil {
			return nil, fmt.Errorf("hold: %w", err)
		}
		tap, err := decodeAction(fa.Tap, tick, depth+1)
		if err != nil {
			return nil, fmt.Errorf("tap: %w", err)
		}
		ht := layout.HoldTap{
			Config: layout.HoldTapConfig(fa.Config),
			Hold:   hold,
			Tap:    tap,
		}
		// A zero timeout is left for validation to reject.
		if fa.Timeout > 0 {
			ht.Timeout = Ticks(time.Duration(fa.Timeout)*time.Millisecond, tick)
		}
		if fa.Interval > 0 {
			ht.TapHoldInterval = Ticks(time.Duration(fa.Interval)*time.Millisecond, tick)
		}
		return ht, nil
	case kindCustom:
		return layout.Custom{Value: fa.Value}, nil
	default:
		return nil, fmt.Errorf("action kind %d: %w", fa.Kind, pkg.ErrInvalidKeymap)
	}
}

// Load reads and decodes the keymap file at path.
func Load(path string, tick time.Duration) (Keymap, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Keymap{}, fmt.Errorf("read keymap: %w", err)
	}
	km, err := Decode(data, tick)
	if err != nil {
		return Keymap{}, fmt.Errorf("%s: %w", path, err)
	}
	pkg.LogInfo(pkg.ComponentKeymap, "keymap loaded", "path", path, "layers", len(km.Layers))
	return km, nil
}

// Save encodes km and writes it to path.
func Save(path string, km Keymap, tick time.Duration) error {
	data, err := Encode(km, tick)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
