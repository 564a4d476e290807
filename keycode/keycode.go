// Package keycode defines USB HID keyboard usage IDs (Usage Page 0x07).
package keycode

// KeyCode is a keyboard/keypad usage ID.
type KeyCode uint8

// Reserved usages.
const (
	None           KeyCode = 0x00
	ErrorRollOver  KeyCode = 0x01
	PostFail       KeyCode = 0x02
	ErrorUndefined KeyCode = 0x03
)

// Letters, digits and the main block.
const (
	A KeyCode = 0x04 + iota
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z
	Kb1
	Kb2
	Kb3
	Kb4
	Kb5
	Kb6
	Kb7
	Kb8
	Kb9
	Kb0
	Enter
	Escape
	BSpace
	Tab
	Space
	Minus
	Equal
	LBracket
	RBracket
	Bslash
	NonUsHash
	SColon
	Quote
	Grave
	Comma
	Dot
	Slash
	CapsLock
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	PScreen
	ScrollLock
	Pause
	Insert
	Home
	PgUp
	Delete
	End
	PgDown
	Right
	Left
	Down
	Up
	NumLock
	KpSlash
	KpAsterisk
	KpMinus
	KpPlus
	KpEnter
	Kp1
	Kp2
	Kp3
	Kp4
	Kp5
	Kp6
	Kp7
	Kp8
	Kp9
	Kp0
	KpDot
	NonUsBslash
	Application
	Power
	KpEqual
	F13
	F14
	F15
	F16
	F17
	F18
	F19
	F20
	F21
	F22
	F23
	F24
	Execute
	Help
	Menu
	Select
	Stop
	Again
	Undo
	Cut
	Copy
	Paste
	Find
	Mute
	VolUp
	VolDown
)

// Modifiers. Their usages map one-to-one onto the bits of the report's
// modifier byte.
const (
	LCtrl KeyCode = 0xE0 + iota
	LShift
	LAlt
	LGui
	RCtrl
	RShift
	RAlt
	RGui
)

// IsModifier reports whether k is one of the eight modifier usages.
func (k KeyCode) IsModifier() bool {
	return k >= LCtrl && k <= RGui
}

// ModifierBit returns the bit of k in the modifier byte, or 0 if k is not a
// modifier.
func (k KeyCode) ModifierBit() uint8 {
	if !k.IsModifier() {
		return 0
	}
	return 1 << (k - LCtrl)
}

// IsReserved reports whether k is a reserved usage that never appears as a
// pressed key.
func (k KeyCode) IsReserved() bool {
	return k <= ErrorUndefined
}
