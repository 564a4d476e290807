package report

import "strings"

// LEDs is the keyboard LED output report sent by the host.
type LEDs uint8

// Keyboard LED bits.
const (
	NumLock LEDs = 1 << iota
	CapsLock
	ScrollLock
	Compose
	Kana
)

var ledNames = [...]string{"num", "caps", "scroll", "compose", "kana"}

// Has reports whether every LED in f is lit.
func (l LEDs) Has(f LEDs) bool { return l&f == f }

// String lists the lit LEDs, e.g. "num|caps", or "none".
func (l LEDs) String() string {
	var b strings.Builder
	for i, name := range ledNames {
		if l&(1<<i) == 0 {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('|')
		}
		b.WriteString(name)
	}
	if b.Len() == 0 {
		return "none"
	}
	return b.String()
}
