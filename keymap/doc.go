// Package keymap provides the built-in keyboard layout and reads and writes
// keymap files.
//
// # File Format
//
// A keymap file is a single CBOR map with integer keys:
//
//	1: version (uint, currently 1)
//	2: rows
//	3: columns
//	4: layers, an array of layers, each an array of rows of actions
//
// Each action is itself a map keyed by integers; key 1 holds the action
// kind. HoldTap timeouts are stored in milliseconds and converted to ticks
// when the file is decoded, so the same file works at any tick rate.
// Unknown fields are rejected.
package keymap
