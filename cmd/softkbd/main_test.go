package main

import (
	"errors"
	"slices"
	"testing"

	"github.com/ardnew/softkbd/keymap"
	"github.com/ardnew/softkbd/layout"
	"github.com/ardnew/softkbd/pkg"
)

func TestSplitNames(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"GPIO4", []string{"GPIO4"}},
		{"GPIO4, GPIO17,,GPIO27 ", []string{"GPIO4", "GPIO17", "GPIO27"}},
	}
	for _, tt := range tests {
		if got := splitNames(tt.in); !slices.Equal(got, tt.want) {
			t.Errorf("splitNames(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := splitNames(defaultRows); len(got) != keymap.DefaultRows {
		t.Errorf("default rows = %d pins, want %d", len(got), keymap.DefaultRows)
	}
	if got := splitNames(defaultCols); len(got) != keymap.DefaultCols {
		t.Errorf("default cols = %d pins, want %d", len(got), keymap.DefaultCols)
	}
}

func TestIsReset(t *testing.T) {
	tests := []struct {
		name string
		ev   layout.CustomEvent
		want bool
	}{
		{"release", layout.CustomEvent{Kind: layout.CustomRelease, Value: keymap.ResetValue}, true},
		{"press", layout.CustomEvent{Kind: layout.CustomPress, Value: keymap.ResetValue}, false},
		{"other value", layout.CustomEvent{Kind: layout.CustomRelease, Value: "macro"}, false},
		{"non-string", layout.CustomEvent{Kind: layout.CustomRelease, Value: 1}, false},
		{"none", layout.CustomEvent{}, false},
	}
	for _, tt := range tests {
		if got := isReset(tt.ev); got != tt.want {
			t.Errorf("isReset(%s) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestOpenTransport_Unknown(t *testing.T) {
	if _, err := openTransport("bluetooth", "", false, "", 0, ""); !errors.Is(err, pkg.ErrInvalidConfig) {
		t.Errorf("openTransport(bluetooth) error = %v, want %v", err, pkg.ErrInvalidConfig)
	}
}
