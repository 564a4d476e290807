// Command softkbd runs a keyboard firmware on a Linux single-board computer.
//
// The key matrix is wired to GPIO lines: rows are driven one at a time and
// columns are read back. Reports reach the host through a USB HID gadget
// (/dev/hidgN), a UART HID bridge, or a pair of named pipes for running
// against a host-side tool without USB hardware.
//
// Usage:
//
//	softkbd [options]
//
// Options:
//
//	-v                    Enable verbose (debug) logging
//	-json                 Use JSON log format
//	-rows pins            Comma-separated row GPIO names
//	-cols pins            Comma-separated column GPIO names
//	-active-high          Drive rows high and pull columns down
//	-tick duration        Pipeline tick period (default: 1ms)
//	-poll duration        Host poll period (default: 1ms)
//	-debounce n           Consecutive scans to accept a change (default: 5)
//	-overflow policy      keep-first or rollover (default: keep-first)
//	-keymap file          Load a CBOR keymap instead of the built-in one
//	-dump-keymap file     Write the built-in keymap to file and exit
//	-transport name       gadget, serial or fifo (default: gadget)
//	-hidg path            HID gadget device (default: /dev/hidg0)
//	-gadget               Create and bind the configfs gadget first
//	-serial dev           Serial bridge device (default: autodetect)
//	-baud rate            Serial bridge baud rate (default: 9600)
//	-fifo dir             FIFO transport directory (default: /tmp/softkbd)
//
// Releasing the Custom "reset" key restarts the firmware.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/ardnew/softkbd/keyboard"
	"github.com/ardnew/softkbd/keymap"
	"github.com/ardnew/softkbd/layout"
	"github.com/ardnew/softkbd/matrix"
	"github.com/ardnew/softkbd/pkg"
	"github.com/ardnew/softkbd/report"
	"github.com/ardnew/softkbd/transport"
)

// component identifies this executable for structured logging.
const component = pkg.ComponentKeyboard

// Default pin assignment of the 5x13 board on a Raspberry Pi header.
const (
	defaultRows = "GPIO24,GPIO25,GPIO8,GPIO7,GPIO12"
	defaultCols = "GPIO2,GPIO3,GPIO4,GPIO17,GPIO27,GPIO22,GPIO10,GPIO9,GPIO11,GPIO16,GPIO20,GPIO21,GPIO23"
)

func main() {
	verbose := flag.Bool("v", false, "enable verbose (debug) logging")
	jsonLog := flag.Bool("json", false, "use JSON log format")
	rowNames := flag.String("rows", defaultRows, "comma-separated row GPIO names")
	colNames := flag.String("cols", defaultCols, "comma-separated column GPIO names")
	activeHigh := flag.Bool("active-high", false, "drive rows high and pull columns down")
	tick := flag.Duration("tick", keyboard.DefaultTickPeriod, "pipeline tick period")
	poll := flag.Duration("poll", keyboard.DefaultPollPeriod, "host poll period")
	cycles := flag.Uint("debounce", 5, "consecutive scans to accept a change")
	overflow := flag.String("overflow", report.KeepFirst.String(), "report overflow policy (keep-first, rollover)")
	keymapFile := flag.String("keymap", "", "CBOR keymap file")
	dumpKeymap := flag.String("dump-keymap", "", "write the built-in keymap to `file` and exit")
	transportName := flag.String("transport", "gadget", "host transport (gadget, serial, fifo)")
	hidg := flag.String("hidg", "/dev/hidg0", "HID gadget device")
	setupGadget := flag.Bool("gadget", false, "create and bind the configfs HID gadget")
	serialDev := flag.String("serial", "", "serial bridge device")
	baud := flag.Int("baud", transport.DefaultBaud, "serial bridge baud rate")
	fifoDir := flag.String("fifo", "/tmp/softkbd", "FIFO transport directory")
	flag.Parse()

	if *verbose {
		pkg.SetLogLevel(slog.LevelDebug)
	}
	if *jsonLog {
		pkg.SetLogFormat(pkg.LogFormatJSON)
	}

	if *dumpKeymap != "" {
		if err := keymap.Save(*dumpKeymap, keymap.Default(*tick), *tick); err != nil {
			pkg.LogError(component, "failed to write keymap", "error", err)
			os.Exit(1)
		}
		pkg.LogInfo(component, "keymap written", "path", *dumpKeymap)
		return
	}

	cfg := keyboard.DefaultConfig()
	cfg.TickPeriod = *tick
	cfg.PollPeriod = *poll
	cfg.ActiveHigh = *activeHigh
	if *cycles == 0 || *cycles > 255 {
		pkg.LogError(component, "invalid debounce cycles", "debounce", *cycles)
		os.Exit(1)
	}
	cfg.DebounceCycles = uint8(*cycles)
	policy, err := report.ParseOverflow(*overflow)
	if err != nil {
		pkg.LogError(component, "invalid overflow policy", "error", err)
		os.Exit(1)
	}
	cfg.Overflow = policy

	km := keymap.Default(cfg.TickPeriod)
	if *keymapFile != "" {
		if km, err = keymap.Load(*keymapFile, cfg.TickPeriod); err != nil {
			pkg.LogError(component, "failed to load keymap", "error", err)
			os.Exit(1)
		}
	}

	if _, err := host.Init(); err != nil {
		pkg.LogError(component, "failed to initialize host drivers", "error", err)
		os.Exit(1)
	}
	scanner, err := openMatrix(splitNames(*rowNames), splitNames(*colNames), &cfg)
	if err != nil {
		pkg.LogError(component, "failed to open matrix", "error", err)
		os.Exit(1)
	}
	if km.Rows > cfg.Rows || km.Cols > cfg.Cols {
		pkg.LogWarn(component, "keymap is larger than the matrix",
			"keymap", fmt.Sprintf("%dx%d", km.Rows, km.Cols),
			"matrix", fmt.Sprintf("%dx%d", cfg.Rows, cfg.Cols))
	}

	t, err := openTransport(*transportName, *hidg, *setupGadget, *serialDev, *baud, *fifoDir)
	if err != nil {
		pkg.LogError(component, "failed to open transport", "error", err)
		os.Exit(1)
	}
	defer t.Close()

	kb, err := keyboard.New(cfg, scanner, km.Layers, t)
	if err != nil {
		pkg.LogError(component, "invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	restart := false
	kb.SetOnCustom(func(ev layout.CustomEvent) {
		if isReset(ev) {
			pkg.LogInfo(component, "reset requested")
			restart = true
			cancel()
		}
	})

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		pkg.LogInfo(component, "shutting down")
		cancel()
	}()

	if err := kb.Run(ctx); err != nil {
		pkg.LogError(component, "keyboard stopped", "error", err)
		os.Exit(1)
	}
	if restart {
		t.Close()
		if err := reexec(); err != nil {
			pkg.LogError(component, "restart failed", "error", err)
			os.Exit(1)
		}
	}
}

// openMatrix resolves the row and column pins and sets the matrix size in
// cfg to match.
func openMatrix(rowNames, colNames []string, cfg *keyboard.Config) (*matrix.Scanner, error) {
	rows := make([]gpio.PinOut, len(rowNames))
	for i, name := range rowNames {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("row pin %q not found", name)
		}
		rows[i] = p
	}
	cols := make([]gpio.PinIn, len(colNames))
	for i, name := range colNames {
		p := gpioreg.ByName(name)
		if p == nil {
			return nil, fmt.Errorf("column pin %q not found", name)
		}
		cols[i] = p
	}
	cfg.Rows, cfg.Cols = len(rows), len(cols)
	return matrix.NewScanner(rows, cols, cfg.ScannerOptions())
}

// hostTransport is a report transport that can be closed.
type hostTransport interface {
	report.Transport
	io.Closer
}

func openTransport(name, hidg string, setup bool, serialDev string, baud int, fifoDir string) (hostTransport, error) {
	switch name {
	case "gadget":
		if setup {
			path, err := transport.SetupGadget(transport.ConfigfsRoot, transport.DefaultGadgetConfig())
			if err != nil {
				return nil, err
			}
			hidg = path
		}
		g, err := transport.OpenGadget(hidg, transport.DefaultWriteTimeout)
		if err != nil {
			return nil, err
		}
		return g, nil
	case "serial":
		s, err := transport.OpenSerial(serialDev, baud)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "fifo":
		s, err := transport.OpenFIFO(fifoDir, transport.DefaultWriteTimeout)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown transport %q: %w", name, pkg.ErrInvalidConfig)
	}
}

// splitNames splits a comma-separated list, dropping empty entries.
func splitNames(s string) []string {
	var names []string
	for _, name := range strings.Split(s, ",") {
		if name = strings.TrimSpace(name); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// isReset reports whether ev is the release of the reset key.
func isReset(ev layout.CustomEvent) bool {
	v, ok := ev.Value.(string)
	return ev.Kind == layout.CustomRelease && ok && v == keymap.ResetValue
}

// reexec replaces the process with a fresh copy of itself.
func reexec() error {
	bin, err := os.Executable()
	if err != nil {
		return err
	}
	pkg.LogInfo(component, "restarting", "path", bin)
	if err := unix.Exec(bin, os.Args, os.Environ()); err != nil {
		return fmt.Errorf("exec %s: %w", bin, err)
	}
	return nil
}
