package keyboard

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ardnew/softkbd/debounce"
	"github.com/ardnew/softkbd/layout"
	"github.com/ardnew/softkbd/matrix"
	"github.com/ardnew/softkbd/pkg"
	"github.com/ardnew/softkbd/report"
)

// Scanner samples the key matrix.
type Scanner interface {
	Scan() matrix.Frame
}

// Keyboard ties a scanner, debouncer, layout and report assembler together.
type Keyboard struct {
	cfg       Config
	scanner   Scanner
	debouncer *debounce.Debouncer
	layout    *layout.Layout
	assembler *report.Assembler

	onCustom func(layout.CustomEvent)

	// Statistics
	ticks    uint64
	overruns uint64

	leds report.LEDs

	mutex   sync.Mutex
	running bool
}

// New validates cfg and layers and returns a Keyboard reading from scanner
// and writing to t.
func New(cfg Config, scanner Scanner, layers layout.Layers, t report.Transport) (*Keyboard, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	d, err := debounce.New(cfg.Rows, cfg.Cols, cfg.DebounceCycles)
	if err != nil {
		return nil, err
	}
	l, err := layout.New(layers, cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	a := report.NewAssembler(t, report.AssemblerOptions{
		Retries:  cfg.SendRetries,
		Overflow: cfg.Overflow,
	})
	return &Keyboard{
		cfg:       cfg,
		scanner:   scanner,
		debouncer: d,
		layout:    l,
		assembler: a,
	}, nil
}

// SetOnCustom sets the callback invoked from the tick path when a Custom
// action is pressed or released.
func (k *Keyboard) SetOnCustom(cb func(layout.CustomEvent)) {
	k.onCustom = cb
}

// Layout returns the layout engine.
func (k *Keyboard) Layout() *layout.Layout { return k.layout }

// Assembler returns the report assembler.
func (k *Keyboard) Assembler() *report.Assembler { return k.assembler }

// Tick runs the pipeline once. A report the transport is too busy to take
// is not an error; it is sent on a later tick.
func (k *Keyboard) Tick() error {
	frame := k.scanner.Scan()
	for e := range k.debouncer.Events(frame) {
		if pkg.Enabled(slog.LevelDebug) {
			pkg.LogDebug(pkg.ComponentKeyboard, "key event", "event", e)
		}
		k.layout.Event(e)
	}
	if ev := k.layout.Tick(); ev.Kind != layout.CustomNone && k.onCustom != nil {
		k.onCustom(ev)
	}
	atomic.AddUint64(&k.ticks, 1)

	r := k.assembler.Build(k.layout.KeyCodes())
	if _, err := k.assembler.MaybeSend(r); err != nil && !errors.Is(err, pkg.ErrBusy) {
		return err
	}
	return nil
}

// Poll services host traffic once and reports whether there was any.
func (k *Keyboard) Poll() bool {
	activity, _ := k.assembler.Poll()
	if leds, ok := k.assembler.LEDs(); ok && leds != k.leds {
		pkg.LogInfo(pkg.ComponentKeyboard, "host LEDs changed", "leds", leds)
		k.leds = leds
	}
	return activity
}

// Run drives the tick and poll loops until ctx is cancelled or the
// transport is closed.
func (k *Keyboard) Run(ctx context.Context) error {
	k.mutex.Lock()
	if k.running {
		k.mutex.Unlock()
		return pkg.ErrAlreadyRunning
	}
	k.running = true
	k.mutex.Unlock()
	defer func() {
		k.mutex.Lock()
		k.running = false
		k.mutex.Unlock()
	}()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pkg.LogInfo(pkg.ComponentKeyboard, "keyboard started",
		"rows", k.cfg.Rows,
		"cols", k.cfg.Cols,
		"tick", k.cfg.TickPeriod,
		"debounce", k.cfg.DebounceCycles)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		k.pollLoop(ctx)
	}()

	err := k.tickLoop(ctx)
	cancel()
	wg.Wait()

	pkg.LogInfo(pkg.ComponentKeyboard, "keyboard stopped",
		"ticks", k.Ticks(),
		"overruns", k.Overruns())
	return err
}

func (k *Keyboard) tickLoop(ctx context.Context) error {
	ticker := time.NewTicker(k.cfg.TickPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			start := time.Now()
			err := k.Tick()
			if elapsed := time.Since(start); elapsed > k.cfg.TickPeriod {
				atomic.AddUint64(&k.overruns, 1)
				pkg.LogWarn(pkg.ComponentKeyboard, "tick overrun",
					"elapsed", elapsed,
					"period", k.cfg.TickPeriod)
			}
			if errors.Is(err, pkg.ErrClosed) {
				return err
			}
			if err != nil {
				pkg.LogWarn(pkg.ComponentKeyboard, "report send failed", "error", err)
			}
		}
	}
}

func (k *Keyboard) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(k.cfg.PollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			k.Poll()
		}
	}
}

// Ticks returns the number of completed ticks.
func (k *Keyboard) Ticks() uint64 { return atomic.LoadUint64(&k.ticks) }

// Overruns returns the number of ticks that exceeded the tick period.
func (k *Keyboard) Overruns() uint64 { return atomic.LoadUint64(&k.overruns) }
