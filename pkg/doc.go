// Package pkg provides shared utilities for the softkbd firmware.
//
// This package contains common functionality used across the matrix,
// debounce, layout, report and transport packages, including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel error values for configuration and transport failures
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentLayout, "layout loaded", "layers", 4)
//
// # Errors
//
// Common errors are defined as sentinel values and wrapped with context:
//
//	if errors.Is(err, pkg.ErrBusy) {
//	    // Retry on the next tick
//	}
package pkg
