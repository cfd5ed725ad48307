// Package monitor defines the Monitor contract and the canonical set of
// built-in monitors a rig can race against.
package monitor

import "context"

// Monitor watches one condition on the host and blocks until it either
// triggers, is cancelled, or fails.
type Monitor interface {
	// Name returns the monitor's registry key, e.g. "log" or "process".
	Name() string
	// Configure validates and applies the monitor's options. Missing or
	// invalid required keys are a configuration error; keys the monitor
	// does not use are ignored.
	Configure(opts map[string]any) error
	// Start blocks until the monitor resolves. A true result with a nil
	// error means the monitor triggered. A false result paired with
	// rigerr.ErrCancelled means the monitor resolved without triggering.
	// Any other non-nil error is an unexpected failure.
	Start(ctx context.Context) (bool, error)
	// Describe returns the monitor's human-readable "monitoring" text.
	Describe() string
}

// Factory constructs a fresh, unconfigured Monitor instance.
type Factory func() Monitor
