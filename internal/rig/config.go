package rig

import (
	"time"

	"github.com/watchrig/rig/pkg/rigerr"
)

// Config holds the rig-level settings shared by every monitor and action:
// polling interval, trigger delay, and repeat semantics for repeatable
// actions.
type Config struct {
	// Interval is the rig's configured polling period. It is validated and
	// reported by Describe; the built-in monitors do not read it and poll
	// on their own fixed periods.
	Interval time.Duration
	// Delay is how long the rig waits after the trigger race resolves as
	// triggered before it runs the actions.
	Delay time.Duration
	// Repeat is how many additional times a repeatable action re-runs
	// Trigger after its first invocation. Zero means run once.
	Repeat int
	// RepeatDelay is the pause between repeated Trigger invocations.
	RepeatDelay time.Duration
	// NoArchive, when true, skips archive creation entirely; the tmpdir
	// is still removed on teardown.
	NoArchive bool
	// TmpDir is the rig's private scratch directory. Empty falls back to
	// a directory under os.TempDir() named after the rig.
	TmpDir string
}

// Default returns a Config with conservative defaults: a 5 second poll
// interval, no delay, and single-shot repeatable actions.
func Default() Config {
	return Config{
		Interval:    5 * time.Second,
		Delay:       0,
		Repeat:      0,
		RepeatDelay: 0,
		NoArchive:   false,
	}
}

// Validate checks the config for internally inconsistent values.
func (c Config) Validate() error {
	if c.Interval <= 0 {
		return rigerr.New(rigerr.Configuration, "rig.Config.Validate", errInvalidInterval)
	}
	if c.Delay < 0 {
		return rigerr.New(rigerr.Configuration, "rig.Config.Validate", errNegativeDelay)
	}
	if c.Repeat < 0 {
		return rigerr.New(rigerr.Configuration, "rig.Config.Validate", errNegativeRepeat)
	}
	if c.Repeat > 0 && c.RepeatDelay < 0 {
		return rigerr.New(rigerr.Configuration, "rig.Config.Validate", errNegativeRepeatDelay)
	}
	return nil
}
