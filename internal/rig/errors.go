package rig

import "errors"

var (
	errInvalidInterval     = errors.New("interval must be positive")
	errNegativeDelay       = errors.New("delay must not be negative")
	errNegativeRepeat      = errors.New("repeat must not be negative")
	errNegativeRepeatDelay = errors.New("repeat_delay must not be negative")
	errNoMonitors          = errors.New("a rig requires at least one monitor")
	errNoActions           = errors.New("a rig requires at least one action")
	errNameTaken           = errors.New("a rig with this name is already running in this process")
)
