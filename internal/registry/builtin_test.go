package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltinMonitorsRegistered(t *testing.T) {
	for _, name := range []string{"log", "filesystem", "process", "cpu", "memory", "system", "packet", "timer"} {
		assert.Truef(t, Monitors.Has(name), "expected built-in monitor %q to be registered", name)
	}
}

func TestBuiltinActionsRegistered(t *testing.T) {
	for _, name := range []string{"gcore", "tcpdump", "sos", "watch", "kdump", "noop"} {
		assert.Truef(t, Actions.Has(name), "expected built-in action %q to be registered", name)
	}
}
