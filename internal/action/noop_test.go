package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/watchrig/rig/pkg/rigerr"
)

func TestNoopRequiresEnabled(t *testing.T) {
	n := NewNoop()

	err := n.Configure(map[string]any{})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error when enabled is missing, got %v", err)

	err = n.Configure(map[string]any{"enabled": false})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error when enabled is false, got %v", err)

	err = n.Configure(map[string]any{"enabled": true})
	assert.NoError(t, err, "expected enabled=true to configure cleanly")
}
