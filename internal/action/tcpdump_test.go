package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchrig/rig/pkg/rigerr"
)

func TestTcpdumpRequiresInterface(t *testing.T) {
	td := NewTcpdump()
	err := td.Configure(map[string]any{"filter": "tcp port 443"})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error, got %v", err)
}

func TestTcpdumpConfigureStoresInterfaceAndFilter(t *testing.T) {
	td := NewTcpdump().(*Tcpdump)
	require.NoError(t, td.Configure(map[string]any{"interface": "eth0", "filter": "tcp port 443"}))
	assert.Equal(t, "eth0", td.iface)
	assert.Equal(t, "tcp port 443", td.filter)
}
