package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchrig/rig/pkg/rigerr"
)

func TestMemoryDefaultsToUsedPercent(t *testing.T) {
	m := NewMemory()
	require.NoError(t, m.Configure(map[string]any{"threshold": 80}))
	assert.Contains(t, m.Describe(), "used_perc")
}

func TestMemoryUsedSizeRequiresHumanSizeThreshold(t *testing.T) {
	m := NewMemory()
	err := m.Configure(map[string]any{"metric": "used_size", "threshold": "2G"})
	require.NoError(t, err)

	m2 := NewMemory()
	err = m2.Configure(map[string]any{"metric": "used_size"})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error for a missing threshold, got %v", err)
}

func TestMemoryRejectsUnknownMetric(t *testing.T) {
	m := NewMemory()
	err := m.Configure(map[string]any{"metric": "bogus", "threshold": 10})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error, got %v", err)
}
