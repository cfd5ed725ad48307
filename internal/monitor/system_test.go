package monitor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/watchrig/rig/pkg/rigerr"
)

func TestSystemDefaultsToLoadMetric(t *testing.T) {
	s := NewSystem()
	require.NoError(t, s.Configure(map[string]any{"threshold": 2.5}))
	assert.Contains(t, s.Describe(), "load")
}

func TestSystemTemperatureRequiresSensor(t *testing.T) {
	s := NewSystem()
	err := s.Configure(map[string]any{"metric": "temperature", "threshold": 80})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error when sensor is missing, got %v", err)
}

func TestSystemAcceptsLoadThresholdAlias(t *testing.T) {
	s := NewSystem()
	err := s.Configure(map[string]any{"load_threshold": 1.5})
	assert.NoError(t, err)
}

func TestSystemRejectsUnknownMetric(t *testing.T) {
	s := NewSystem()
	err := s.Configure(map[string]any{"metric": "bogus", "threshold": 1})
	assert.Truef(t, rigerr.Is(err, rigerr.Configuration), "expected a Configuration error, got %v", err)
}
