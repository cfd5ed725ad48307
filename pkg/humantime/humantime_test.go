package humantime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := map[string]time.Duration{
		"30s":   30 * time.Second,
		"5m":    5 * time.Minute,
		"1h":    time.Hour,
		"2d":    48 * time.Hour,
		"1w":    7 * 24 * time.Hour,
		"1h30m": 90 * time.Minute,
		"1d12h": 36 * time.Hour,
	}
	for input, want := range cases {
		got, err := Parse(input)
		require.NoErrorf(t, err, "Parse(%q)", input)
		assert.Equalf(t, want, got, "Parse(%q)", input)
	}
}

func TestParseInvalid(t *testing.T) {
	for _, input := range []string{"", "10", "5x", "h5"} {
		_, err := Parse(input)
		assert.Errorf(t, err, "Parse(%q) expected error", input)
	}
}
