// Package humantime parses the rigfile's duration shorthand (e.g. "1h30m",
// "2d", "1w") into a time.Duration, extending time.ParseDuration with day
// and week units the stdlib doesn't support.
package humantime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var unitDurations = map[byte]time.Duration{
	's': time.Second,
	'm': time.Minute,
	'h': time.Hour,
	'd': 24 * time.Hour,
	'w': 7 * 24 * time.Hour,
}

// subSecondUnits are the two-byte units ("ms", "us", "ns") keyed by their
// first byte; each is followed by 's'.
var subSecondUnits = map[byte]time.Duration{
	'm': time.Millisecond,
	'u': time.Microsecond,
	'n': time.Nanosecond,
}

// Parse sums a sequence of <number><unit> tokens (e.g. "1d12h30m") into a
// single duration. Units may repeat; later occurrences simply add.
func Parse(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("humantime: empty duration")
	}

	var total time.Duration
	var numBuf strings.Builder
	consumed := false

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9' || c == '.':
			numBuf.WriteByte(c)
		default:
			unit, ok := unitDurations[c]
			if sub, isSub := subSecondUnits[c]; isSub && i+1 < len(s) && s[i+1] == 's' {
				unit, ok = sub, true
				i++
			}
			if !ok {
				return 0, fmt.Errorf("humantime: unknown unit %q in %q", string(c), s)
			}
			if numBuf.Len() == 0 {
				return 0, fmt.Errorf("humantime: missing number before unit %q in %q", string(c), s)
			}
			n, err := strconv.ParseFloat(numBuf.String(), 64)
			if err != nil {
				return 0, fmt.Errorf("humantime: invalid number in %q: %w", s, err)
			}
			total += time.Duration(n * float64(unit))
			numBuf.Reset()
			consumed = true
		}
	}

	if numBuf.Len() > 0 {
		return 0, fmt.Errorf("humantime: trailing number without unit in %q", s)
	}
	if !consumed {
		return 0, fmt.Errorf("humantime: no unit found in %q", s)
	}
	return total, nil
}
