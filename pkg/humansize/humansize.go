// Package humansize parses and formats binary-suffixed byte sizes
// (K/M/G/T/P, base 1024) as used by the filesystem monitor's size
// thresholds.
package humansize

import (
	"fmt"
	"strconv"
	"strings"
)

var suffixes = map[byte]float64{
	'K': 1 << 10,
	'M': 1 << 20,
	'G': 1 << 30,
	'T': 1 << 40,
	'P': 1 << 50,
}

// Parse converts a string like "500M" or "2G" or a bare byte count like
// "1024" into a number of bytes.
func Parse(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("humansize: empty size")
	}

	last := s[len(s)-1]
	if mult, ok := suffixes[strings.ToUpper(string(last))[0]]; ok {
		numPart := strings.TrimSpace(s[:len(s)-1])
		n, err := strconv.ParseFloat(numPart, 64)
		if err != nil {
			return 0, fmt.Errorf("humansize: invalid size %q: %w", s, err)
		}
		if n < 0 {
			return 0, fmt.Errorf("humansize: negative size %q", s)
		}
		return uint64(n * mult), nil
	}

	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("humansize: invalid size %q: %w", s, err)
	}
	return n, nil
}

// Format renders n bytes using the largest suffix that keeps the integer
// part in [1, 1024).
func Format(n uint64) string {
	order := []byte{'P', 'T', 'G', 'M', 'K'}
	for _, s := range order {
		mult := suffixes[s]
		if float64(n) >= mult {
			return fmt.Sprintf("%.1f%c", float64(n)/mult, s)
		}
	}
	return fmt.Sprintf("%dB", n)
}
