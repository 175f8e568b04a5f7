// Package cliopts parses the small set of non-standard flag value grammars
// the daemon's command line needs: byte counts with K/M/G suffixes and
// flush-timing durations that also accept "never". Neither grammar is
// something encoding/flag's own value types handle, and nothing in the
// retrieval pack brings a flags library whose value parsing covers them
// either, so these stay hand-rolled the way the original CLI's own
// num_bytes/timing helpers were.
package cliopts

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	kibibyte = 1024
	mebibyte = kibibyte * 1024
	gibibyte = mebibyte * 1024
)

// NumBytes is a byte count parsed from a flag value like "512", "64K",
// "256M", or "1G".
type NumBytes uint64

// ParseNumBytes parses s as a plain integer or one suffixed with K, M, or G
// (powers of 1024).
func ParseNumBytes(s string) (NumBytes, error) {
	mult := uint64(1)
	digits := s
	if len(s) > 0 {
		switch s[len(s)-1] {
		case 'G', 'g':
			mult, digits = gibibyte, s[:len(s)-1]
		case 'M', 'm':
			mult, digits = mebibyte, s[:len(s)-1]
		case 'K', 'k':
			mult, digits = kibibyte, s[:len(s)-1]
		}
	}
	n, err := strconv.ParseUint(digits, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid byte count %q: %w", s, err)
	}
	return NumBytes(n * mult), nil
}

// String renders back in the largest suffix that divides evenly, mostly
// useful for diagnostics.
func (n NumBytes) String() string {
	switch {
	case n != 0 && n%gibibyte == 0:
		return fmt.Sprintf("%dG", n/gibibyte)
	case n != 0 && n%mebibyte == 0:
		return fmt.Sprintf("%dM", n/mebibyte)
	case n != 0 && n%kibibyte == 0:
		return fmt.Sprintf("%dK", n/kibibyte)
	default:
		return strconv.FormatUint(uint64(n), 10)
	}
}

// ParseTiming parses "never" or a duration like "30s", "5m", "1h" into a
// whole number of seconds, with never represented as -1 — a negative value,
// the same sentinel wal.Options.FlushInterval uses for "don't proactively
// sync" once converted to a duration.
func ParseTiming(s string) (int64, error) {
	if s == "never" {
		return -1, nil
	}
	if len(s) < 2 {
		return 0, fmt.Errorf("invalid timing %q: valid examples are \"never\", \"12s\", \"30m\", \"1h\"", s)
	}
	unit := s[len(s)-1]
	var secondsPerUnit int64
	switch unit {
	case 's':
		secondsPerUnit = 1
	case 'm':
		secondsPerUnit = 60
	case 'h':
		secondsPerUnit = 60 * 60
	default:
		return 0, fmt.Errorf("invalid timing %q: valid examples are \"never\", \"12s\", \"30m\", \"1h\"", s)
	}
	n, err := strconv.ParseInt(strings.TrimSuffix(s, string(unit)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid timing %q: %w", s, err)
	}
	return n * secondsPerUnit, nil
}
