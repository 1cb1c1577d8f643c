// Package xtime extends time.Duration parsing and formatting with day and
// week units.
package xtime

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Extra duration units.
const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var componentRx = regexp.MustCompile(`(\d*\.\d+|\d+)([a-zA-Zµ]+)`)

// ParseDuration parses a duration string. It accepts everything
// time.ParseDuration does, plus the units "d" and "w", e.g. "1w2d" or "1.5d12h".
func ParseDuration(s string) (time.Duration, error) {
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}

	orig := s
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	matches := componentRx.FindAllStringSubmatch(s, -1)
	covered := 0
	for _, m := range matches {
		covered += len(m[0])
	}
	if len(matches) == 0 || covered != len(s) {
		return 0, fmt.Errorf("invalid duration '%s'", orig)
	}

	var total time.Duration
	for _, m := range matches {
		num, unit := m[1], m[2]
		var mult time.Duration
		switch unit {
		case "d", "D":
			mult = Day
		case "w", "W":
			mult = Week
		default:
			d, err := time.ParseDuration(num + unit)
			if err != nil {
				return 0, fmt.Errorf("invalid duration '%s': %w", orig, err)
			}
			total += d
			continue
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration '%s': %w", orig, err)
		}
		total += time.Duration(f * float64(mult))
	}

	if neg {
		total = -total
	}

	return total, nil
}

// FormatDuration formats d using the units accepted by ParseDuration, after
// rounding it to round. Units smaller than round are omitted, e.g.
// FormatDuration(50*time.Hour+20*time.Second, time.Minute) returns "2d2h".
func FormatDuration(d, round time.Duration) string {
	if round > 0 {
		d = d.Round(round)
	}
	if d == 0 {
		return "0s"
	}

	var sb strings.Builder
	if d < 0 {
		sb.WriteByte('-')
		d = -d
	}

	units := []struct {
		unit time.Duration
		sym  string
	}{
		{Week, "w"},
		{Day, "d"},
		{time.Hour, "h"},
		{time.Minute, "m"},
		{time.Second, "s"},
		{time.Millisecond, "ms"},
	}
	for _, u := range units {
		if d < u.unit || round > u.unit {
			continue
		}
		fmt.Fprintf(&sb, "%d%s", d/u.unit, u.sym)
		d %= u.unit
	}
	if d > 0 && round < time.Millisecond {
		sb.WriteString(d.String())
	}

	return sb.String()
}
