package xtime

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		exp    time.Duration
		expErr string
	}{
		{name: "ok/std", input: "30s", exp: 30 * time.Second},
		{name: "ok/std_mixed", input: "1h30m", exp: 90 * time.Minute},
		{name: "ok/days", input: "2d", exp: 48 * time.Hour},
		{name: "ok/weeks_days_hours", input: "1w2d3h", exp: Week + 2*Day + 3*time.Hour},
		{name: "ok/fractional_day", input: "1.5d", exp: 36 * time.Hour},
		{name: "ok/negative", input: "-1d", exp: -Day},
		{name: "err/empty", input: "", expErr: "invalid duration ''"},
		{name: "err/garbage", input: "soon", expErr: "invalid duration 'soon'"},
		{name: "err/unit", input: "3x", expErr: "invalid duration '3x'"},
		{name: "err/trailing", input: "1d!", expErr: "invalid duration '1d!'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseDuration(tt.input)
			if tt.expErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.expErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.exp, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		d     time.Duration
		round time.Duration
		exp   string
	}{
		{name: "zero", d: 0, round: time.Second, exp: "0s"},
		{name: "seconds", d: 30 * time.Second, round: time.Second, exp: "30s"},
		{name: "minutes_seconds", d: 90 * time.Second, round: time.Second, exp: "1m30s"},
		{name: "days", d: 50*time.Hour + 20*time.Second, round: time.Minute, exp: "2d2h"},
		{name: "weeks", d: 9 * Day, round: time.Hour, exp: "1w2d"},
		{name: "negative", d: -36 * time.Hour, round: time.Hour, exp: "-1d12h"},
		{name: "millis", d: 1500 * time.Millisecond, round: time.Millisecond, exp: "1s500ms"},
		{name: "rounded_away", d: 400 * time.Millisecond, round: time.Second, exp: "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := FormatDuration(tt.d, tt.round)
			assert.Equal(t, tt.exp, got)

			back, err := ParseDuration(got)
			require.NoError(t, err)
			assert.Equal(t, tt.d.Round(tt.round), back)
		})
	}
}
