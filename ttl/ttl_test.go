package ttl

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/lucelabs/vessel/internal/xerrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDurationNumeric(t *testing.T) {
	d, err := ParseDuration(500)
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)
}

func TestParseDurationUnits(t *testing.T) {
	cases := map[string]time.Duration{
		"50ms": 50 * time.Millisecond,
		"5s":   5 * time.Second,
		"2m":   2 * time.Minute,
		"1h":   time.Hour,
		"1d":   24 * time.Hour,
	}

	for in, want := range cases {
		d, err := ParseDuration(in)
		require.NoError(t, err)
		assert.Equal(t, want, d, in)
	}
}

func TestParseDurationInvalidFormat(t *testing.T) {
	_, err := ParseDuration("5 seconds")
	require.ErrorIs(t, err, xerrors.ErrInvalidTTL)

	_, err = ParseDuration("abc")
	require.ErrorIs(t, err, xerrors.ErrInvalidTTL)
}

func TestExpiresAtIsAbsoluteMillis(t *testing.T) {
	now := time.Now()
	ms, duration, err := ExpiresAt("50ms", now)
	require.NoError(t, err)
	assert.Equal(t, "50ms", duration)
	assert.Equal(t, now.Add(50*time.Millisecond).UnixMilli(), ms)
}

func TestSweeperRunsPeriodicallyAndStopsDeterministically(t *testing.T) {
	var calls atomic.Int64

	s := NewSweeper(5*time.Millisecond, func(time.Time) {
		calls.Add(1)
	})
	s.Start()

	time.Sleep(30 * time.Millisecond)
	s.Stop()

	seen := calls.Load()
	assert.Greater(t, seen, int64(0))

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, seen, calls.Load())
}

func TestSweeperStopIsIdempotent(t *testing.T) {
	s := NewSweeper(time.Millisecond, func(time.Time) {})
	s.Start()
	s.Stop()
	s.Stop()
}
