// Package ttl implements TTL value parsing and the periodic sweeper
// goroutine that expires documents between engine operations.
package ttl

import (
	"regexp"
	"strconv"
	"time"

	"github.com/lucelabs/vessel/internal/xerrors"
)

var pattern = regexp.MustCompile(`^(\d+)(ms|s|m|h|d)$`)

// DefaultInterval is the default sweep period.
const DefaultInterval = 60 * time.Second

// ParseDuration accepts either a numeric value (milliseconds: int, int64, or
// float64) or a string matching ⟨number⟩⟨unit⟩ with unit in
// {ms, s, m, h, d}. Any other form fails with xerrors.ErrInvalidTTL.
func ParseDuration(v any) (time.Duration, error) {
	switch t := v.(type) {
	case int:
		return time.Duration(t) * time.Millisecond, nil
	case int64:
		return time.Duration(t) * time.Millisecond, nil
	case float64:
		return time.Duration(t) * time.Millisecond, nil
	case string:
		m := pattern.FindStringSubmatch(t)
		if m == nil {
			return 0, xerrors.ErrInvalidTTL
		}

		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, xerrors.ErrInvalidTTL
		}

		switch m[2] {
		case "ms":
			return time.Duration(n) * time.Millisecond, nil
		case "s":
			return time.Duration(n) * time.Second, nil
		case "m":
			return time.Duration(n) * time.Minute, nil
		case "h":
			return time.Duration(n) * time.Hour, nil
		case "d":
			return time.Duration(n) * 24 * time.Hour, nil
		}
	}

	return 0, xerrors.ErrInvalidTTL
}

// ExpiresAt returns the absolute millisecond expiration for a TTL value
// raised from now, along with its original human-readable string form for
// _ttl_duration.
func ExpiresAt(v any, now time.Time) (expiresAtMs int64, duration string, err error) {
	d, err := ParseDuration(v)
	if err != nil {
		return 0, "", err
	}

	if s, ok := v.(string); ok {
		duration = s
	} else {
		duration = d.String()
	}

	return now.Add(d).UnixMilli(), duration, nil
}
