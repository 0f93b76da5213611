package service

import (
	"math"
	"regexp"
	"strconv"
	"time"
)

var deltaPattern = regexp.MustCompile(`^(\d+)([dhm])$`)

var deltaUnits = map[string]time.Duration{
	"d": 24 * time.Hour,
	"h": time.Hour,
	"m": time.Minute,
}

// ParseDelta converts a delta string such as "1d", "2h" or "30m" into a duration.
func ParseDelta(raw string) (time.Duration, error) {
	match := deltaPattern.FindStringSubmatch(raw)
	if match == nil {
		return 0, &ValidationError{Message: MsgInvalidDelta}
	}

	value, err := strconv.ParseInt(match[1], 10, 64)
	unit := deltaUnits[match[2]]
	if err != nil || value > math.MaxInt64/int64(unit) {
		return 0, &ValidationError{Message: "Time delta is too large."}
	}
	return time.Duration(value) * unit, nil
}
