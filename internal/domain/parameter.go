package domain

import (
	"context"
	"math"
	"strconv"
	"strings"
	"time"
)

const (
	ParamSeatHoldDurationMinutes = "SeatHoldDurationMinutes"

	DefaultSeatHoldDuration = 5 * time.Minute
)

type ParameterRepository interface {
	Get(ctx context.Context, name string) (string, error)
}

// SeatHoldDuration converts the configured number of minutes into a
// duration, falling back to DefaultSeatHoldDuration for anything that is not
// a positive number or does not fit in a time.Duration.
func SeatHoldDuration(raw string) time.Duration {
	minutes, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(minutes) || math.IsInf(minutes, 0) || minutes <= 0 {
		return DefaultSeatHoldDuration
	}

	nanos := minutes * float64(time.Minute)
	if nanos >= math.MaxInt64 {
		return DefaultSeatHoldDuration
	}

	d := time.Duration(nanos)
	if d <= 0 {
		return DefaultSeatHoldDuration
	}

	return d
}
