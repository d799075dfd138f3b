// Package ticks converts between demo ticks, seconds and HH:MM:SS timestamps.
package ticks

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// DefaultRate is the tick rate assumed when a demo does not report a usable one.
const DefaultRate = 66.666

var ErrInvalidTimestamp = errors.New("invalid timestamp")

func rateOrDefault(rate float64) float64 {
	if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return DefaultRate
	}

	return rate
}

func ToSeconds(ticks uint32, rate float64) float64 {
	return float64(ticks) / rateOrDefault(rate)
}

func ToDuration(ticks uint32, rate float64) time.Duration {
	return time.Duration(ToSeconds(ticks, rate) * float64(time.Second))
}

// FromSeconds truncates towards zero. Negative input yields 0.
func FromSeconds(seconds float64, rate float64) uint32 {
	if seconds <= 0 {
		return 0
	}

	return uint32(seconds * rateOrDefault(rate))
}

// FormatSeconds renders seconds as a zero padded HH:MM:SS timestamp, rounded to the nearest second.
func FormatSeconds(seconds float64) string {
	total := int64(math.Round(math.Max(seconds, 0)))

	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total/60)%60, total%60)
}

func Format(ticks uint32, rate float64) string {
	return FormatSeconds(ToSeconds(ticks, rate))
}

// ParseTimestamp reads SS, MM:SS or HH:MM:SS into seconds.
func ParseTimestamp(timestamp string) (float64, error) {
	timestamp = strings.TrimSpace(timestamp)
	if timestamp == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}

	parts := strings.Split(timestamp, ":")
	if len(parts) > 3 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidTimestamp, timestamp)
	}

	var seconds float64

	for idx, part := range parts {
		value, errParse := strconv.ParseUint(part, 10, 8)
		if errParse != nil {
			return 0, errors.Join(errParse, fmt.Errorf("%w: %s", ErrInvalidTimestamp, timestamp))
		}

		if idx > 0 && value >= 60 {
			return 0, fmt.Errorf("%w: field out of range: %s", ErrInvalidTimestamp, timestamp)
		}

		seconds = seconds*60 + float64(value)
	}

	return seconds, nil
}

// Parse converts a timestamp to a tick at the given rate.
func Parse(timestamp string, rate float64) (uint32, error) {
	seconds, errSeconds := ParseTimestamp(timestamp)
	if errSeconds != nil {
		return 0, errSeconds
	}

	return FromSeconds(seconds, rate), nil
}
