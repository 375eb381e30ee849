// Package slots generates the fixed-granularity booking calendar for a
// day and filters candidate start times against occupied slots. All
// functions are pure; callers supply occupancy from the store.
package slots

import (
	"errors"
	"fmt"
)

// DefaultIntervalMinutes is the club's slot granularity.
const DefaultIntervalMinutes = 5

// ErrValidation marks malformed calendar input; the caller can recover
// by correcting the request.
var ErrValidation = errors.New("invalid slot input")

// Generate produces every slot start time between startHour (inclusive)
// and endHour (exclusive) as "HH:MM" strings, intervalMinutes apart.
func Generate(startHour, endHour, intervalMinutes int) ([]string, error) {
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %d", ErrValidation, intervalMinutes)
	}
	if startHour < 0 || endHour > 24 || startHour >= endHour {
		return nil, fmt.Errorf("%w: hour range [%d, %d)", ErrValidation, startHour, endHour)
	}

	var out []string
	for minute := startHour * 60; minute < endHour*60; minute += intervalMinutes {
		out = append(out, fmt.Sprintf("%02d:%02d", minute/60, minute%60))
	}
	return out, nil
}

// Available returns the start times from all at which a booking of
// durationMinutes fits entirely into free slots. A start is valid only
// when every slot it would span exists in the day and none of them is
// occupied. A duration that is not a multiple of the interval rounds
// the span up, so a request never gets less capacity than asked.
func Available(all, occupied []string, durationMinutes, intervalMinutes int) ([]string, error) {
	if durationMinutes <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive, got %d", ErrValidation, durationMinutes)
	}
	if intervalMinutes <= 0 {
		return nil, fmt.Errorf("%w: interval must be positive, got %d", ErrValidation, intervalMinutes)
	}

	span := (durationMinutes + intervalMinutes - 1) / intervalMinutes

	taken := make(map[string]struct{}, len(occupied))
	for _, s := range occupied {
		taken[s] = struct{}{}
	}

	var out []string
	for i := 0; i+span <= len(all); i++ {
		free := true
		for j := i; j < i+span; j++ {
			if _, ok := taken[all[j]]; ok {
				free = false
				break
			}
		}
		if free {
			out = append(out, all[i])
		}
	}
	return out, nil
}
