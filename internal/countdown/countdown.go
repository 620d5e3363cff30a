// Package countdown turns a release date and the current time into a
// display-ready time-remaining breakdown. It is pure computation: callers
// own any re-computation cadence, and no timer state lives here.
package countdown

import "time"

// State is the decomposed time remaining until a release. It is derived on
// demand and never persisted.
type State struct {
	Days          int  `json:"days"`
	Hours         int  `json:"hours"`
	Minutes       int  `json:"minutes"`
	Seconds       int  `json:"seconds"`
	IsReleased    bool `json:"is_released"`
	IsUnscheduled bool `json:"is_unscheduled"`
}

// Until computes the countdown from now to the given ISO calendar date
// (YYYY-MM-DD). The reference instant is local midnight of that date,
// parsed in now's location, so an ISO string is never interpreted as UTC
// and shifted across a day boundary. A nil, empty, or unparseable date
// yields an unscheduled state.
//
// Callers typically re-invoke this once per second until IsReleased or
// IsUnscheduled is true, after which the result can no longer change.
func Until(releaseDate *string, now time.Time) State {
	if releaseDate == nil || *releaseDate == "" {
		return State{IsUnscheduled: true}
	}

	parsed, err := time.ParseInLocation("2006-01-02", *releaseDate, now.Location())
	if err != nil {
		return State{IsUnscheduled: true}
	}

	diff := parsed.Sub(now)
	if diff <= 0 {
		return State{IsReleased: true}
	}

	return State{
		Days:    int(diff / (24 * time.Hour)),
		Hours:   int(diff % (24 * time.Hour) / time.Hour),
		Minutes: int(diff % time.Hour / time.Minute),
		Seconds: int(diff % time.Minute / time.Second),
	}
}
