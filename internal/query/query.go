// Package query filters and orders a profile's sessions for the flight log.
package query

import (
	"sort"
	"strings"
	"time"

	"github.com/roach88/blackbox/internal/domain"
)

// Order is the sort direction over phaseA timestamps.
type Order string

const (
	Newest Order = "desc"
	Oldest Order = "asc"
)

// AllSubstances matches any substance.
const AllSubstances = "All"

// Filter selects sessions. Zero fields match everything.
type Filter struct {
	// Substance matches exactly; empty or "All" matches any.
	Substance string
	// Tag matches case-insensitively as a substring of any tag.
	Tag string
	// Start is inclusive.
	Start time.Time
	// End includes the whole day it falls on: sessions up to End+24h match.
	End   time.Time
	Order Order
}

// ParseOrder accepts "asc"/"oldest" and "desc"/"newest". Empty means Newest.
func ParseOrder(s string) (Order, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "desc", "newest":
		return Newest, nil
	case "asc", "oldest":
		return Oldest, nil
	}
	return "", domain.Validation("parse order", "order", "unknown order %q", s)
}

// Match reports whether s passes every set criterion.
func (f Filter) Match(s domain.FlightSession) bool {
	if f.Substance != "" && f.Substance != AllSubstances && string(s.PhaseA.Substance) != f.Substance {
		return false
	}
	if tag := strings.ToLower(strings.TrimSpace(f.Tag)); tag != "" {
		found := false
		for _, t := range s.Tags {
			if strings.Contains(strings.ToLower(t), tag) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	ts := s.PhaseA.Timestamp
	if !f.Start.IsZero() && ts.Before(f.Start) {
		return false
	}
	if !f.End.IsZero() && ts.After(f.End.Add(24*time.Hour)) {
		return false
	}
	return true
}

// Apply returns the matching sessions in the filter's order. Equal
// timestamps are ordered by id so results are stable. The input is not
// modified.
func Apply(sessions []domain.FlightSession, f Filter) []domain.FlightSession {
	out := make([]domain.FlightSession, 0, len(sessions))
	for _, s := range sessions {
		if f.Match(s) {
			out = append(out, s)
		}
	}
	asc := f.Order == Oldest
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].PhaseA.Timestamp, out[j].PhaseA.Timestamp
		if !a.Equal(b) {
			if asc {
				return a.Before(b)
			}
			return a.After(b)
		}
		if asc {
			return out[i].ID < out[j].ID
		}
		return out[i].ID > out[j].ID
	})
	return out
}

// MostRecent returns the session with the latest phaseA timestamp, or nil.
func MostRecent(sessions []domain.FlightSession) *domain.FlightSession {
	sorted := Apply(sessions, Filter{Order: Newest})
	if len(sorted) == 0 {
		return nil
	}
	return &sorted[0]
}

// Active returns the sessions still awaiting landing, newest first.
func Active(sessions []domain.FlightSession) []domain.FlightSession {
	var out []domain.FlightSession
	for _, s := range Apply(sessions, Filter{Order: Newest}) {
		if !s.IsCompleted {
			out = append(out, s)
		}
	}
	return out
}
