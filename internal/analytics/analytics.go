// Package analytics computes the dashboard aggregates over a profile's
// sessions and baselines. Every function is pure.
package analytics

import (
	"math"

	"github.com/roach88/blackbox/internal/domain"
)

// neutral stands in for an outcome that was never recorded.
const neutral = 5

// DosePoint pairs a session's dosage with its outcome well-being.
type DosePoint struct {
	SessionID string           `json:"sessionId"`
	Substance domain.Substance `json:"substance"`
	Dosage    float64          `json:"dosage"`
	WellBeing int              `json:"wellBeing"`
}

// DoseOutcome returns one point per session. Well-being comes from the
// 24h snapshot, then the 1h snapshot, then the neutral midpoint.
func DoseOutcome(sessions []domain.FlightSession) []DosePoint {
	points := make([]DosePoint, 0, len(sessions))
	for _, s := range sessions {
		wb := neutral
		switch {
		case s.PhaseC.OneDay != nil:
			wb = s.PhaseC.OneDay.WellBeing
		case s.PhaseC.OneHour != nil:
			wb = s.PhaseC.OneHour.WellBeing
		}
		points = append(points, DosePoint{
			SessionID: s.ID,
			Substance: s.PhaseA.Substance,
			Dosage:    s.PhaseA.Dosage,
			WellBeing: wb,
		})
	}
	return points
}

// Settings compares pre-session mindfulness by social setting and 1h
// attention by physical setting. An empty group averages to 0.
type Settings struct {
	MindfulnessAlone  float64 `json:"mindfulnessAlone"`
	MindfulnessSocial float64 `json:"mindfulnessSocial"`
	AttentionFamiliar float64 `json:"attentionFamiliar"`
	AttentionNew      float64 `json:"attentionNew"`
}

// SettingComparison averages the setting groups. Sessions without a 1h
// snapshot count as neutral attention.
func SettingComparison(sessions []domain.FlightSession) Settings {
	var alone, social, familiar, novel mean
	for _, s := range sessions {
		switch s.PhaseA.Social {
		case domain.SocialAlone:
			alone.add(s.PhaseA.Mindfulness)
		case domain.SocialNotAlone:
			social.add(s.PhaseA.Mindfulness)
		}
		attention := neutral
		if s.PhaseC.OneHour != nil {
			attention = s.PhaseC.OneHour.Attention
		}
		switch s.PhaseA.Physical {
		case domain.PhysicalFamiliar:
			familiar.add(attention)
		case domain.PhysicalNew:
			novel.add(attention)
		}
	}
	return Settings{
		MindfulnessAlone:  alone.value(),
		MindfulnessSocial: social.value(),
		AttentionFamiliar: familiar.value(),
		AttentionNew:      novel.value(),
	}
}

// Status is the life-orientation reading shown on the dashboard.
type Status string

const (
	Optimistic  Status = "OPTIMISTIC"
	Pessimistic Status = "PESSIMISTIC"
	Balanced    Status = "BALANCED"
)

// Orientation classifies the lifeOrientation of the most recently added
// session: 7 and above is optimistic, 3 and below pessimistic. A missing
// reading counts as 5.
func Orientation(sessions []domain.FlightSession) Status {
	score := neutral
	if n := len(sessions); n > 0 && sessions[n-1].PhaseC.OneDay != nil {
		score = sessions[n-1].PhaseC.OneDay.LifeOrientation
	}
	switch {
	case score >= 7:
		return Optimistic
	case score <= 3:
		return Pessimistic
	}
	return Balanced
}

// Summary is the dashboard's quick-stats block.
type Summary struct {
	Flights          int     `json:"flights"`
	Completed        int     `json:"completed"`
	AverageWellBeing float64 `json:"averageWellBeing"`
	Status           Status  `json:"status"`
}

// Summarize counts flights and averages 24h well-being, rounded to one
// decimal. Sessions without a 24h snapshot contribute 0.
func Summarize(sessions []domain.FlightSession) Summary {
	sum := Summary{Flights: len(sessions), Status: Orientation(sessions)}
	var wb mean
	for _, s := range sessions {
		if s.IsCompleted {
			sum.Completed++
		}
		if s.PhaseC.OneDay != nil {
			wb.add(s.PhaseC.OneDay.WellBeing)
		} else {
			wb.add(0)
		}
	}
	sum.AverageWellBeing = math.Round(wb.value()*10) / 10
	return sum
}

// BaselineTrend returns the last n baselines, newest first. n <= 0 returns
// all of them.
func BaselineTrend(baselines []domain.Baseline, n int) []domain.Baseline {
	if n <= 0 || n > len(baselines) {
		n = len(baselines)
	}
	out := make([]domain.Baseline, 0, n)
	for i := len(baselines) - 1; i >= len(baselines)-n; i-- {
		out = append(out, baselines[i])
	}
	return out
}

type mean struct {
	sum   int
	count int
}

func (m *mean) add(v int) {
	m.sum += v
	m.count++
}

func (m mean) value() float64 {
	if m.count == 0 {
		return 0
	}
	return float64(m.sum) / float64(m.count)
}
