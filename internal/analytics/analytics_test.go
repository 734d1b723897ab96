package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/testutil"
)

var ts = time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)

func withSetting(id string, social domain.SocialEnvironment, physical domain.PhysicalEnvironment, mindfulness int) domain.FlightSession {
	pa := testutil.PhaseA(domain.SubstanceLSD, 100, ts)
	pa.Social = social
	pa.Physical = physical
	pa.Mindfulness = mindfulness
	return testutil.Session(id, pa)
}

func TestDoseOutcomeFallbacks(t *testing.T) {
	day := testutil.Session("day", testutil.PhaseA(domain.SubstanceLSD, 100, ts))
	day.PhaseC.OneDay = &domain.DayOutcome{Outcome: testutil.Outcome(5, 5, 9, 5), LifeOrientation: 5}
	hour := testutil.PhaseA(domain.SubstanceMDMA, 80, ts)
	hourSession := testutil.Session("hour", hour)
	o := testutil.Outcome(5, 5, 3, 5)
	hourSession.PhaseC.OneHour = &o
	none := testutil.Session("none", testutil.PhaseA(domain.SubstanceKetamine, 50, ts))

	points := DoseOutcome([]domain.FlightSession{day, hourSession, none})
	assert.Equal(t, []DosePoint{
		{SessionID: "day", Substance: domain.SubstanceLSD, Dosage: 100, WellBeing: 9},
		{SessionID: "hour", Substance: domain.SubstanceMDMA, Dosage: 80, WellBeing: 3},
		{SessionID: "none", Substance: domain.SubstanceKetamine, Dosage: 50, WellBeing: 5},
	}, points)
	assert.Empty(t, DoseOutcome(nil))
}

func TestSettingComparison(t *testing.T) {
	a := withSetting("a", domain.SocialAlone, domain.PhysicalFamiliar, 8)
	hour := testutil.Outcome(5, 9, 5, 5)
	a.PhaseC.OneHour = &hour
	b := withSetting("b", domain.SocialAlone, domain.PhysicalFamiliar, 4)
	c := withSetting("c", domain.SocialNotAlone, domain.PhysicalFamiliar, 3)

	got := SettingComparison([]domain.FlightSession{a, b, c})
	assert.Equal(t, 6.0, got.MindfulnessAlone)
	assert.Equal(t, 3.0, got.MindfulnessSocial)
	assert.InDelta(t, 19.0/3, got.AttentionFamiliar, 1e-9)
	assert.Equal(t, 0.0, got.AttentionNew)
}

func TestOrientation(t *testing.T) {
	tests := []struct {
		name  string
		score *int
		want  Status
	}{
		{"missing reading", nil, Balanced},
		{"optimistic edge", intp(7), Optimistic},
		{"balanced upper", intp(6), Balanced},
		{"balanced lower", intp(4), Balanced},
		{"pessimistic edge", intp(3), Pessimistic},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := testutil.Session("first", testutil.PhaseA(domain.SubstanceLSD, 100, ts))
			first.PhaseC.OneDay = &domain.DayOutcome{Outcome: testutil.Outcome(5, 5, 5, 5), LifeOrientation: 10}
			latest := testutil.Session("latest", testutil.PhaseA(domain.SubstanceLSD, 100, ts))
			if tt.score != nil {
				latest.PhaseC.OneDay = &domain.DayOutcome{Outcome: testutil.Outcome(5, 5, 5, 5), LifeOrientation: *tt.score}
			}
			assert.Equal(t, tt.want, Orientation([]domain.FlightSession{first, latest}))
		})
	}
	assert.Equal(t, Balanced, Orientation(nil))
}

func TestSummarize(t *testing.T) {
	a := testutil.Session("a", testutil.PhaseA(domain.SubstanceLSD, 100, ts))
	a.PhaseC.OneDay = &domain.DayOutcome{Outcome: testutil.Outcome(5, 5, 8, 5), LifeOrientation: 8}
	a.IsCompleted = true
	b := testutil.Session("b", testutil.PhaseA(domain.SubstanceLSD, 100, ts))
	c := testutil.Session("c", testutil.PhaseA(domain.SubstanceLSD, 100, ts))
	c.PhaseC.OneDay = &domain.DayOutcome{Outcome: testutil.Outcome(5, 5, 7, 5), LifeOrientation: 2}
	c.IsCompleted = true

	got := Summarize([]domain.FlightSession{a, b, c})
	assert.Equal(t, Summary{Flights: 3, Completed: 2, AverageWellBeing: 5.0, Status: Pessimistic}, got)
	assert.Equal(t, Summary{Status: Balanced}, Summarize(nil))
}

func TestBaselineTrend(t *testing.T) {
	var bs []domain.Baseline
	for i := 1; i <= 4; i++ {
		b := domain.NeutralBaseline(ts.Add(time.Duration(i) * time.Hour))
		b.Mood = i
		bs = append(bs, b)
	}

	got := BaselineTrend(bs, 2)
	assert.Len(t, got, 2)
	assert.Equal(t, 4, got[0].Mood)
	assert.Equal(t, 3, got[1].Mood)

	assert.Len(t, BaselineTrend(bs, 0), 4)
	assert.Len(t, BaselineTrend(bs, 10), 4)
	assert.Empty(t, BaselineTrend(nil, 3))
}

func intp(v int) *int { return &v }
