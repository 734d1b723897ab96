package workflow

import (
	"context"
	"time"

	"github.com/roach88/blackbox/internal/domain"
)

// RetroIntentions is the intention text of every retrospective entry.
const RetroIntentions = "Retrospective Entry"

// EstimatedWellBeing stands in for the 24h well-being of a retrospective
// entry, which nobody observed.
const EstimatedWellBeing = 8

// RetroInput is everything the retrospective form asks for.
type RetroInput struct {
	Debrief     string
	Tags        []string
	Substance   domain.Substance
	Dosage      float64
	Mood        int
	Mindfulness int
	Stress      int
	Social      domain.SocialEnvironment
	Physical    domain.PhysicalEnvironment
	Timestamp   time.Time
}

// DefaultRetroInput is the form's starting state.
func DefaultRetroInput(now time.Time) RetroInput {
	return RetroInput{
		Tags:        []string{},
		Substance:   domain.SubstanceLSD,
		Dosage:      100,
		Mood:        5,
		Mindfulness: 5,
		Stress:      5,
		Social:      domain.SocialAlone,
		Physical:    domain.PhysicalFamiliar,
		Timestamp:   now,
	}
}

// RetroResult is the committed entry. WellBeingEstimated is always true:
// the 24h well-being is EstimatedWellBeing, not a measurement.
type RetroResult struct {
	Session            domain.FlightSession
	WellBeingEstimated bool
}

// Session builds the completed session a retrospective entry stands for.
func (in RetroInput) Session() domain.FlightSession {
	return domain.FlightSession{
		PhaseA: domain.PhaseA{
			Substance:        in.Substance,
			Dosage:           in.Dosage,
			SelfEsteem:       5,
			Intentions:       true,
			IntentionsText:   RetroIntentions,
			Mood:             in.Mood,
			Mindfulness:      in.Mindfulness,
			Stress:           in.Stress,
			Responsibilities: 5,
			Social:           in.Social,
			Physical:         in.Physical,
			Timestamp:        in.Timestamp,
		},
		PhaseB: []domain.LogEntry{},
		PhaseC: domain.PhaseC{
			OneDay: &domain.DayOutcome{
				Outcome: domain.Outcome{
					Mood:      in.Mood,
					Attention: 5,
					WellBeing: EstimatedWellBeing,
					Energy:    5,
				},
				LifeOrientation: 5,
			},
		},
		Questionnaires: []domain.QuestionnaireData{},
		Tags:           append([]string{}, in.Tags...),
		IsCompleted:    true,
		DebriefText:    in.Debrief,
	}
}

// Retrospective records an already-finished session in one write.
func Retrospective(ctx context.Context, j Journal, in RetroInput) (RetroResult, error) {
	if in.Timestamp.IsZero() {
		return RetroResult{}, domain.Validation("retrospective", "timestamp", "session time is required")
	}
	saved, err := j.AddSession(ctx, in.Session())
	if err != nil {
		return RetroResult{}, err
	}
	return RetroResult{Session: saved, WellBeingEstimated: true}, nil
}
