package testutil

import (
	"time"

	"github.com/roach88/blackbox/internal/domain"
)

// PhaseA returns a valid intake with every slider at 5 and the given dosage.
func PhaseA(substance domain.Substance, dosage float64, ts time.Time) domain.PhaseA {
	return domain.PhaseA{
		Substance:        substance,
		Dosage:           dosage,
		SelfEsteem:       5,
		Intentions:       true,
		IntentionsText:   "Observe",
		Mood:             5,
		Mindfulness:      5,
		Stress:           5,
		Responsibilities: 5,
		Social:           domain.SocialAlone,
		Physical:         domain.PhysicalFamiliar,
		Timestamp:        ts,
	}
}

// Session returns an active session with empty log and outcomes.
func Session(id string, phaseA domain.PhaseA, tags ...string) domain.FlightSession {
	if tags == nil {
		tags = []string{}
	}
	return domain.FlightSession{
		ID:             id,
		PhaseA:         phaseA,
		PhaseB:         []domain.LogEntry{},
		Questionnaires: []domain.QuestionnaireData{},
		Tags:           tags,
	}
}

// Outcome returns a snapshot with the four sliders set.
func Outcome(mood, attention, wellBeing, energy int) domain.Outcome {
	return domain.Outcome{Mood: mood, Attention: attention, WellBeing: wellBeing, Energy: energy}
}
