package workflow

import (
	"context"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/state"
)

// Journal is the part of the state store the workflows write through.
// *state.Store implements it.
type Journal interface {
	ActiveProfile() *domain.Profile
	Session(id string) (domain.FlightSession, error)
	Draft() *domain.DraftSession
	SetDraft(ctx context.Context, draft *domain.DraftSession) error
	AddSession(ctx context.Context, session domain.FlightSession) (domain.FlightSession, error)
	UpdateSession(ctx context.Context, id string, patch state.SessionPatch) (domain.FlightSession, error)
}

var _ Journal = (*state.Store)(nil)

// history returns the active profile's sessions, or nil.
func history(j Journal) []domain.FlightSession {
	p := j.ActiveProfile()
	if p == nil {
		return nil
	}
	return p.Sessions
}

// Slider names a 1-10 intake field.
type Slider string

const (
	SliderSelfEsteem       Slider = "selfEsteem"
	SliderMood             Slider = "mood"
	SliderMindfulness      Slider = "mindfulness"
	SliderStress           Slider = "stress"
	SliderResponsibilities Slider = "responsibilities"
)

// Sliders lists the intake sliders in display order.
func Sliders() []Slider {
	return []Slider{SliderSelfEsteem, SliderMood, SliderMindfulness, SliderStress, SliderResponsibilities}
}

// ParseSlider resolves a slider name.
func ParseSlider(raw string) (Slider, error) {
	for _, s := range Sliders() {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", domain.Validation("parse slider", "slider", "unknown slider %q", raw)
}

func sliderField(p *domain.PhaseA, s Slider) *int {
	switch s {
	case SliderSelfEsteem:
		return &p.SelfEsteem
	case SliderMood:
		return &p.Mood
	case SliderMindfulness:
		return &p.Mindfulness
	case SliderStress:
		return &p.Stress
	case SliderResponsibilities:
		return &p.Responsibilities
	}
	return nil
}
