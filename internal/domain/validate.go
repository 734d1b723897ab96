package domain

import (
	"math"
	"strings"
)

// Every slider in the journal shares one inclusive range.
const (
	ScaleMin = 1
	ScaleMax = 10
)

// InScale reports whether v lies within [ScaleMin, ScaleMax].
func InScale(v int) bool {
	return v >= ScaleMin && v <= ScaleMax
}

// CheckScale returns a VALIDATION error when v is outside the slider range.
func CheckScale(field string, v int) error {
	if !InScale(v) {
		return Validation("check scale", field, "%d is outside %d-%d", v, ScaleMin, ScaleMax)
	}
	return nil
}

type scaled struct {
	field string
	value int
}

func checkAll(prefix string, fields ...scaled) error {
	for _, f := range fields {
		name := f.field
		if prefix != "" {
			name = prefix + "." + f.field
		}
		if err := CheckScale(name, f.value); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks enums, dosage and every slider of the intake.
func (p PhaseA) Validate() error {
	if !p.Substance.Valid() {
		return Validation("validate phaseA", "phaseA.substance", "unknown substance %q", p.Substance)
	}
	if math.IsNaN(p.Dosage) || math.IsInf(p.Dosage, 0) || p.Dosage < 0 {
		return Validation("validate phaseA", "phaseA.dosage", "dosage must be a non-negative number")
	}
	if !p.Social.Valid() {
		return Validation("validate phaseA", "phaseA.social", "unknown social setting %q", p.Social)
	}
	if !p.Physical.Valid() {
		return Validation("validate phaseA", "phaseA.physical", "unknown physical setting %q", p.Physical)
	}
	return checkAll("phaseA",
		scaled{"selfEsteem", p.SelfEsteem},
		scaled{"mood", p.Mood},
		scaled{"mindfulness", p.Mindfulness},
		scaled{"stress", p.Stress},
		scaled{"responsibilities", p.Responsibilities},
	)
}

// Validate checks the four outcome sliders. prefix names the horizon in errors.
func (o Outcome) Validate(prefix string) error {
	return checkAll(prefix,
		scaled{"mood", o.Mood},
		scaled{"attention", o.Attention},
		scaled{"wellBeing", o.WellBeing},
		scaled{"energy", o.Energy},
	)
}

// Validate checks the outcome sliders plus life orientation.
func (o DayOutcome) Validate(prefix string) error {
	if err := o.Outcome.Validate(prefix); err != nil {
		return err
	}
	return checkAll(prefix, scaled{"lifeOrientation", o.LifeOrientation})
}

// Validate checks every horizon that is present.
func (c PhaseC) Validate() error {
	if c.OneHour != nil {
		if err := c.OneHour.Validate("phaseC.oneHour"); err != nil {
			return err
		}
	}
	if c.OneDay != nil {
		if err := c.OneDay.Validate("phaseC.oneDay"); err != nil {
			return err
		}
	}
	if c.OneWeek != nil {
		if err := c.OneWeek.Validate("phaseC.oneWeek"); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the five baseline sliders.
func (b Baseline) Validate() error {
	return checkAll("baseline",
		scaled{"mood", b.Mood},
		scaled{"stress", b.Stress},
		scaled{"wellBeing", b.WellBeing},
		scaled{"mindfulness", b.Mindfulness},
		scaled{"selfEsteem", b.SelfEsteem},
	)
}

// Validate checks the session's scaled fields, tags and log entries.
func (s FlightSession) Validate() error {
	if strings.TrimSpace(s.ID) == "" {
		return Validation("validate session", "id", "session id is required")
	}
	if err := s.PhaseA.Validate(); err != nil {
		return err
	}
	if err := s.PhaseC.Validate(); err != nil {
		return err
	}
	if _, err := NormalizeTags(s.Tags); err != nil {
		return err
	}
	for i, entry := range s.PhaseB {
		if strings.TrimSpace(entry.Content) == "" && entry.FileURL == "" {
			return Validation("validate session", "phaseB", "entry %d is empty", i)
		}
	}
	return nil
}

// Validate checks identity fields and, when present, numeric responses.
func (q QuestionnaireData) Validate() error {
	if strings.TrimSpace(q.QuestionnaireID) == "" {
		return Validation("validate questionnaire", "questionnaireId", "questionnaire id is required")
	}
	if len(q.Responses) == 0 {
		return Validation("validate questionnaire", "responses", "at least one response is required")
	}
	return nil
}

// Validate checks profile references and every owned record.
func (u User) Validate() error {
	if strings.TrimSpace(u.Email) == "" {
		return Validation("validate user", "email", "email is required")
	}
	if u.CurrentProfileID != "" && u.Profile(u.CurrentProfileID) == nil {
		return Validation("validate user", "currentProfileId", "profile %q does not exist", u.CurrentProfileID)
	}
	seen := make(map[string]bool, len(u.Profiles))
	for _, p := range u.Profiles {
		if seen[p.ID] {
			return Validation("validate user", "profiles", "duplicate profile id %q", p.ID)
		}
		seen[p.ID] = true
		if strings.TrimSpace(p.Name) == "" {
			return Validation("validate user", "profiles.name", "profile %q has no name", p.ID)
		}
		sessions := make(map[string]bool, len(p.Sessions))
		for _, s := range p.Sessions {
			if err := s.Validate(); err != nil {
				return err
			}
			if sessions[s.ID] {
				return Validation("validate user", "sessions", "profile %q has duplicate session id %q", p.ID, s.ID)
			}
			sessions[s.ID] = true
		}
		for _, b := range p.Baselines {
			if err := b.Validate(); err != nil {
				return err
			}
		}
		for _, q := range p.Questionnaires {
			if err := q.Validate(); err != nil {
				return err
			}
		}
	}
	return nil
}
