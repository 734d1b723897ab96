package state

import (
	"context"
	"strings"

	"github.com/roach88/blackbox/internal/domain"
)

// AddBaseline appends a calibration snapshot to the active profile.
// A zero timestamp is stamped with the current time.
func (s *Store) AddBaseline(ctx context.Context, b domain.Baseline) (domain.Baseline, error) {
	if b.Timestamp.IsZero() {
		b.Timestamp = s.clock.Now()
	}
	if err := b.Validate(); err != nil {
		return domain.Baseline{}, err
	}
	err := s.mutateActive(ctx, "add baseline", func(p *domain.Profile) error {
		p.Baselines = append(p.Baselines, b)
		return nil
	})
	if err != nil {
		return domain.Baseline{}, err
	}
	return b, nil
}

// AddQuestionnaireResult appends an assessment result to the active profile.
// Results are never attached to sessions.
func (s *Store) AddQuestionnaireResult(ctx context.Context, q domain.QuestionnaireData) (domain.QuestionnaireData, error) {
	q = q.Clone()
	err := s.mutateActive(ctx, "add questionnaire result", func(p *domain.Profile) error {
		if strings.TrimSpace(q.ID) == "" {
			q.ID = s.ids.Generate()
		}
		if q.CompletedAt.IsZero() {
			q.CompletedAt = s.clock.Now()
		}
		if err := q.Validate(); err != nil {
			return err
		}
		p.Questionnaires = append(p.Questionnaires, q)
		return nil
	})
	if err != nil {
		return domain.QuestionnaireData{}, err
	}
	s.logger.Info("questionnaire recorded", "questionnaire", q.QuestionnaireID, "result_id", q.ID)
	return q.Clone(), nil
}
