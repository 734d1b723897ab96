package state

import (
	"context"
	"strings"

	"github.com/roach88/blackbox/internal/domain"
	"github.com/roach88/blackbox/internal/store"
)

// Login is the mock email gate. The first login with a non-empty email
// creates a user with one empty profile named "Subject Alpha" and selects
// it. Once a user exists it is returned unchanged.
func (s *Store) Login(ctx context.Context, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, domain.Validation("login", "email", "email is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user != nil {
		return s.user.Clone(), nil
	}

	profileID := s.ids.Generate()
	user := &domain.User{
		ID:    s.ids.Generate(),
		Email: email,
		Profiles: []domain.Profile{{
			ID:             profileID,
			Name:           domain.DefaultProfileName,
			Sessions:       []domain.FlightSession{},
			Baselines:      []domain.Baseline{},
			Questionnaires: []domain.QuestionnaireData{},
		}},
		CurrentProfileID:  profileID,
		TutorialCompleted: false,
	}

	if err := s.backend.Put(ctx, store.KeyUser, user); err != nil {
		return nil, persistErr("login", err)
	}
	s.user = user
	s.logger.Info("user created", "user_id", user.ID, "profile_id", profileID)
	return user.Clone(), nil
}

// SaveUser overwrites the stored aggregate with user. Saving the same
// aggregate twice is a no-op at the storage layer.
func (s *Store) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.Validation("save user", "user", "user is required")
	}
	next := user.Clone()
	normalizeUser(next)
	if err := next.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.backend.Put(ctx, store.KeyUser, next); err != nil {
		return persistErr("save user", err)
	}
	s.user = next
	return nil
}

// SetActiveProfile selects the profile with the given id. An unknown id
// is ignored and leaves the current selection in place.
func (s *Store) SetActiveProfile(ctx context.Context, profileID string) error {
	return s.mutateUser(ctx, "set active profile", func(u *domain.User) error {
		if u.Profile(profileID) == nil {
			s.logger.Debug("ignoring unknown profile", "profile_id", profileID)
			return nil
		}
		u.CurrentProfileID = profileID
		return nil
	})
}

// AddProfile appends a profile seeded with one neutral baseline and makes
// it the active profile.
func (s *Store) AddProfile(ctx context.Context, name string) (domain.Profile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Profile{}, domain.Validation("add profile", "name", "profile name is required")
	}

	var created domain.Profile
	err := s.mutateUser(ctx, "add profile", func(u *domain.User) error {
		created = domain.Profile{
			ID:             s.ids.Generate(),
			Name:           name,
			Sessions:       []domain.FlightSession{},
			Baselines:      []domain.Baseline{domain.NeutralBaseline(s.clock.Now())},
			Questionnaires: []domain.QuestionnaireData{},
		}
		u.Profiles = append(u.Profiles, created)
		u.CurrentProfileID = created.ID
		return nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	s.logger.Info("profile added", "profile_id", created.ID)
	return created.Clone(), nil
}

// ProfilePatch carries the optional profile fields. Nil fields are left as
// they are; an empty string clears the field.
type ProfilePatch struct {
	Age     *string
	Sex     *string
	Details *string
}

// UpdateProfile merges patch into the profile with the given id.
func (s *Store) UpdateProfile(ctx context.Context, profileID string, patch ProfilePatch) (domain.Profile, error) {
	var updated domain.Profile
	err := s.mutateUser(ctx, "update profile", func(u *domain.User) error {
		p := u.Profile(profileID)
		if p == nil {
			return domain.NotFound("update profile", "profile", profileID)
		}
		if patch.Age != nil {
			p.Age = strings.TrimSpace(*patch.Age)
		}
		if patch.Sex != nil {
			p.Sex = strings.TrimSpace(*patch.Sex)
		}
		if patch.Details != nil {
			p.Details = *patch.Details
		}
		updated = p.Clone()
		return nil
	})
	if err != nil {
		return domain.Profile{}, err
	}
	return updated, nil
}

// CompleteTutorial marks the onboarding tutorial as done. Idempotent.
func (s *Store) CompleteTutorial(ctx context.Context) error {
	return s.mutateUser(ctx, "complete tutorial", func(u *domain.User) error {
		u.TutorialCompleted = true
		return nil
	})
}
