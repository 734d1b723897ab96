package domain

// Clone deep-copies the aggregate so callers never share slices or maps
// with the state container.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	out := *u
	out.Profiles = make([]Profile, len(u.Profiles))
	for i := range u.Profiles {
		out.Profiles[i] = u.Profiles[i].Clone()
	}
	return &out
}

// Clone deep-copies a profile.
func (p Profile) Clone() Profile {
	out := p
	out.Sessions = make([]FlightSession, len(p.Sessions))
	for i := range p.Sessions {
		out.Sessions[i] = p.Sessions[i].Clone()
	}
	out.Baselines = append([]Baseline{}, p.Baselines...)
	out.Questionnaires = cloneQuestionnaires(p.Questionnaires)
	return out
}

// Clone deep-copies a session.
func (s FlightSession) Clone() FlightSession {
	out := s
	out.PhaseB = append([]LogEntry{}, s.PhaseB...)
	out.PhaseC = s.PhaseC.Clone()
	out.Questionnaires = cloneQuestionnaires(s.Questionnaires)
	out.Tags = append([]string{}, s.Tags...)
	return out
}

// Clone deep-copies the horizon pointers.
func (c PhaseC) Clone() PhaseC {
	var out PhaseC
	if c.OneHour != nil {
		v := *c.OneHour
		out.OneHour = &v
	}
	if c.OneDay != nil {
		v := *c.OneDay
		out.OneDay = &v
	}
	if c.OneWeek != nil {
		v := *c.OneWeek
		out.OneWeek = &v
	}
	return out
}

// Clone deep-copies a questionnaire result.
func (q QuestionnaireData) Clone() QuestionnaireData {
	out := q
	if q.Score != nil {
		v := *q.Score
		out.Score = &v
	}
	out.Responses = make(map[string]Answer, len(q.Responses))
	for k, a := range q.Responses {
		if a.Number != nil {
			out.Responses[k] = NumberAnswer(*a.Number)
			continue
		}
		out.Responses[k] = a
	}
	return out
}

func cloneQuestionnaires(in []QuestionnaireData) []QuestionnaireData {
	out := make([]QuestionnaireData, len(in))
	for i := range in {
		out[i] = in[i].Clone()
	}
	return out
}

// Clone deep-copies a draft.
func (d *DraftSession) Clone() *DraftSession {
	if d == nil {
		return nil
	}
	out := *d
	out.Tags = append([]string(nil), d.Tags...)
	out.PhaseA = d.PhaseA.clone()
	return &out
}

func (d DraftPhaseA) clone() DraftPhaseA {
	out := DraftPhaseA{
		Substance:        clonePtr(d.Substance),
		Dosage:           clonePtr(d.Dosage),
		SelfEsteem:       clonePtr(d.SelfEsteem),
		Intentions:       clonePtr(d.Intentions),
		IntentionsText:   clonePtr(d.IntentionsText),
		Mood:             clonePtr(d.Mood),
		Mindfulness:      clonePtr(d.Mindfulness),
		Stress:           clonePtr(d.Stress),
		Responsibilities: clonePtr(d.Responsibilities),
		Social:           clonePtr(d.Social),
		Physical:         clonePtr(d.Physical),
		Timestamp:        clonePtr(d.Timestamp),
	}
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
