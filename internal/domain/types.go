package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// DefaultProfileName names the profile synthesized on first login.
const DefaultProfileName = "Subject Alpha"

// User is the root aggregate.
type User struct {
	ID                string    `json:"id"`
	Email             string    `json:"email"`
	Profiles          []Profile `json:"profiles"`
	CurrentProfileID  string    `json:"currentProfileId,omitempty"`
	TutorialCompleted bool      `json:"tutorialCompleted"`
}

// Profile is one research subject.
type Profile struct {
	ID             string              `json:"id"`
	Name           string              `json:"name"`
	Age            string              `json:"age,omitempty"`
	Sex            string              `json:"sex,omitempty"`
	Details        string              `json:"details,omitempty"`
	Sessions       []FlightSession     `json:"sessions"`
	Baselines      []Baseline          `json:"baselines"`
	Questionnaires []QuestionnaireData `json:"questionnaires"`
}

// FlightSession is one logged experience.
type FlightSession struct {
	ID     string     `json:"id"`
	PhaseA PhaseA     `json:"phaseA"`
	PhaseB []LogEntry `json:"phaseB"`
	PhaseC PhaseC     `json:"phaseC"`

	// Questionnaires is part of the stored shape but no operation attaches
	// results here; results live on the Profile.
	Questionnaires []QuestionnaireData `json:"questionnaires"`

	Tags        []string `json:"tags"`
	IsCompleted bool     `json:"isCompleted"`
	DebriefText string   `json:"debriefText"`
	Notes       string   `json:"notes,omitempty"`
}

// PhaseA is the pre-session intake: set and setting.
type PhaseA struct {
	Substance        Substance           `json:"substance"`
	Dosage           float64             `json:"dosage"`
	SelfEsteem       int                 `json:"selfEsteem"`
	Intentions       bool                `json:"intentions"`
	IntentionsText   string              `json:"intentionsText,omitempty"`
	Mood             int                 `json:"mood"`
	Mindfulness      int                 `json:"mindfulness"`
	Stress           int                 `json:"stress"`
	Responsibilities int                 `json:"responsibilities"`
	Social           SocialEnvironment   `json:"social"`
	Physical         PhysicalEnvironment `json:"physical"`
	Timestamp        time.Time           `json:"timestamp"`
}

// LogEntry is one in-flight observation. Entries are immutable once appended.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Content   string    `json:"content"`
	Type      string    `json:"type,omitempty"`
	FileURL   string    `json:"fileUrl,omitempty"`
	FileName  string    `json:"fileName,omitempty"`
}

// Outcome is a post-session snapshot at one horizon.
type Outcome struct {
	Mood      int `json:"mood"`
	Attention int `json:"attention"`
	WellBeing int `json:"wellBeing"`
	Energy    int `json:"energy"`
}

// DayOutcome is the 24h snapshot, which also records life orientation
// (pessimism 1 to optimism 10).
type DayOutcome struct {
	Outcome
	LifeOrientation int `json:"lifeOrientation"`
}

// PhaseC holds the outcome snapshots. Each horizon is written independently.
type PhaseC struct {
	OneHour *Outcome    `json:"oneHour,omitempty"`
	OneDay  *DayOutcome `json:"oneDay,omitempty"`
	OneWeek *Outcome    `json:"oneWeek,omitempty"`
}

// Baseline is a standalone calibration snapshot.
type Baseline struct {
	Timestamp   time.Time `json:"timestamp"`
	Mood        int       `json:"mood"`
	Stress      int       `json:"stress"`
	WellBeing   int       `json:"wellBeing"`
	Mindfulness int       `json:"mindfulness"`
	SelfEsteem  int       `json:"selfEsteem"`
}

// NeutralBaseline returns the 5/5/5/5/5 snapshot every new profile starts with.
func NeutralBaseline(ts time.Time) Baseline {
	return Baseline{Timestamp: ts, Mood: 5, Stress: 5, WellBeing: 5, Mindfulness: 5, SelfEsteem: 5}
}

// QuestionnaireData is the result of a fixed-form assessment.
type QuestionnaireData struct {
	ID              string            `json:"id"`
	QuestionnaireID string            `json:"questionnaireId"`
	Name            string            `json:"name"`
	Responses       map[string]Answer `json:"responses"`
	Score           *float64          `json:"score,omitempty"`
	CompletedAt     time.Time         `json:"completedAt"`
}

// Answer is a questionnaire response: a number or free text.
type Answer struct {
	Number *float64
	Text   string
}

// NumberAnswer returns a numeric answer.
func NumberAnswer(v float64) Answer {
	return Answer{Number: &v}
}

// TextAnswer returns a free-text answer.
func TextAnswer(s string) Answer {
	return Answer{Text: s}
}

// IsNumber reports whether the answer is numeric.
func (a Answer) IsNumber() bool { return a.Number != nil }

func (a Answer) String() string {
	if a.Number != nil {
		return strconv.FormatFloat(*a.Number, 'f', -1, 64)
	}
	return a.Text
}

// MarshalJSON writes a JSON number for numeric answers and a string otherwise.
func (a Answer) MarshalJSON() ([]byte, error) {
	if a.Number != nil {
		return json.Marshal(*a.Number)
	}
	return json.Marshal(a.Text)
}

// UnmarshalJSON accepts either a JSON number or a JSON string.
func (a *Answer) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*a = TextAnswer(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(trimmed, &f); err != nil {
		return fmt.Errorf("answer must be a number or string: %w", err)
	}
	*a = NumberAnswer(f)
	return nil
}

// DraftSession is an uncommitted intake. It is stored outside the User
// aggregate and is independent of the active profile.
type DraftSession struct {
	PhaseA    DraftPhaseA `json:"phaseA"`
	Tags      []string    `json:"tags,omitempty"`
	LastSaved time.Time   `json:"lastSaved"`
}

// DraftPhaseA is a partially filled PhaseA. Nil fields were never set.
type DraftPhaseA struct {
	Substance        *Substance           `json:"substance,omitempty"`
	Dosage           *float64             `json:"dosage,omitempty"`
	SelfEsteem       *int                 `json:"selfEsteem,omitempty"`
	Intentions       *bool                `json:"intentions,omitempty"`
	IntentionsText   *string              `json:"intentionsText,omitempty"`
	Mood             *int                 `json:"mood,omitempty"`
	Mindfulness      *int                 `json:"mindfulness,omitempty"`
	Stress           *int                 `json:"stress,omitempty"`
	Responsibilities *int                 `json:"responsibilities,omitempty"`
	Social           *SocialEnvironment   `json:"social,omitempty"`
	Physical         *PhysicalEnvironment `json:"physical,omitempty"`
	Timestamp        *time.Time           `json:"timestamp,omitempty"`
}

// DraftFrom captures every field of a PhaseA.
func DraftFrom(p PhaseA) DraftPhaseA {
	d := DraftPhaseA{
		Substance:        &p.Substance,
		Dosage:           &p.Dosage,
		SelfEsteem:       &p.SelfEsteem,
		Intentions:       &p.Intentions,
		IntentionsText:   &p.IntentionsText,
		Mood:             &p.Mood,
		Mindfulness:      &p.Mindfulness,
		Stress:           &p.Stress,
		Responsibilities: &p.Responsibilities,
		Social:           &p.Social,
		Physical:         &p.Physical,
	}
	if !p.Timestamp.IsZero() {
		ts := p.Timestamp
		d.Timestamp = &ts
	}
	return d
}

// ApplyTo overlays the fields that were set onto base.
func (d DraftPhaseA) ApplyTo(base PhaseA) PhaseA {
	if d.Substance != nil {
		base.Substance = *d.Substance
	}
	if d.Dosage != nil {
		base.Dosage = *d.Dosage
	}
	if d.SelfEsteem != nil {
		base.SelfEsteem = *d.SelfEsteem
	}
	if d.Intentions != nil {
		base.Intentions = *d.Intentions
	}
	if d.IntentionsText != nil {
		base.IntentionsText = *d.IntentionsText
	}
	if d.Mood != nil {
		base.Mood = *d.Mood
	}
	if d.Mindfulness != nil {
		base.Mindfulness = *d.Mindfulness
	}
	if d.Stress != nil {
		base.Stress = *d.Stress
	}
	if d.Responsibilities != nil {
		base.Responsibilities = *d.Responsibilities
	}
	if d.Social != nil {
		base.Social = *d.Social
	}
	if d.Physical != nil {
		base.Physical = *d.Physical
	}
	if d.Timestamp != nil {
		base.Timestamp = *d.Timestamp
	}
	return base
}

// Profile returns the profile with the given id, or nil.
func (u *User) Profile(id string) *Profile {
	if u == nil || id == "" {
		return nil
	}
	for i := range u.Profiles {
		if u.Profiles[i].ID == id {
			return &u.Profiles[i]
		}
	}
	return nil
}

// ActiveProfile resolves CurrentProfileID against Profiles. It returns nil
// when the id is unset or dangling.
func (u *User) ActiveProfile() *Profile {
	if u == nil {
		return nil
	}
	return u.Profile(u.CurrentProfileID)
}

// Session returns the session with the given id, or nil.
func (p *Profile) Session(id string) *FlightSession {
	if p == nil {
		return nil
	}
	for i := range p.Sessions {
		if p.Sessions[i].ID == id {
			return &p.Sessions[i]
		}
	}
	return nil
}

// Outcome returns the snapshot stored for h, flattening the 24h record.
func (c PhaseC) Outcome(h Horizon) *Outcome {
	switch h {
	case HorizonOneHour:
		return c.OneHour
	case HorizonOneDay:
		if c.OneDay == nil {
			return nil
		}
		o := c.OneDay.Outcome
		return &o
	case HorizonOneWeek:
		return c.OneWeek
	}
	return nil
}
