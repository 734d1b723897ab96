package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnswerJSON(t *testing.T) {
	var got map[string]Answer
	require.NoError(t, json.Unmarshal([]byte(`{"q1":4,"q2":"sometimes"}`), &got))

	require.True(t, got["q1"].IsNumber())
	assert.Equal(t, 4.0, *got["q1"].Number)
	assert.False(t, got["q2"].IsNumber())
	assert.Equal(t, "sometimes", got["q2"].Text)

	out, err := json.Marshal(map[string]Answer{"q1": NumberAnswer(2.5), "q2": TextAnswer("no")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"q1":2.5,"q2":"no"}`, string(out))
}

func TestAnswerRejectsObjects(t *testing.T) {
	var a Answer
	assert.Error(t, json.Unmarshal([]byte(`{"x":1}`), &a))
}

func TestActiveProfileDerivation(t *testing.T) {
	u := &User{Profiles: []Profile{{ID: "p1"}, {ID: "p2"}}}
	assert.Nil(t, u.ActiveProfile())

	u.CurrentProfileID = "p2"
	require.NotNil(t, u.ActiveProfile())
	assert.Equal(t, "p2", u.ActiveProfile().ID)

	u.CurrentProfileID = "gone"
	assert.Nil(t, u.ActiveProfile())

	var nilUser *User
	assert.Nil(t, nilUser.ActiveProfile())
}

func TestDraftRoundTripThroughPhaseA(t *testing.T) {
	p := validPhaseA()
	d := DraftFrom(p)
	assert.Equal(t, p, d.ApplyTo(PhaseA{}))

	mood := 9
	partial := DraftPhaseA{Mood: &mood}
	got := partial.ApplyTo(p)
	assert.Equal(t, 9, got.Mood)
	assert.Equal(t, p.Substance, got.Substance)
}

func TestDraftJSONOmitsUnsetFields(t *testing.T) {
	dose := 50.0
	d := DraftSession{PhaseA: DraftPhaseA{Dosage: &dose}, LastSaved: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `{"phaseA":{"dosage":50},"lastSaved":"2026-01-01T00:00:00Z"}`, string(out))
}

func TestPhaseCOutcomeFlattensDay(t *testing.T) {
	c := PhaseC{OneDay: &DayOutcome{Outcome: Outcome{Mood: 6, Attention: 7, WellBeing: 8, Energy: 5}, LifeOrientation: 6}}
	require.NotNil(t, c.Outcome(HorizonOneDay))
	assert.Equal(t, 8, c.Outcome(HorizonOneDay).WellBeing)
	assert.Nil(t, c.Outcome(HorizonOneHour))
}

func TestCloneIsDeep(t *testing.T) {
	score := 3.0
	u := &User{
		ID: "u", Email: "a@b.com", CurrentProfileID: "p",
		Profiles: []Profile{{
			ID: "p", Name: "Subject Alpha",
			Sessions: []FlightSession{{
				ID:     "s",
				Tags:   []string{"A"},
				PhaseB: []LogEntry{{Content: "x"}},
				PhaseC: PhaseC{OneHour: &Outcome{Mood: 5}},
			}},
			Questionnaires: []QuestionnaireData{{ID: "q", Score: &score, Responses: map[string]Answer{"q1": NumberAnswer(3)}}},
		}},
	}

	c := u.Clone()
	c.Profiles[0].Sessions[0].Tags[0] = "B"
	c.Profiles[0].Sessions[0].PhaseB[0].Content = "y"
	c.Profiles[0].Sessions[0].PhaseC.OneHour.Mood = 9
	*c.Profiles[0].Questionnaires[0].Score = 1
	*c.Profiles[0].Questionnaires[0].Responses["q1"].Number = 1

	s := u.Profiles[0].Sessions[0]
	assert.Equal(t, "A", s.Tags[0])
	assert.Equal(t, "x", s.PhaseB[0].Content)
	assert.Equal(t, 5, s.PhaseC.OneHour.Mood)
	assert.Equal(t, 3.0, *u.Profiles[0].Questionnaires[0].Score)
	assert.Equal(t, 3.0, *u.Profiles[0].Questionnaires[0].Responses["q1"].Number)
}

func TestParseEnums(t *testing.T) {
	s, err := ParseSubstance("lsd")
	require.NoError(t, err)
	assert.Equal(t, SubstanceLSD, s)

	_, err = ParseSubstance("coffee")
	assert.True(t, IsValidation(err))

	soc, err := ParseSocial("social")
	require.NoError(t, err)
	assert.Equal(t, SocialNotAlone, soc)

	phys, err := ParsePhysical("new")
	require.NoError(t, err)
	assert.Equal(t, PhysicalNew, phys)

	h, err := ParseHorizon("24h")
	require.NoError(t, err)
	assert.Equal(t, HorizonOneDay, h)
}
