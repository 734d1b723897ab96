package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/blackbox/internal/domain"
)

func answers(vals ...float64) map[string]domain.Answer {
	out := make(map[string]domain.Answer, len(vals))
	for i, v := range vals {
		out["q"+string(rune('1'+i))] = domain.NumberAnswer(v)
	}
	return out
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	var ids []string
	for _, tmpl := range c.Templates() {
		ids = append(ids, tmpl.ID)
		assert.Equal(t, Scale{Min: 1, Max: 5}, tmpl.Scale)
		assert.NotEmpty(t, tmpl.Questions)
	}
	assert.Equal(t, []string{"meq", "ceq", "hsc", "edi", "burnout"}, ids)

	meq, ok := c.Get("meq")
	require.True(t, ok)
	assert.Equal(t, "Mystical Experiences Questionnaire", meq.Name)
	require.Len(t, meq.Questions, 5)
	assert.Equal(t, "Loss of your usual sense of time?", meq.Questions[0].Text)

	edi, ok := c.Get("edi")
	require.True(t, ok)
	assert.Equal(t, `I experienced a dissolution of my "self" or "ego".`, edi.Questions[0].Text)
}

func TestLookupUnknown(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	_, err = c.Lookup("nope")
	assert.True(t, domain.IsNotFound(err))
}

func TestScore(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	hsc, _ := c.Get("hsc")
	burnout, _ := c.Get("burnout")

	tests := []struct {
		name      string
		tmpl      Template
		responses map[string]domain.Answer
		want      float64
	}{
		{"mean rounds to one decimal", hsc, answers(4, 4, 5), 4.3},
		{"all minimum", hsc, answers(1, 1, 1), 1},
		{"two questions", burnout, answers(3, 4), 3.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.tmpl, tt.responses)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestScoreRejects(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	burnout, _ := c.Get("burnout")

	tests := []struct {
		name      string
		responses map[string]domain.Answer
	}{
		{"unanswered", answers(3)},
		{"above scale", answers(3, 6)},
		{"below scale", answers(0, 3)},
		{"fractional", answers(2.5, 3)},
		{"text", map[string]domain.Answer{"q1": domain.NumberAnswer(3), "q2": domain.TextAnswer("often")}},
		{"unknown question", answers(3, 3, 3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Score(burnout, tt.responses)
			assert.True(t, domain.IsValidation(err), "got %v", err)
		})
	}
}

func TestNewResult(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	ceq, _ := c.Get("ceq")

	in := answers(1, 2, 3, 4, 5)
	res, err := NewResult(ceq, in)
	require.NoError(t, err)
	assert.Equal(t, "ceq", res.QuestionnaireID)
	assert.Equal(t, "Challenging Experiences Questionnaire", res.Name)
	require.NotNil(t, res.Score)
	assert.Equal(t, 3.0, *res.Score)
	assert.Empty(t, res.ID)

	in["q1"] = domain.NumberAnswer(5)
	assert.Equal(t, 1.0, *res.Responses["q1"].Number)
}

func TestCompileRejectsBadTemplates(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"missing name", `
#Template: {id: string, name: string & !="", questions: [...]}
templates: [...#Template]
templates: [{id: "x", questions: [{id: "q1", text: "a"}]}]
`},
		{"syntax error", `templates: [`},
		{"no templates", `other: 1`},
		{"duplicate ids", `
templates: [
	{id: "x", name: "X", scale: {min: 1, max: 5}, questions: [{id: "q1", text: "a"}]},
	{id: "x", name: "Y", scale: {min: 1, max: 5}, questions: [{id: "q1", text: "b"}]},
]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile([]byte(tt.src), "test.cue")
			require.Error(t, err)
			var le *LoadError
			assert.ErrorAs(t, err, &le)
		})
	}
}
