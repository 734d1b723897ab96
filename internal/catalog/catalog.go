// Package catalog holds the fixed-form questionnaire templates and scores
// completed forms.
//
// Templates are authored in CUE (templates.cue), embedded in the binary and
// compiled with the CUE Go API on first use. The CUE schema rejects
// templates without a name, without questions, or with malformed ids.
package catalog

import (
	_ "embed"
	"fmt"
	"math"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/blackbox/internal/domain"
)

//go:embed templates.cue
var templatesSrc []byte

// Question is one item of a template.
type Question struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Scale is the inclusive answer range of a template.
type Scale struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Template is a fixed-form questionnaire.
type Template struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Scale     Scale      `json:"scale"`
	Questions []Question `json:"questions"`
}

// Catalog is an ordered, read-only set of templates.
type Catalog struct {
	templates []Template
	byID      map[string]int
}

// LoadError reports a template source that does not compile or does not
// satisfy the template schema.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	return Compile(templatesSrc, "templates.cue")
})

// Default returns the embedded catalog.
func Default() (*Catalog, error) {
	return loadDefault()
}

// Compile builds a catalog from CUE source declaring a `templates` list.
func Compile(src []byte, filename string) (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	list := v.LookupPath(cue.ParsePath("templates"))
	if !list.Exists() {
		return nil, &LoadError{Field: "templates", Message: "templates list is required", Pos: v.Pos()}
	}

	var templates []Template
	if err := list.Decode(&templates); err != nil {
		return nil, formatCUEError(err)
	}

	c := &Catalog{templates: templates, byID: make(map[string]int, len(templates))}
	for i, t := range templates {
		if _, dup := c.byID[t.ID]; dup {
			return nil, &LoadError{Field: "templates", Message: fmt.Sprintf("duplicate template id %q", t.ID)}
		}
		seen := make(map[string]bool, len(t.Questions))
		for _, q := range t.Questions {
			if seen[q.ID] {
				return nil, &LoadError{Field: t.ID, Message: fmt.Sprintf("duplicate question id %q", q.ID)}
			}
			seen[q.ID] = true
		}
		c.byID[t.ID] = i
	}
	return c, nil
}

// Templates returns the templates in declaration order.
func (c *Catalog) Templates() []Template {
	out := make([]Template, len(c.templates))
	copy(out, c.templates)
	return out
}

// Get returns the template with the given id.
func (c *Catalog) Get(id string) (Template, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Template{}, false
	}
	return c.templates[i], true
}

// Lookup is Get returning a NOT_FOUND error for unknown ids.
func (c *Catalog) Lookup(id string) (Template, error) {
	t, ok := c.Get(id)
	if !ok {
		return Template{}, domain.NotFound("lookup questionnaire", "questionnaire", id)
	}
	return t, nil
}

// Score checks that every question is answered with a whole number inside
// the template scale and returns the mean rounded to one decimal.
// Responses for ids the template does not ask are rejected.
func Score(t Template, responses map[string]domain.Answer) (float64, error) {
	const op = "score questionnaire"

	asked := make(map[string]bool, len(t.Questions))
	var sum float64
	for _, q := range t.Questions {
		asked[q.ID] = true
		a, ok := responses[q.ID]
		if !ok {
			return 0, domain.Validation(op, q.ID, "question %q is unanswered", q.ID)
		}
		if !a.IsNumber() {
			return 0, domain.Validation(op, q.ID, "answer %q is not a number", a.Text)
		}
		n := *a.Number
		if n != math.Trunc(n) || n < float64(t.Scale.Min) || n > float64(t.Scale.Max) {
			return 0, domain.Validation(op, q.ID, "answer %v is outside %d-%d", n, t.Scale.Min, t.Scale.Max)
		}
		sum += n
	}

	extra := make([]string, 0)
	for id := range responses {
		if !asked[id] {
			extra = append(extra, id)
		}
	}
	if len(extra) > 0 {
		sort.Strings(extra)
		return 0, domain.Validation(op, extra[0], "%s does not ask %q", t.ID, extra[0])
	}

	if len(t.Questions) == 0 {
		return 0, nil
	}
	mean := sum / float64(len(t.Questions))
	return math.Round(mean*10) / 10, nil
}

// NewResult scores responses and builds the result record. ID and
// CompletedAt are left for the state store to fill.
func NewResult(t Template, responses map[string]domain.Answer) (domain.QuestionnaireData, error) {
	score, err := Score(t, responses)
	if err != nil {
		return domain.QuestionnaireData{}, err
	}
	copied := make(map[string]domain.Answer, len(responses))
	for k, v := range responses {
		copied[k] = v
	}
	return domain.QuestionnaireData{
		QuestionnaireID: t.ID,
		Name:            t.Name,
		Responses:       copied,
		Score:           &score,
	}, nil
}

// formatCUEError keeps the first error and its position.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &LoadError{Field: "cue", Message: first.Error(), Pos: positions[0]}
	}
	return &LoadError{Field: "cue", Message: first.Error()}
}
