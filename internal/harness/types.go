package harness

import (
	"github.com/roach88/blackbox/internal/domain"
)

// StepOK is the outcome of a step that succeeded. Failed steps record
// their error code instead.
const StepOK = "ok"

// StepRecord is the trace entry for one executed step.
type StepRecord struct {
	Index   int    `json:"index"`
	Op      string `json:"op"`
	Outcome string `json:"outcome"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every step behaved as expected and every
	// assertion held.
	Pass bool `json:"pass"`

	// Steps traces the executed steps in order.
	Steps []StepRecord `json:"steps"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// User is the final aggregate, nil if nobody logged in.
	User *domain.User `json:"-"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Steps:  []StepRecord{},
		Errors: []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

func (r *Result) addStep(index int, op string, err error) {
	outcome := StepOK
	if err != nil {
		outcome = string(domain.CodeOf(err))
		if outcome == "" {
			outcome = "ERROR"
		}
	}
	r.Steps = append(r.Steps, StepRecord{Index: index, Op: op, Outcome: outcome})
}
