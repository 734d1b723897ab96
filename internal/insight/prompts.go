package insight

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/blackbox/internal/domain"
)

const forecastTemplate = `
Analyze this user's psychedelic session history (JSON):
%s

Predict the outcomes for a future session with:
Substance: %s
Dosage: %s
Environment: %s

Return a JSON response evaluating the Anxiety Probability (0-1) and Well-Being Score (1-10).
Include a prevention warning if the environment is "New Environment" and the dose is relatively high compared to history.
`

const insightsTemplate = `
Review the following psychonautical flight history and identify 3 critical correlations or insights.
Focus on variables like Dosage, Social Setting (Alone vs Not Alone), Physical Setting (Familiar vs New),
and Mood/Attention outcomes.

History: %s

Provide a professional, clinical, yet supportive analysis in a single short paragraph.
Use the persona of a world-class integration specialist.
Keep it concise.
`

const chatInstruction = `You are FacilitatorAI, a psychedelic integration partner.

Guidelines:
1. Give evidence-based, supportive and non-judgmental harm reduction advice.
2. Put safety protocols first.
3. Use the concept of "Set and Setting" to guide preparation and integration.
4. Keep a professional yet empathetic tone, in line with the quantified-self "New Psychonaut" approach.
5. If asked about a medical emergency, urge the user to get professional medical attention immediately.
6. Help the user run safe, insightful N-of-1 consciousness experiments.
`

func historyJSON(history []domain.FlightSession) (string, error) {
	if history == nil {
		history = []domain.FlightSession{}
	}
	b, err := json.Marshal(history)
	if err != nil {
		return "", fmt.Errorf("encode history: %w", err)
	}
	return string(b), nil
}

func forecastPrompt(history []domain.FlightSession, plan Plan) (string, error) {
	h, err := historyJSON(history)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(forecastTemplate, h, plan.Substance,
		formatDosage(plan.Dosage), plan.Physical), nil
}

func insightsPrompt(history []domain.FlightSession) (string, error) {
	h, err := historyJSON(history)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(insightsTemplate, h), nil
}

func formatDosage(d float64) string {
	return fmt.Sprintf("%g", d)
}
