package brain

import (
	"fmt"
	"strings"

	"basegraph.app/recommender/common/llm"
)

const submitPreferencesTool = "submit_preferences"

// Outcome classifies one collector turn.
type Outcome interface {
	isOutcome()
}

// Continue means the collector is still talking to the user.
type Continue struct {
	Text string
}

// PreferencesReady means the collector has enough to search the catalog.
// Text is the model's closing line when it wrote the marker itself.
type PreferencesReady struct {
	Preferences []string
	Text        string
}

func (Continue) isOutcome()         {}
func (PreferencesReady) isOutcome() {}

type submitPreferencesParams struct {
	Preferences []string `json:"preferences" jsonschema:"required,description=Short preference strings; clothing items first"`
}

func submitPreferencesToolDef() llm.Tool {
	return llm.Tool{
		Name:        submitPreferencesTool,
		Description: "Hand the user's preferences to the catalog search once you know enough.",
		Parameters:  llm.GenerateSchemaFrom(submitPreferencesParams{}),
		Strict:      true,
	}
}

// classifyTurn turns a model reply into an Outcome. A submit_preferences
// call wins over any text; text carrying the marker is accepted as well.
func classifyTurn(resp *llm.AgentResponse) (Outcome, error) {
	for _, tc := range resp.ToolCalls {
		if tc.Name != submitPreferencesTool {
			continue
		}
		params, err := llm.ParseToolArguments[submitPreferencesParams](tc.Arguments)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", submitPreferencesTool, err)
		}
		terms := cleanTerms(params.Preferences)
		if len(terms) == 0 {
			return nil, fmt.Errorf("%s: no preferences given", submitPreferencesTool)
		}
		return PreferencesReady{Preferences: terms}, nil
	}

	if strings.Contains(resp.Content, extractionMarker) {
		_, after, _ := strings.Cut(resp.Content, extractionMarker)
		if terms := ParsePreferenceList(after); len(terms) > 0 {
			return PreferencesReady{Preferences: terms, Text: resp.Content}, nil
		}
	}

	return Continue{Text: resp.Content}, nil
}

func cleanTerms(in []string) []string {
	out := make([]string, 0, len(in))
	for _, t := range in {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
