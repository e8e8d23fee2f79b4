package brain

import (
	"errors"
	"fmt"
	"strings"

	"basegraph.app/recommender/internal/chat"
)

// ErrInvalidTransition is returned by Next for an event the state can't take.
var ErrInvalidTransition = errors.New("invalid pipeline transition")

// State is a step of one recommendation run.
type State string

const (
	StateAwaitInput           State = "AWAIT_INPUT"
	StateCollecting           State = "COLLECTING"
	StatePreferencesExtracted State = "PREFERENCES_EXTRACTED"
	StateRetrieving           State = "RETRIEVING"
	StateProductsRetrieved    State = "PRODUCTS_RETRIEVED"
	StateComposing            State = "COMPOSING"
	StateDone                 State = "DONE"
	StateAborted              State = "ABORTED"
)

// Terminal reports whether no further event is accepted.
func (s State) Terminal() bool {
	return s == StateDone || s == StateAborted
}

type Event string

const (
	EventInput             Event = "input"
	EventPreferencesFound  Event = "preferences_found"
	EventNoPreferences     Event = "no_preferences"
	EventRetrieve          Event = "retrieve"
	EventProductsFound     Event = "products_found"
	EventNoProducts        Event = "no_products"
	EventCompose           Event = "compose"
	EventRecommendationOut Event = "recommendation_out"
	EventFailed            Event = "failed"
)

// AbortReason says why a run ended in StateAborted.
type AbortReason string

const (
	AbortNone          AbortReason = ""
	AbortNoPreferences AbortReason = "no_preferences"
	AbortNoProducts    AbortReason = "no_products"
)

type transition struct {
	from State
	on   Event
}

var transitions = map[transition]State{
	{StateAwaitInput, EventInput}:              StateCollecting,
	{StateCollecting, EventPreferencesFound}:   StatePreferencesExtracted,
	{StateCollecting, EventNoPreferences}:      StateAborted,
	{StatePreferencesExtracted, EventRetrieve}: StateRetrieving,
	{StateRetrieving, EventProductsFound}:      StateProductsRetrieved,
	{StateRetrieving, EventNoProducts}:         StateAborted,
	{StateProductsRetrieved, EventCompose}:     StateComposing,
	{StateComposing, EventRecommendationOut}:   StateDone,
}

// Next is the pipeline's transition function. Any non-terminal state moves
// to StateDone on EventFailed.
func Next(s State, e Event) (State, error) {
	if e == EventFailed && !s.Terminal() {
		return StateDone, nil
	}
	if next, ok := transitions[transition{s, e}]; ok {
		return next, nil
	}
	return s, fmt.Errorf("%w: %s on %s", ErrInvalidTransition, s, e)
}

// abortReason maps the event that aborted a run to its reason.
func abortReason(e Event) AbortReason {
	switch e {
	case EventNoPreferences:
		return AbortNoPreferences
	case EventNoProducts:
		return AbortNoProducts
	default:
		return AbortNone
	}
}

// classifyCollection reads the collector transcript.
func classifyCollection(t *chat.Transcript) (Event, string) {
	prefs, ok := ExtractPreferences(t.Messages())
	if !ok {
		return EventNoPreferences, ""
	}
	return EventPreferencesFound, prefs
}

// classifyRetrieval reads the retriever transcript.
func classifyRetrieval(t *chat.Transcript) (Event, string) {
	content := strings.TrimSpace(t.LastContent())
	if content == "" {
		return EventNoProducts, ""
	}
	return EventProductsFound, content
}
