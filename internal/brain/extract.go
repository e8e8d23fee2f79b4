package brain

import (
	"strings"

	"basegraph.app/recommender/internal/chat"
)

// TerminationMarker ends the preference interview. The collector's final
// message reads "CHECKING PRODUCTS BASED ON: <preferences>".
const TerminationMarker = "CHECKING PRODUCTS BASED ON"

const extractionMarker = TerminationMarker + ":"

// IsTerminationMessage reports whether msg carries the marker in any case.
func IsTerminationMessage(msg chat.Message) bool {
	return strings.Contains(strings.ToUpper(msg.Content), TerminationMarker)
}

// ExtractPreferences returns the text after the marker in the first message
// that contains it. The match is case-sensitive. A marker with nothing after
// it yields no preferences.
func ExtractPreferences(msgs []chat.Message) (string, bool) {
	for _, msg := range msgs {
		_, after, found := strings.Cut(msg.Content, extractionMarker)
		if !found {
			continue
		}
		prefs := strings.TrimSpace(after)
		return prefs, prefs != ""
	}
	return "", false
}

// MarkerMessage renders terms as the collector's closing line.
func MarkerMessage(terms []string) string {
	return extractionMarker + " " + FormatPreferenceList(terms)
}

// FormatPreferenceList renders terms as ['a', 'b'].
func FormatPreferenceList(terms []string) string {
	quoted := make([]string, 0, len(terms))
	for _, t := range terms {
		quoted = append(quoted, "'"+strings.ReplaceAll(t, "'", `\'`)+"'")
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// ParsePreferenceList splits extracted preferences into search terms.
// It accepts list literals like ['a', "b"] as well as bare comma lists.
func ParsePreferenceList(prefs string) []string {
	s := strings.TrimSpace(prefs)
	if open := strings.Index(s, "["); open >= 0 {
		if end := strings.LastIndex(s, "]"); end > open {
			s = s[open+1 : end]
		}
	}

	var terms []string
	for _, part := range strings.Split(s, ",") {
		term := strings.TrimSpace(part)
		term = strings.Trim(term, `'"`)
		term = strings.ReplaceAll(term, `\'`, "'")
		term = strings.TrimSpace(term)
		if term != "" {
			terms = append(terms, term)
		}
	}
	return terms
}
