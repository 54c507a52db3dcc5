package usecase

import (
	"regexp"
	"strings"

	"cosmetics-assistant/internal/domain"
)

// ResponseParser turns free-text backend replies into typed values. Both
// methods are total: malformed input yields defaults, never an error.
type ResponseParser interface {
	ParseIngredientAnalysis(name, raw string) domain.IngredientAnalysis
	ParseAssistantReply(raw string) domain.AssistantReply
}

const (
	keyScientificName = "scientific name"
	keyDescription    = "description"
	keyStatus         = "status"
	keyCommonUses     = "common uses"
	keySafetyNotes    = "safety notes"
	keyAlternatives   = "alternatives"
)

var (
	// Leading bullets, headings and "1." / "2)" numbering in front of a key.
	listMarker  = regexp.MustCompile(`^[\s\-*•#]*(?:\d+[.)]\s*)?`)
	replyStatus = regexp.MustCompile(`(?i)status:[\s*]*(safe|caution|avoid)`)
	explanation = regexp.MustCompile(`(?i)explanation:`)
)

// TextParser matches "Key: Value" lines against a fixed key set.
type TextParser struct{}

// ParseIngredientAnalysis reads one "Key: Value" pair per line, splitting on
// the first colon. Unknown keys are ignored and a later line overrides an
// earlier one with the same key. The returned name is always name.
func (TextParser) ParseIngredientAnalysis(name, raw string) domain.IngredientAnalysis {
	out := domain.IngredientAnalysis{
		Name:   name,
		Status: domain.StatusCaution,
	}

	for _, line := range strings.Split(raw, "\n") {
		key, value, ok := splitKeyValue(line)
		if !ok {
			continue
		}
		switch key {
		case keyScientificName:
			out.ScientificName = value
		case keyDescription:
			out.Description = value
		case keyStatus:
			out.Status = statusFromText(value)
		case keyCommonUses:
			out.CommonUses = splitList(value)
		case keySafetyNotes:
			out.SafetyNotes = value
		case keyAlternatives:
			out.Alternatives = splitList(value)
		}
	}
	return out
}

// ParseAssistantReply extracts an optional status token and an optional
// explanation line. Either may be missing.
func (TextParser) ParseAssistantReply(raw string) domain.AssistantReply {
	var out domain.AssistantReply

	if m := replyStatus.FindStringSubmatch(raw); m != nil {
		st := domain.Status(strings.ToLower(m[1]))
		out.Status = &st
	}

	for _, line := range strings.Split(raw, "\n") {
		loc := explanation.FindStringIndex(line)
		if loc == nil {
			continue
		}
		rest := line[loc[1]:]
		out.Explanation = strings.TrimSpace(strings.TrimLeft(rest, "* \t"))
		break
	}
	return out
}

func splitKeyValue(line string) (string, string, bool) {
	line = strings.TrimRight(line, "\r")
	idx := strings.Index(line, ":")
	if idx < 0 {
		return "", "", false
	}
	key := listMarker.ReplaceAllString(line[:idx], "")
	key = strings.ToLower(strings.TrimSpace(strings.Trim(key, "* \t")))
	value := strings.TrimSpace(strings.TrimLeft(line[idx+1:], "* \t"))
	return key, value, true
}

// statusFromText applies the priority safe > avoid > caution. A value that
// mentions both "safe" and "avoid" resolves to safe.
func statusFromText(value string) domain.Status {
	v := strings.ToLower(value)
	switch {
	case strings.Contains(v, string(domain.StatusSafe)):
		return domain.StatusSafe
	case strings.Contains(v, string(domain.StatusAvoid)):
		return domain.StatusAvoid
	default:
		return domain.StatusCaution
	}
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
