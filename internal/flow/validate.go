package flow

import "strings"

// Validator checks whether a free-text answer has the expected shape for a field.
type Validator func(answer string) bool

// NonEmpty accepts any answer with at least one non-whitespace character.
func NonEmpty(answer string) bool {
	return strings.TrimSpace(answer) != ""
}

// EmailShaped accepts answers that contain an "@" with a "." somewhere after it.
func EmailShaped(answer string) bool {
	answer = strings.TrimSpace(answer)
	at := strings.Index(answer, "@")
	if at <= 0 {
		return false
	}
	rest := answer[at+1:]
	dot := strings.Index(rest, ".")
	return dot > 0 && dot < len(rest)-1
}

// ParseYesNo normalizes a free-text yes/no-style answer to a boolean.
// The second return value reports whether the answer was recognized.
func ParseYesNo(answer string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "yes", "y", "yeah", "yep", "sure", "ok", "si", "sí":
		return true, true
	case "no", "n", "nope", "nah":
		return false, true
	default:
		return false, false
	}
}
