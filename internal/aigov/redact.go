package aigov

import "regexp"

// PII patterns shared by leak detection and redaction. Redaction runs on
// every event before persistence so raw sensitive text is never retained
// in the log store or audit trail.
var piiPatterns = []struct {
	kind string
	re   *regexp.Regexp
}{
	{"SSN", regexp.MustCompile(`\b\d{3}-\d{2}-\d{4}\b`)},
	{"CARD", regexp.MustCompile(`\b(?:\d[ -]?){13,16}\b`)},
	{"EMAIL", regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)},
	{"SECRET", regexp.MustCompile(`(?i)\b(?:api[_-]?key|secret|password|token)\s*[:=]\s*\S+`)},
}

// Redact replaces every PII match with a [KIND-REDACTED] marker.
func Redact(text string) string {
	for _, p := range piiPatterns {
		text = p.re.ReplaceAllString(text, "["+p.kind+"-REDACTED]")
	}
	return text
}

// containsPII reports whether any PII pattern matches and returns the
// kinds found.
func containsPII(text string) []string {
	var kinds []string
	for _, p := range piiPatterns {
		if p.re.MatchString(text) {
			kinds = append(kinds, p.kind)
		}
	}
	return kinds
}
