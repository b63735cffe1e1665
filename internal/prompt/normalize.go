package prompt

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	jsonFenceStart = regexp.MustCompile("^```json\\s*")
	jsonFenceEnd   = regexp.MustCompile("\\s*```$")
)

// StripJSONFence removes a ```json ... ``` wrapper from s. Text that is not
// wrapped in such a fence pair is returned unchanged. The contents are not
// validated as JSON.
func StripJSONFence(s string) string {
	trimmed := strings.TrimSpace(s)
	if !jsonFenceStart.MatchString(trimmed) || !jsonFenceEnd.MatchString(trimmed) {
		return s
	}
	out := jsonFenceStart.ReplaceAllString(trimmed, "")
	out = jsonFenceEnd.ReplaceAllString(out, "")
	return strings.TrimSpace(out)
}

// EstimateTokens approximates a token count as one token per four characters,
// rounded up.
func EstimateTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}
