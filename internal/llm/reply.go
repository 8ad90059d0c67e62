package llm

import (
	"regexp"
	"strings"
)

// quotedSentences matches a quote not preceded by a backslash, one or more sentences ending
// in . ! or ?, and a closing quote.
var quotedSentences = regexp.MustCompile(`(?:^|[^\\])['"]((?:.*?[.!?])+)['"]`)

// ExtractReply picks the rephrased sentence out of a model completion. Models tend to answer
// with `original -> "rephrased."`; only the text after the last arrow is searched. When no
// quoted sentence is found the literal text is returned unchanged.
func ExtractReply(candidate, literal string) string {
	text := candidate
	if idx := strings.LastIndex(candidate, "->"); idx >= 0 {
		text = candidate[idx+2:]
	}

	for _, m := range quotedSentences.FindAllStringSubmatch(text, -1) {
		if s := strings.TrimSpace(m[1]); s != "" {
			return s
		}
	}
	return literal
}
