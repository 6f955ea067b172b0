package extractor

import (
	"encoding/json"
	"strings"

	"github.com/yungbote/flora-backend/internal/domain/learning"
)

// Extract looks for a course draft inside one completed assistant turn.
//
// The candidate is the span from the first '{' to the last '}' in text. This is
// not a balanced-brace scan: prose braces before or after a JSON block, or two
// JSON blocks in one turn, widen the span and the decode fails. A miss is not an
// error; the turn is simply prose.
func Extract(text string) (*learning.CourseDraft, bool) {
	span, ok := greedySpan(text)
	if !ok {
		return nil, false
	}
	var draft learning.CourseDraft
	if err := json.Unmarshal([]byte(span), &draft); err != nil {
		return nil, false
	}
	if !draft.Usable() {
		return nil, false
	}
	return &draft, true
}

func greedySpan(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}
	end := strings.LastIndexByte(text, '}')
	if end < start {
		return "", false
	}
	return text[start : end+1], true
}
