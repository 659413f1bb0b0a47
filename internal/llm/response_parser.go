package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/theogognf/toi/pkg/types"
)

// ExtractJSON pulls the first complete JSON object out of model output,
// tolerating markdown code fences and surrounding prose. Text without an
// object is returned trimmed so the decoder reports the failure.
func ExtractJSON(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	text = strings.TrimSpace(text)

	start := strings.Index(text, "{")
	if start == -1 {
		return text
	}

	depth := 0
	inString := false
	escape := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escape {
			escape = false
			continue
		}
		if c == '\\' {
			escape = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1]
			}
		}
	}
	return text
}

// DecodeJSON extracts and decodes a JSON object from model output. Failures
// are UpstreamParse errors.
func DecodeJSON[T any](text string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(ExtractJSON(text)), &out); err != nil {
		return out, types.UpstreamParse(fmt.Errorf("model returned invalid JSON: %w", err))
	}
	return out, nil
}
