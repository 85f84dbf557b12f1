package caption

import (
	"errors"
	"strings"
)

// extractObject returns the first balanced {...} span in the reply. The
// scanner tracks string literals and escapes so braces inside values do not
// end the span early. Captioning replies often wrap the object in prose or a
// markdown code fence; both are tolerated. A second object in the same reply
// is ambiguous and rejected instead of guessed at.
func extractObject(raw string) (string, error) {
	text := trimCodeFence(strings.TrimSpace(raw))
	if text == "" {
		return "", errors.New("empty reply")
	}

	first, rest, err := scanObject(text)
	if err != nil {
		return "", err
	}
	if _, _, err := scanObject(rest); err == nil {
		return "", errors.New("reply contains more than one JSON object")
	}
	return first, nil
}

// scanObject finds the first balanced object in text and returns it together
// with the remainder of the input after it.
func scanObject(text string) (string, string, error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", "", errors.New("no JSON object in reply")
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], text[i+1:], nil
			}
		}
	}
	return "", "", errors.New("unbalanced JSON object in reply")
}

func trimCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```JSON")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)
	if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
		trimmed = trimmed[:idx]
	}
	return strings.TrimSpace(trimmed)
}
