package packet

import (
	"encoding/json"
	"fmt"
	"strings"
)

// SplitArray consumes a top-level JSON array literal and returns its
// elements as verbatim substrings. Nested objects, arrays, and quoted
// strings (including escaped quotes) are skipped over, so an element that
// is itself a composite value comes back unsplit. Elements are not
// validated beyond delimiter balance; the caller decides how deep to look.
func SplitArray(literal string) ([]string, error) {
	s := strings.TrimSpace(literal)
	if !strings.HasPrefix(s, "[") {
		return nil, fmt.Errorf("not a JSON array literal: %.20q", literal)
	}

	var (
		elems    []string
		start    = 1
		depth    = 0 // nesting inside the top-level array
		inString = false
		escaped  = false
	)

	flush := func(end int) {
		elem := strings.TrimSpace(s[start:end])
		if elem != "" {
			elems = append(elems, elem)
		}
	}

	for i := 1; i < len(s); i++ {
		ch := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{', '[':
			depth++
		case '}':
			depth--
		case ']':
			if depth == 0 {
				flush(i)
				if rest := strings.TrimSpace(s[i+1:]); rest != "" {
					return nil, fmt.Errorf("trailing data after array literal: %.20q", rest)
				}
				return elems, nil
			}
			depth--
		case ',':
			if depth == 0 {
				flush(i)
				start = i + 1
			}
		}
	}

	return nil, fmt.Errorf("unterminated array literal: %.20q", literal)
}

// Unquote decodes a JSON string element into its text value. Elements that
// are not quoted strings are returned unchanged, so callers can treat
// scalar reply arguments uniformly.
func Unquote(elem string) (string, error) {
	t := strings.TrimSpace(elem)
	if !strings.HasPrefix(t, `"`) {
		return t, nil
	}
	var s string
	if err := json.Unmarshal([]byte(t), &s); err != nil {
		return "", fmt.Errorf("invalid string literal %.20q: %w", elem, err)
	}
	return s, nil
}
