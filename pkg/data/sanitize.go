package data

import (
	"encoding/json"
	"errors"
)

var ErrNoObject = errors.New("no JSON object in text")

// ExtractObject returns the first balanced, valid JSON object in s. Models often wrap
// structured output in prose or code fences; nested objects are allowed.
func ExtractObject(s string) (json.RawMessage, error) {
	for start := 0; start < len(s); start++ {
		if s[start] != '{' {
			continue
		}
		if end := closingBrace(s, start); end > 0 {
			candidate := s[start : end+1]
			if json.Valid([]byte(candidate)) {
				return json.RawMessage(candidate), nil
			}
		}
	}
	return nil, ErrNoObject
}

func closingBrace(s string, start int) int {
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			escaped = false
		case inString && c == '\\':
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
