package data

import (
	"errors"
	"strings"
)

var ErrNoObject = errors.New("no json object in answer")

// SanitizeAnswer cuts the first complete top-level JSON object out of a model
// reply, skipping markdown fences and any prose around it.
func SanitizeAnswer(ans string) (string, error) {
	start := strings.IndexByte(ans, '{')
	for start >= 0 {
		if end := matchBrace(ans[start:]); end > 0 {
			return ans[start : start+end], nil
		}
		next := strings.IndexByte(ans[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", ErrNoObject
}

// matchBrace returns the length of the balanced object at the head of s, or 0.
func matchBrace(s string) int {
	depth := 0
	inString := false
	escaped := false
	for i := 0; i < len(s); i++ {
		c := s[i]
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
				return i + 1
			}
		}
	}
	return 0
}
