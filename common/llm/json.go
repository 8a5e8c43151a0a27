package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var fenceRe = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)(?:```|$)")

// ExtractJSON pulls a JSON document out of raw model output. It strips
// markdown code fences (closed or truncated) and, when the document was cut
// off mid-generation, appends the missing closing brackets so the longest
// valid prefix survives. The returned string is best-effort; callers still
// unmarshal and handle errors.
func ExtractJSON(raw string) string {
	cleaned := strings.TrimSpace(raw)

	if m := fenceRe.FindStringSubmatch(cleaned); m != nil {
		cleaned = strings.TrimSpace(m[1])
	}

	if json.Valid([]byte(cleaned)) {
		return cleaned
	}

	repaired := repairTruncated(cleaned)
	if json.Valid([]byte(repaired)) {
		return repaired
	}

	return cleaned
}

// repairTruncated closes unbalanced braces/brackets on a truncated JSON
// document. Brackets inside string literals are ignored.
func repairTruncated(s string) string {
	var stack []rune
	inString := false
	escaped := false
	for _, r := range s {
		if escaped {
			escaped = false
			continue
		}
		switch r {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{', '[':
			if !inString {
				stack = append(stack, r)
			}
		case '}', ']':
			if !inString && len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}

	if len(stack) == 0 && !inString {
		return s
	}

	// A truncated string literal has to be terminated before closing
	// containers, and a dangling trailing comma dropped.
	repaired := s
	if inString {
		repaired += `"`
	}
	repaired = strings.TrimRight(repaired, ", \n\t")
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '{' {
			repaired += "}"
		} else {
			repaired += "]"
		}
	}
	return repaired
}
