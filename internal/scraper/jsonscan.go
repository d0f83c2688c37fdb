package scraper

import (
	"strconv"
	"strings"
)

// ExtractBalancedJSON returns the JSON object starting at start, found by
// walking brace depth with an explicit string/escape state machine so that
// braces inside string values never corrupt the count. maxLength of 0
// means scan to the end of text.
func ExtractBalancedJSON(text string, start int, maxLength int) (string, bool) {
	if start < 0 || start >= len(text) || text[start] != '{' {
		return "", false
	}
	end := len(text)
	if maxLength > 0 && start+maxLength < end {
		end = start + maxLength
	}

	depth := 0
	inString := false
	escapeNext := false

	for i := start; i < end; i++ {
		c := text[i]
		if escapeNext {
			escapeNext = false
			continue
		}
		if c == '\\' {
			escapeNext = true
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
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// FindEnclosingObject locates marker in text, scans backward to the
// nearest '{' and extracts the balanced object containing it.
func FindEnclosingObject(text, marker string, maxLength int) (string, bool) {
	idx := strings.Index(text, marker)
	if idx <= 0 {
		return "", false
	}
	start := strings.LastIndex(text[:idx], "{")
	if start < 0 {
		return "", false
	}
	return ExtractBalancedJSON(text, start, maxLength)
}

// UnescapeUnicode resolves \uXXXX sequences and the common backslash
// escapes in a JSON blob that was serialized inside a JavaScript string
// literal. Unknown escapes are kept as-is.
func UnescapeUnicode(s string) string {
	if !strings.Contains(s, "\\") {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			b.WriteByte(c)
			i++
			continue
		}
		switch s[i+1] {
		case 'u':
			if i+6 <= len(s) {
				if code, err := strconv.ParseUint(s[i+2:i+6], 16, 32); err == nil {
					b.WriteRune(rune(code))
					i += 6
					continue
				}
			}
			b.WriteByte(c)
			i++
		case 'n':
			b.WriteByte('\n')
			i += 2
		case 't':
			b.WriteByte('\t')
			i += 2
		case 'r':
			b.WriteByte('\r')
			i += 2
		case '"', '\'', '/', '\\':
			b.WriteByte(s[i+1])
			i += 2
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// Defensive walkers for the per-source response envelopes: any missing or
// mistyped key yields the zero value, never a panic.

func dig(m map[string]any, keys ...string) (map[string]any, bool) {
	cur := m
	for _, k := range keys {
		next, ok := cur[k].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func digSlice(m map[string]any, keys ...string) ([]any, bool) {
	if len(keys) == 0 {
		return nil, false
	}
	parent := m
	if len(keys) > 1 {
		var ok bool
		parent, ok = dig(m, keys[:len(keys)-1]...)
		if !ok {
			return nil, false
		}
	}
	s, ok := parent[keys[len(keys)-1]].([]any)
	return s, ok
}

func asString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if v, ok := m[k].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
