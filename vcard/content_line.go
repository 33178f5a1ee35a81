package vcard

import "strings"

// contentLine is one unfolded, parsed RFC 6350 content line: an optional
// group prefix, the property name, its parameters, and the raw
// (still-escaped) value.
type contentLine struct {
	Group  string
	Name   string // upper-cased, e.g. "EMAIL", "X-AIM"
	Params map[string][]string
	Value  string
}

// unfold joins any line beginning with SP or HTAB onto the previous line,
// tolerating bare LF as well as CRLF (spec.md §4.2 step 1).
func unfold(data []byte) []string {
	raw := strings.ReplaceAll(string(data), "\r\n", "\n")
	split := strings.Split(raw, "\n")

	var lines []string
	for _, s := range split {
		if len(lines) > 0 && len(s) > 0 && (s[0] == ' ' || s[0] == '\t') {
			lines[len(lines)-1] += s[1:]
			continue
		}
		lines = append(lines, s)
	}
	return lines
}

// parseContentLine splits "[group.]name[;param=value...]:value" respecting
// double-quoted parameter values, which may themselves contain ':' or ';'.
func parseContentLine(raw string, lineNo int) (contentLine, error) {
	colonIdx := -1
	inQuotes := false
	for i := 0; i < len(raw); i++ {
		switch raw[i] {
		case '"':
			inQuotes = !inQuotes
		case ':':
			if !inQuotes {
				colonIdx = i
			}
		}
		if colonIdx >= 0 {
			break
		}
	}
	if colonIdx < 0 {
		return contentLine{}, newErr(MalformedContentLine, lineNo, "missing ':'")
	}

	head, value := raw[:colonIdx], raw[colonIdx+1:]
	segments := splitUnquoted(head, ';')
	if len(segments) == 0 || segments[0] == "" {
		return contentLine{}, newErr(MalformedContentLine, lineNo, "empty property name")
	}

	group, name := "", strings.ToUpper(segments[0])
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		group, name = name[:dot], name[dot+1:]
	}

	params := make(map[string][]string)
	for _, seg := range segments[1:] {
		eq := strings.IndexByte(seg, '=')
		if eq < 0 {
			return contentLine{}, newErr(MalformedParam, lineNo, "param missing '='")
		}
		key := strings.ToUpper(seg[:eq])
		val := seg[eq+1:]
		val = strings.TrimPrefix(val, `"`)
		val = strings.TrimSuffix(val, `"`)
		for _, tok := range splitUnquoted(val, ',') {
			params[key] = append(params[key], tok)
		}
	}

	return contentLine{Group: group, Name: name, Params: params, Value: value}, nil
}

// splitUnquoted splits s on sep, ignoring occurrences of sep inside a
// double-quoted span.
func splitUnquoted(s string, sep byte) []string {
	var out []string
	inQuotes := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			inQuotes = !inQuotes
		case sep:
			if !inQuotes {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}

func firstParam(params map[string][]string, key string) (string, bool) {
	vals, ok := params[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}
