package apimeta

import (
	"strings"
)

// extractList pulls the entries of a declared list literal out of an API
// artifact by structural pattern match. The expected shape is an assignment
// whose right-hand side is a bracketed list, one entry per line (inline
// single-line lists are also accepted). Anything that does not match the
// shape yields an empty result, never an error.
func extractList(data []byte) []string {
	if len(data) == 0 {
		return nil
	}

	var entries []string
	inList := false

	for _, raw := range strings.Split(string(data), "\n") {
		line := stripComment(raw)
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !inList {
			eq := strings.Index(line, "=")
			if eq < 0 {
				continue
			}
			open := strings.Index(line[eq:], "[")
			if open < 0 {
				continue
			}
			rest := line[eq+open+1:]
			if close := strings.Index(rest, "]"); close >= 0 {
				entries = append(entries, splitEntries(rest[:close])...)
				return entries
			}
			entries = append(entries, splitEntries(rest)...)
			inList = true
			continue
		}

		if close := strings.Index(line, "]"); close >= 0 {
			entries = append(entries, splitEntries(line[:close])...)
			return entries
		}
		entries = append(entries, splitEntries(line)...)
	}

	// Unterminated list: treat the artifact as malformed and empty.
	if inList {
		return nil
	}
	return entries
}

func splitEntries(segment string) []string {
	var out []string
	for _, part := range strings.Split(segment, ",") {
		entry := strings.TrimSpace(part)
		entry = strings.Trim(entry, `"'`)
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		out = append(out, entry)
	}
	return out
}

func stripComment(line string) string {
	idx := strings.Index(line, "#")
	if idx < 0 {
		return line
	}
	// Keep a # that sits inside a quoted entry.
	if strings.Count(line[:idx], `"`)%2 != 0 || strings.Count(line[:idx], `'`)%2 != 0 {
		return line
	}
	return line[:idx]
}
