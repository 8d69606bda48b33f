package report

import (
	"fmt"
	"io"
	"sort"

	"engineguard/internal/boundary"
)

// WriteText prints violations in a linter-style file:line:column layout,
// grouped by file, followed by a per-tier summary. Paths are shown relative
// to projectRoot when possible.
func WriteText(w io.Writer, projectRoot string, violations []boundary.Violation) error {
	if len(violations) == 0 {
		_, err := fmt.Fprintln(w, "No boundary violations found.")
		return err
	}

	sorted := make([]boundary.Violation, len(violations))
	copy(sorted, violations)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Location, sorted[j].Location
		if a.File != b.File {
			return a.File < b.File
		}
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})

	counts := make(map[boundary.Tier]int)
	lastFile := ""
	for _, v := range sorted {
		counts[v.Tier]++
		uri := relativeURI(projectRoot, v.Location.File)
		if uri != lastFile {
			if lastFile != "" {
				if _, err := fmt.Fprintln(w); err != nil {
					return err
				}
			}
			if _, err := fmt.Fprintf(w, "%s\n", uri); err != nil {
				return err
			}
			lastFile = uri
		}
		if _, err := fmt.Fprintf(w, "  %d:%d\t[%s]\t%s\n",
			v.Location.Line, v.Location.Column, v.Tier, v.Message); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%d violation(s): %d standard, %d strong inbound, %d strong outbound\n",
		len(sorted),
		counts[boundary.TierStandard],
		counts[boundary.TierStrongInbound],
		counts[boundary.TierStrongOutbound])
	return err
}
