// Package report renders a statistics table for humans: a markdown report
// for committing next to a README, and a styled terminal table for
// interactive runs.
package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/matzehuels/pkgtally/pkg/stats"
)

// FormatCount renders a count with comma grouping ("1234567" -> "1,234,567").
func FormatCount(n int64) string {
	s := strconv.FormatInt(n, 10)
	if n < 0 {
		return s
	}
	var b strings.Builder
	for i, digit := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(digit)
	}
	return b.String()
}

// cellSuffix marks counts that did not come from a live fetch.
func cellSuffix(e stats.Entry, ok bool) string {
	if ok && e.Source == stats.SourceStale {
		return "*"
	}
	return ""
}

// WriteMarkdown writes the full markdown report for t: one row per
// package, one column per registry, plus a totals row and column.
// Advisory registries are footnoted, stale counts are starred.
func WriteMarkdown(w io.Writer, t *stats.Table, generated time.Time) error {
	registries := t.Registries()

	var b strings.Builder
	b.WriteString("# Package Download Statistics\n\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", generated.Format("2006-01-02"))

	b.WriteString("| Package |")
	for _, reg := range registries {
		name := reg.DisplayName()
		if reg.Advisory() {
			name += " ¹"
		}
		fmt.Fprintf(&b, " %s |", name)
	}
	b.WriteString(" Total |\n")

	b.WriteString("| :--- |")
	for range registries {
		b.WriteString(" ---: |")
	}
	b.WriteString(" ---: |\n")

	hasStale := false
	for _, pkg := range t.Packages() {
		fmt.Fprintf(&b, "| %s |", pkg)
		for _, reg := range registries {
			entry, ok := t.Entry(pkg, reg)
			suffix := cellSuffix(entry, ok)
			if suffix != "" {
				hasStale = true
			}
			fmt.Fprintf(&b, " %s%s |", FormatCount(t.Count(pkg, reg)), suffix)
		}
		fmt.Fprintf(&b, " %s |\n", FormatCount(t.RowTotal(pkg)))
	}

	b.WriteString("| **Total** |")
	for _, reg := range registries {
		fmt.Fprintf(&b, " **%s** |", FormatCount(t.ColumnTotal(reg)))
	}
	fmt.Fprintf(&b, " **%s** |\n", FormatCount(t.GrandTotal()))

	var notes []string
	for _, reg := range registries {
		if reg.Advisory() {
			notes = append(notes, "¹ "+reg.DisplayName()+" counts are pkg.go.dev importer counts, not downloads.")
			break
		}
	}
	if hasStale {
		notes = append(notes, "\\* Last-known value; the live fetch failed this run.")
	}
	if len(notes) > 0 {
		b.WriteString("\n")
		for _, note := range notes {
			b.WriteString(note + "\n")
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
