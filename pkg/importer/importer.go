// Package importer turns downloaded statistics files into counts.
//
// Two file formats are handled: the headerless monthly CSV exported from
// the Sonatype statistics UI, and a simple name,count baseline CSV used to
// seed NuGet totals. Maven exports accumulate into a per-package ledger so
// overlapping exports never double-count a month.
package importer

import (
	"strconv"
	"strings"

	"github.com/matzehuels/pkgtally/pkg/errors"
)

// ParseCount parses a download count cell. Plain integers are accepted as
// are comma-grouped values and K/M suffixed abbreviations ("132.2K").
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0, errors.New(errors.ErrCodeInvalidCSV, "empty count cell")
	}

	multiplier := int64(1)
	switch {
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		multiplier = 1_000
		s = s[:len(s)-1]
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		multiplier = 1_000_000
		s = s[:len(s)-1]
	}

	if multiplier > 1 {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 {
			return 0, errors.New(errors.ErrCodeInvalidCSV, "invalid count value: %s", s)
		}
		return int64(f * float64(multiplier)), nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, errors.New(errors.ErrCodeInvalidCSV, "invalid count value: %s", s)
	}
	return n, nil
}
