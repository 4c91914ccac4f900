package importer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/matzehuels/pkgtally/pkg/errors"
)

// ParseNuGetBaseline reads a name,count baseline CSV. Counts may use K/M
// suffixed abbreviations as shown on nuget.org ("132.2K"). A header row is
// skipped when the count cell is not numeric.
func ParseNuGetBaseline(path string) (map[string]int64, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "baseline file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeParse, err, "failed to open baseline file: %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCSV, err, "malformed baseline file: %s", path)
	}

	counts := make(map[string]int64, len(records))
	for i, record := range records {
		if len(record) < 2 {
			return nil, errors.New(errors.ErrCodeInvalidCSV, "row %d of %s: expected name,count", i+1, path)
		}
		name := strings.TrimSpace(record[0])
		if name == "" {
			return nil, errors.New(errors.ErrCodeInvalidCSV, "row %d of %s: empty package name", i+1, path)
		}
		count, err := ParseCount(record[1])
		if err != nil {
			if i == 0 {
				continue // header row
			}
			return nil, errors.Wrap(errors.ErrCodeInvalidCSV, err, "row %d of %s", i+1, path)
		}
		counts[name] = count
	}
	return counts, nil
}

// NuGet resolves frozen per-package counts recorded by hand before a run,
// used when the live registry fetch fails.
type NuGet struct {
	dataDir string
}

// NewNuGet creates a NuGet baseline reader rooted at the data directory.
func NewNuGet(dataDir string) *NuGet {
	return &NuGet{dataDir: dataDir}
}

// BaselinePath returns the location of the baseline CSV.
func (n *NuGet) BaselinePath() string {
	return filepath.Join(n.dataDir, "nuget", "baseline.csv")
}

// Baseline returns the recorded count for a NuGet package ID. A missing or
// unreadable baseline file means no baseline.
func (n *NuGet) Baseline(id string) (int64, bool) {
	counts, err := ParseNuGetBaseline(n.BaselinePath())
	if err != nil {
		return 0, false
	}
	count, ok := counts[id]
	return count, ok
}
