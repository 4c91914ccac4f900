package importer

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/matzehuels/pkgtally/pkg/errors"
)

// Ledger accumulates monthly download counts across overlapping exports.
// Keys are calendar months ("YYYY-MM"); merging an export replaces the
// months it covers and inserts the rest, so re-importing the same file is
// a no-op.
type Ledger struct {
	Months  map[string]int64 `json:"months"`
	Updated time.Time        `json:"updated"`
}

// LoadLedger reads a ledger from path. A missing file yields an empty
// ledger so first imports need no setup.
func LoadLedger(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Ledger{Months: map[string]int64{}}, nil
		}
		return nil, errors.Wrap(errors.ErrCodeParse, err, "failed to read ledger: %s", path)
	}

	var l Ledger
	if err := json.Unmarshal(data, &l); err != nil {
		return nil, errors.Wrap(errors.ErrCodeParse, err, "malformed ledger: %s", path)
	}
	if l.Months == nil {
		l.Months = map[string]int64{}
	}
	return &l, nil
}

// Merge folds counts into the ledger, month by month.
func (l *Ledger) Merge(counts []MonthCount) {
	for _, c := range counts {
		l.Months[c.Month] = c.Count
	}
	l.Updated = time.Now().UTC()
}

// Save writes the ledger to path, creating parent directories as needed.
func (l *Ledger) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to create ledger directory")
	}
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to encode ledger")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "failed to write ledger: %s", path)
	}
	return nil
}

// Total sums every month in the ledger.
func (l *Ledger) Total() int64 {
	var total int64
	for _, count := range l.Months {
		total += count
	}
	return total
}

// TotalAfter sums the months strictly after cutover ("YYYY-MM"). An empty
// cutover sums everything.
func (l *Ledger) TotalAfter(cutover string) int64 {
	var total int64
	for month, count := range l.Months {
		if cutover == "" || month > cutover {
			total += count
		}
	}
	return total
}

// Span returns the earliest and latest months present, or empty strings
// for an empty ledger.
func (l *Ledger) Span() (first, last string) {
	if len(l.Months) == 0 {
		return "", ""
	}
	months := make([]string, 0, len(l.Months))
	for m := range l.Months {
		months = append(months, m)
	}
	sort.Strings(months)
	return months[0], months[len(months)-1]
}
