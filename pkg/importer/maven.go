package importer

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/matzehuels/pkgtally/pkg/errors"
)

// monthFormat is the ledger key format for a calendar month.
const monthFormat = "2006-01"

// exportMonths is the window covered by a Sonatype statistics export.
const exportMonths = 12

// MonthCount is one month of download counts from a Sonatype export.
type MonthCount struct {
	Month string // "YYYY-MM"
	Count int64
}

// ParseMonthly reads a Sonatype statistics CSV. The file is headerless with
// a single count column; row N covers the month exportDate minus twelve
// months plus N. Files with more than twelve rows are rejected.
func ParseMonthly(path string, exportDate time.Time) ([]MonthCount, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "stats file not found: %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeParse, err, "failed to open stats file: %s", path)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidCSV, err, "malformed stats file: %s", path)
	}
	if len(records) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidCSV, "empty stats file: %s", path)
	}
	if len(records) > exportMonths {
		return nil, errors.New(errors.ErrCodeInvalidCSV, "stats file has %d rows, expected at most %d: %s", len(records), exportMonths, path)
	}

	start := time.Date(exportDate.Year(), exportDate.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -exportMonths, 0)
	counts := make([]MonthCount, 0, len(records))
	for i, record := range records {
		if len(record) == 0 {
			continue
		}
		count, err := ParseCount(record[0])
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidCSV, err, "row %d of %s", i+1, path)
		}
		counts = append(counts, MonthCount{
			Month: start.AddDate(0, i, 0).Format(monthFormat),
			Count: count,
		})
	}
	return counts, nil
}

// Maven imports Sonatype statistics exports from the data directory and
// maintains the per-package accumulation ledger.
type Maven struct {
	dataDir string
}

// NewMaven creates a Maven importer rooted at dataDir.
func NewMaven(dataDir string) *Maven {
	return &Maven{dataDir: dataDir}
}

// CSVPath returns where a fresh export for pkg is expected to land.
func (m *Maven) CSVPath(pkg string) string {
	return filepath.Join(m.dataDir, "maven", pkg+".csv")
}

// LedgerPath returns the accumulation ledger location for pkg.
func (m *Maven) LedgerPath(pkg string) string {
	return filepath.Join(m.dataDir, "maven", "accumulation", pkg+".json")
}

// Import merges a freshly exported CSV for pkg into the accumulation
// ledger. The export date is taken from the file's modification time. A
// missing CSV is not an error: the ledger simply stays as it is.
func (m *Maven) Import(pkg string) error {
	path := m.CSVPath(pkg)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.Wrap(errors.ErrCodeParse, err, "failed to stat stats file: %s", path)
	}

	counts, err := ParseMonthly(path, info.ModTime().UTC())
	if err != nil {
		return err
	}

	ledger, err := LoadLedger(m.LedgerPath(pkg))
	if err != nil {
		return err
	}
	ledger.Merge(counts)
	return ledger.Save(m.LedgerPath(pkg))
}

// Total returns the Java download total for pkg: the frozen baseline plus
// every ledger month strictly after the cutover month.
func (m *Maven) Total(pkg string, baseline int64, cutover string) (int64, error) {
	ledger, err := LoadLedger(m.LedgerPath(pkg))
	if err != nil {
		return 0, err
	}
	return baseline + ledger.TotalAfter(cutover), nil
}
