package importer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/pkgtally/pkg/errors"
)

func TestParseCount(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "plain integer", input: "12345", want: 12345},
		{name: "comma grouped", input: "1,234,567", want: 1234567},
		{name: "kilo suffix", input: "132.2K", want: 132200},
		{name: "mega suffix", input: "1.5M", want: 1500000},
		{name: "lowercase suffix", input: "3k", want: 3000},
		{name: "whitespace", input: " 42 ", want: 42},
		{name: "zero", input: "0", want: 0},
		{name: "negative", input: "-5", wantErr: true},
		{name: "garbage", input: "downloads", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %d", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCount(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}
	return path
}

func TestParseMonthly(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "stats.csv", "10\n20\n30\n")
	exportDate := time.Date(2024, 12, 15, 9, 30, 0, 0, time.UTC)

	counts, err := ParseMonthly(path, exportDate)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []MonthCount{
		{Month: "2023-12", Count: 10},
		{Month: "2024-01", Count: 20},
		{Month: "2024-02", Count: 30},
	}
	if len(counts) != len(want) {
		t.Fatalf("got %d months, want %d", len(counts), len(want))
	}
	for i, w := range want {
		if counts[i] != w {
			t.Errorf("row %d = %+v, want %+v", i, counts[i], w)
		}
	}
}

func TestParseMonthly_Malformed(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{name: "non numeric row", content: "10\nbogus\n30\n"},
		{name: "empty file", content: ""},
		{name: "too many rows", content: "1\n2\n3\n4\n5\n6\n7\n8\n9\n10\n11\n12\n13\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeCSV(t, dir, tt.name+".csv", tt.content)
			_, err := ParseMonthly(path, time.Now())
			if !errors.Is(err, errors.ErrCodeInvalidCSV) {
				t.Errorf("expected INVALID_CSV error, got %v", err)
			}
		})
	}
}

func TestParseMonthly_NotFound(t *testing.T) {
	_, err := ParseMonthly(filepath.Join(t.TempDir(), "missing.csv"), time.Now())
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("expected FILE_NOT_FOUND error, got %v", err)
	}
}

func TestLedger_MergeReplacesMonths(t *testing.T) {
	l := &Ledger{Months: map[string]int64{}}
	l.Merge([]MonthCount{
		{Month: "2024-01", Count: 100},
		{Month: "2024-02", Count: 200},
	})
	l.Merge([]MonthCount{
		{Month: "2024-02", Count: 250}, // corrected figure wins
		{Month: "2024-03", Count: 300},
	})

	if got := l.Months["2024-02"]; got != 250 {
		t.Errorf("2024-02 = %d, want 250", got)
	}
	if got := l.Total(); got != 650 {
		t.Errorf("Total() = %d, want 650", got)
	}
}

func TestLedger_TotalAfter(t *testing.T) {
	l := &Ledger{Months: map[string]int64{
		"2023-11": 10,
		"2023-12": 20,
		"2024-01": 40,
		"2024-02": 80,
	}}

	if got := l.TotalAfter("2023-12"); got != 120 {
		t.Errorf("TotalAfter(2023-12) = %d, want 120", got)
	}
	if got := l.TotalAfter(""); got != 150 {
		t.Errorf("TotalAfter(\"\") = %d, want 150", got)
	}
	if got := l.TotalAfter("2024-02"); got != 0 {
		t.Errorf("TotalAfter(2024-02) = %d, want 0", got)
	}
}

func TestLedger_SaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "ledger.json")
	l := &Ledger{Months: map[string]int64{"2024-05": 123}}
	if err := l.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := LoadLedger(path)
	if err != nil {
		t.Fatalf("LoadLedger failed: %v", err)
	}
	if loaded.Months["2024-05"] != 123 {
		t.Errorf("loaded ledger = %+v", loaded.Months)
	}

	first, last := loaded.Span()
	if first != "2024-05" || last != "2024-05" {
		t.Errorf("Span() = %s, %s", first, last)
	}
}

func TestLedger_LoadMissing(t *testing.T) {
	l, err := LoadLedger(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(l.Months) != 0 {
		t.Errorf("expected empty ledger, got %+v", l.Months)
	}
}

func TestMaven_ImportAndTotal(t *testing.T) {
	dataDir := t.TempDir()
	m := NewMaven(dataDir)

	// Twelve months ending 2024-12, exported early January 2025.
	content := "100\n100\n100\n100\n100\n100\n2000\n2000\n2000\n2000\n2000\n1241\n"
	path := writeCSV(t, dataDir, filepath.Join("maven", "cdk-databrew-cicd.csv"), content)
	exportDate := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(path, exportDate, exportDate); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}

	if err := m.Import("cdk-databrew-cicd"); err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	// Baseline frozen at 2024-06; only the six later months contribute.
	total, err := m.Total("cdk-databrew-cicd", 40_000, "2024-06")
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 51_241 {
		t.Errorf("Total = %d, want 51241", total)
	}

	// Re-importing the same export must not double-count.
	if err := m.Import("cdk-databrew-cicd"); err != nil {
		t.Fatalf("re-Import failed: %v", err)
	}
	total, err = m.Total("cdk-databrew-cicd", 40_000, "2024-06")
	if err != nil {
		t.Fatalf("Total after re-import failed: %v", err)
	}
	if total != 51_241 {
		t.Errorf("Total after re-import = %d, want 51241", total)
	}
}

func TestMaven_ImportMissingCSV(t *testing.T) {
	m := NewMaven(t.TempDir())
	if err := m.Import("cdk-lambda-subminute"); err != nil {
		t.Fatalf("expected nil for missing CSV, got %v", err)
	}

	total, err := m.Total("cdk-lambda-subminute", 500, "2024-01")
	if err != nil {
		t.Fatalf("Total failed: %v", err)
	}
	if total != 500 {
		t.Errorf("Total = %d, want baseline 500", total)
	}
}

func TestMaven_MalformedCSVIsolated(t *testing.T) {
	dataDir := t.TempDir()
	m := NewMaven(dataDir)

	writeCSV(t, dataDir, filepath.Join("maven", "broken.csv"), "not,a,count\n")
	good := writeCSV(t, dataDir, filepath.Join("maven", "good.csv"), "10\n20\n")
	mt := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	if err := os.Chtimes(good, mt, mt); err != nil {
		t.Fatalf("failed to set mtime: %v", err)
	}

	if err := m.Import("broken"); !errors.Is(err, errors.ErrCodeInvalidCSV) {
		t.Errorf("expected INVALID_CSV for broken package, got %v", err)
	}
	if err := m.Import("good"); err != nil {
		t.Errorf("good package should import despite broken sibling: %v", err)
	}
}

func TestParseNuGetBaseline(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "baseline.csv", "package,downloads\nDotted.Caps,132.2K\nOther.Package,450\n")

	counts, err := ParseNuGetBaseline(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if counts["Dotted.Caps"] != 132_200 {
		t.Errorf("Dotted.Caps = %d, want 132200", counts["Dotted.Caps"])
	}
	if counts["Other.Package"] != 450 {
		t.Errorf("Other.Package = %d, want 450", counts["Other.Package"])
	}
}

func TestParseNuGetBaseline_Malformed(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bad.csv", "OnlyOneColumn\n")

	if _, err := ParseNuGetBaseline(path); !errors.Is(err, errors.ErrCodeInvalidCSV) {
		t.Errorf("expected INVALID_CSV error, got %v", err)
	}
}

func TestNuGet_Baseline(t *testing.T) {
	dir := t.TempDir()
	n := NewNuGet(dir)

	// No baseline file recorded.
	if _, ok := n.Baseline("Dotted.Caps"); ok {
		t.Error("Baseline() found a value without a file")
	}

	if err := os.MkdirAll(filepath.Dir(n.BaselinePath()), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(n.BaselinePath(), []byte("Dotted.Caps,132.2K\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	count, ok := n.Baseline("Dotted.Caps")
	if !ok || count != 132_200 {
		t.Errorf("Baseline() = %d, %v, want 132200, true", count, ok)
	}
	if _, ok := n.Baseline("Other.Package"); ok {
		t.Error("Baseline() found a value for an unrecorded package")
	}
}
