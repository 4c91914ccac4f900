package stats

import (
	"fmt"
	"slices"
)

type cellKey struct {
	pkg string
	reg Registry
}

// Table is the aggregated download matrix keyed (package, registry).
//
// A Table is rebuilt from scratch on every run; it is never mutated
// incrementally across runs. Cells without a recorded entry read as zero,
// which is a valid state (a package simply not published on a registry),
// never an error.
//
// Totals are always recomputed from the stored entries, so the row/column/
// grand identities hold by construction. Table is a pure in-memory value
// with no I/O; it is not safe for concurrent mutation.
type Table struct {
	packages   []string
	registries []Registry
	cells      map[cellKey]Entry
}

// NewTable creates an empty table over the given registry columns.
// Packages are added implicitly, in first-Add order, which keeps report
// row order deterministic for a fixed input order.
func NewTable(registries []Registry) *Table {
	if len(registries) == 0 {
		registries = AllRegistries
	}
	return &Table{
		registries: slices.Clone(registries),
		cells:      make(map[cellKey]Entry),
	}
}

// AddPackage registers a package row without recording any counts.
// Useful so packages with no successful observation still appear in the
// report (as all-zero rows) instead of vanishing.
func (t *Table) AddPackage(pkg string) {
	if !slices.Contains(t.packages, pkg) {
		t.packages = append(t.packages, pkg)
	}
}

// Add records an entry, replacing any previous entry for the same cell.
// Replacement (not accumulation) is what makes rebuilds idempotent: adding
// the same observation twice cannot double-count.
func (t *Table) Add(e Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if !slices.Contains(t.registries, e.Registry) {
		return fmt.Errorf("registry %q is not a column of this table", e.Registry)
	}
	t.AddPackage(e.Package)
	t.cells[cellKey{e.Package, e.Registry}] = e
	return nil
}

// Packages returns the package rows in insertion order.
func (t *Table) Packages() []string { return slices.Clone(t.packages) }

// Registries returns the registry columns in report order.
func (t *Table) Registries() []Registry { return slices.Clone(t.registries) }

// Entry returns the recorded entry for a cell and whether one exists.
func (t *Table) Entry(pkg string, reg Registry) (Entry, bool) {
	e, ok := t.cells[cellKey{pkg, reg}]
	return e, ok
}

// Count returns the count for a cell. Missing cells read as zero.
func (t *Table) Count(pkg string, reg Registry) int64 {
	return t.cells[cellKey{pkg, reg}].Count
}

// RowTotal returns the sum of all registry counts for one package.
func (t *Table) RowTotal(pkg string) int64 {
	var sum int64
	for _, reg := range t.registries {
		sum += t.Count(pkg, reg)
	}
	return sum
}

// ColumnTotal returns the sum of all package counts for one registry.
func (t *Table) ColumnTotal(reg Registry) int64 {
	var sum int64
	for _, pkg := range t.packages {
		sum += t.Count(pkg, reg)
	}
	return sum
}

// GrandTotal returns the sum over every cell.
func (t *Table) GrandTotal() int64 {
	var sum int64
	for _, pkg := range t.packages {
		sum += t.RowTotal(pkg)
	}
	return sum
}

// CrossCheck verifies the totals identities: the sum of row totals and the
// sum of column totals must both equal the grand total. A failure means a
// cell was recorded outside the declared rows/columns, which Add prevents,
// so this is a cheap invariant probe for tests and the pipeline.
func (t *Table) CrossCheck() error {
	var byRows, byCols int64
	for _, pkg := range t.packages {
		byRows += t.RowTotal(pkg)
	}
	for _, reg := range t.registries {
		byCols += t.ColumnTotal(reg)
	}
	grand := t.GrandTotal()
	if byRows != grand || byCols != grand {
		return fmt.Errorf("totals mismatch: rows=%d cols=%d grand=%d", byRows, byCols, grand)
	}
	return nil
}
