// Package stats holds the aggregation core: the download matrix keyed
// (package, registry) with row, column, and grand totals.
//
// Aggregation is a pure function of its input entries. The [Table] is
// rebuilt fully on every run, missing cells read as zero, and adding an
// entry replaces the cell rather than accumulating, so re-running with the
// same inputs always yields an identical table.
package stats
