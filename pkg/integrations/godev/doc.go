// Package godev scrapes pkg.go.dev for imported-by counts.
//
// The Go module proxy exposes no reliable download metric, so the
// imported-by count shown on pkg.go.dev is used as a low-confidence
// adoption signal instead. Counts from this package are always marked
// advisory and reported as such.
package godev
