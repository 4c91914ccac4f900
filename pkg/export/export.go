// Package export defines the capability interface for pulling statistics
// files out of registry web UIs that have no download API.
package export

import "context"

// Coordinates identifies an artifact on a statistics page.
type Coordinates struct {
	GroupID    string
	ArtifactID string
}

// Supplier fetches a statistics CSV for the given coordinates and writes
// it to dest. Implementations own the mechanics (browser automation,
// pre-downloaded files); callers only see the file land or an error.
type Supplier interface {
	Supply(ctx context.Context, coord Coordinates, dest string) error
}

// Noop is a Supplier that does nothing. It stands in when exporting is
// skipped: no file appears and downstream consumers fall back to whatever
// was downloaded previously.
type Noop struct{}

// Supply implements Supplier.
func (Noop) Supply(context.Context, Coordinates, string) error { return nil }
