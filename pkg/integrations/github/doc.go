// Package github provides a client for the GitHub traffic API.
//
// Clone counts supplement the pkg.go.dev imported-by signal for Go
// packages, since the Go ecosystem has no download-count API. The traffic
// endpoints require a token with push access to the repository and only
// report a trailing 14-day window.
package github
