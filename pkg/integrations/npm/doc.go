// Package npm provides a client for npm download statistics.
//
// Counts come from the public downloads API (api.npmjs.org), summed per
// day from the package's first publication date (read from
// registry.npmjs.org) through today. The downloads API caps each range
// query at 18 months, so the client stitches the full history together
// from consecutive windows.
package npm
