// Package pypi provides a client for PyPI download statistics.
//
// Cumulative totals come from pepy.tech, a public aggregator over PyPI's
// download dataset, since PyPI exposes no download-count endpoint of its
// own. Release metadata (first release date) comes from the PyPI JSON API.
package pypi
