// Package nuget provides a client for NuGet download statistics.
//
// Totals come from the NuGet search service (azuresearch-usnc.nuget.org),
// which reports the same cumulative totalDownloads number shown on
// nuget.org package pages, without scraping HTML.
package nuget
