// Package scraper fetches ABS census dictionary pages and parses the variables index.
//
// Fetcher retrieves pages over HTTP with a polite rate limit and retries
// transient failures with exponential backoff. Pages are served from and
// written to a storage.PageCache keyed by variable code when one is
// configured. ParseIndex turns the variables index page into Variables.
package scraper
