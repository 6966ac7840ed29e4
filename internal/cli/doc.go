// Package cli implements the command-line interface for census-dict.
//
// The cli package provides the Cobra-based CLI. The build command fetches the
// variables index and every variable page, extracts and normalizes category
// tables according to the override file, and writes the dictionary JSON. The
// index, categories and overrides commands inspect individual pieces of a run.
package cli
