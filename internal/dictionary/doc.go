// Package dictionary builds the census dictionary from the variables index.
//
// A Builder walks the variables in index order. For each one it looks up an
// override directive, fetches and extracts the category table, runs the
// enabled pipeline stages and normalizes the rows into categories, or skips
// the variable or substitutes a category file when the directive says so.
// A failure only costs the variable it happened on: its categories are
// omitted and the run moves on.
package dictionary
