// Package overrides loads the per-variable override file.
//
// Most category pages follow a plain two-column layout. Pages that don't are
// described in a JSON file mapping variable code to a Directive that enables
// row transformation stages, merges multiple tables, substitutes a category
// list from a file, or skips the variable altogether.
package overrides
