// Package pipeline implements the row transformation stages used to flatten
// irregular category tables.
//
// Each stage is a pure function from rows to rows. A Directive selects which
// stages run for a variable; the stages always run in the same fixed order,
// whatever order the directive keys appear in.
package pipeline
