// Package table extracts category tables from ABS census dictionary pages.
//
// Pages mark their data tables with the "complex-table" class. Extract turns
// the first such table (or, in multi-table mode, all of them) into a
// variable.Table of trimmed cell text.
package table
