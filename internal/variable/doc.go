// Package variable provides the types that make up the census dictionary.
//
// A Variable describes one census variable as listed on the ABS variables
// index. Its Categories are the code/label pairs read from the variable's
// detail page. A Dictionary is the ordered collection of all variables and
// is the document written at the end of a run.
package variable
