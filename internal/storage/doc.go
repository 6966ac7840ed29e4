// Package storage provides file-based persistence for census-dict.
//
// The page cache keeps the raw HTML of every fetched page under a cache
// directory, one file per variable code (CODE.html) plus varindex.html for the
// index, so repeated runs need not touch the network. The default cache
// location is ~/.cache/census-dict/htmls. The finished dictionary is written as
// indented JSON.
package storage
