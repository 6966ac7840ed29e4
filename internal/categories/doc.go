// Package categories turns transformed category tables into code/label pairs.
package categories
