package pipeline

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/pfrederiksen/census-dict/internal/logger"
	"github.com/pfrederiksen/census-dict/internal/overrides"
)

// Stage names, in the order they run
const (
	StageStripBlanks      = "strip-blanks"
	StageHyphenSplit      = "hyphen-split"
	StageFilterSubheading = "filter-subheadings"
	StageFilterMultiLevel = "filter-multilevel"
	StageExpandNumeric    = "expand-numeric-range"
)

const (
	hyphenSep              = " - "
	supplementaryCodesMark = "Supplementary Codes"
)

// Func transforms a set of rows without modifying its input
type Func func(rows [][]string) [][]string

// Stage is a named row transformation
type Stage struct {
	Name  string
	Apply Func
}

type stageDef struct {
	name    string
	enabled func(d overrides.Directive) bool
	build   func(d overrides.Directive) Func
}

// stageOrder is the fixed running order
var stageOrder = []stageDef{
	{
		name:    StageStripBlanks,
		enabled: func(d overrides.Directive) bool { return d.Indented },
		build:   func(overrides.Directive) Func { return StripBlanks },
	},
	{
		name:    StageHyphenSplit,
		enabled: func(d overrides.Directive) bool { return d.HyphenSep },
		build:   func(overrides.Directive) Func { return HyphenSplit },
	},
	{
		name:    StageFilterSubheading,
		enabled: func(d overrides.Directive) bool { return d.Subheadings },
		build:   func(overrides.Directive) Func { return FilterSubheadings },
	},
	{
		name:    StageFilterMultiLevel,
		enabled: func(d overrides.Directive) bool { return d.MultiLevel },
		build:   func(overrides.Directive) Func { return FilterMultiLevel },
	},
	{
		name:    StageExpandNumeric,
		enabled: func(d overrides.Directive) bool { return d.Numeric != nil },
		build:   func(d overrides.Directive) Func { return ExpandNumericRange(*d.Numeric) },
	},
}

// Stages returns the stages a directive enables, in running order
func Stages(d overrides.Directive) []Stage {
	stages := make([]Stage, 0, len(stageOrder))
	for _, def := range stageOrder {
		if def.enabled(d) {
			stages = append(stages, Stage{Name: def.name, Apply: def.build(d)})
		}
	}
	return stages
}

// StageNames lists the names of the stages a directive enables
func StageNames(d overrides.Directive) []string {
	stages := Stages(d)
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return names
}

// Apply runs stages over rows in the given order
func Apply(rows [][]string, stages []Stage) [][]string {
	for _, s := range stages {
		before := len(rows)
		rows = s.Apply(rows)
		logger.Debug("stage applied", logger.Fields{
			"stage":       s.Name,
			"rows_before": before,
			"rows_after":  len(rows),
		})
	}
	return rows
}

// Run applies every stage the directive enables
func Run(rows [][]string, d overrides.Directive) [][]string {
	return Apply(rows, Stages(d))
}

// StripBlanks removes empty cells from each row. Indented tables pad nested
// levels with empty cells; this collapses them into dense rows.
func StripBlanks(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		dense := make([]string, 0, len(row))
		for _, cell := range row {
			if cell != "" {
				dense = append(dense, cell)
			}
		}
		out = append(out, dense)
	}
	return out
}

// HyphenSplit splits single-cell "<code> - <label>" rows into two cells on the
// first separator. A single-cell "Supplementary Codes" row opens an appendix
// and is dropped.
func HyphenSplit(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) != 1 {
			out = append(out, row)
			continue
		}
		if row[0] == supplementaryCodesMark {
			continue
		}
		if code, label, ok := strings.Cut(row[0], hyphenSep); ok {
			out = append(out, []string{code, label})
			continue
		}
		out = append(out, row)
	}
	return out
}

// FilterSubheadings drops rows with fewer than two cells
func FilterSubheadings(rows [][]string) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if len(row) >= 2 {
			out = append(out, row)
		}
	}
	return out
}

// FilterMultiLevel keeps only the rows whose first cell is as long as the
// longest first cell. Hierarchical classifications encode depth in code
// length, so these are the most detailed level.
func FilterMultiLevel(rows [][]string) [][]string {
	maxLen := 0
	for _, row := range rows {
		if n := firstCellLen(row); n > maxLen {
			maxLen = n
		}
	}

	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		if firstCellLen(row) == maxLen {
			out = append(out, row)
		}
	}
	return out
}

func firstCellLen(row []string) int {
	if len(row) == 0 {
		return 0
	}
	return utf8.RuneCountInString(row[0])
}

// ExpandNumericRange returns a stage that replaces the placeholder row whose
// first cell equals n.Code with one row per integer in [n.From, n.To].
func ExpandNumericRange(n overrides.Numeric) Func {
	return func(rows [][]string) [][]string {
		out := make([][]string, 0, len(rows)+n.To-n.From+1)
		expanded := false
		for _, row := range rows {
			if expanded || len(row) == 0 || row[0] != n.Code {
				out = append(out, row)
				continue
			}
			out = append(out, numericRows(n)...)
			expanded = true
		}
		if !expanded {
			logger.Warn("numeric placeholder row not found", logger.Fields{
				"placeholder": n.Code,
			})
		}
		return out
	}
}

func numericRows(n overrides.Numeric) [][]string {
	rows := make([][]string, 0, n.To-n.From+1)
	for i := n.From; i <= n.To; i++ {
		unit := n.Plural
		if i == 1 {
			unit = n.Singular
		}
		rows = append(rows, []string{
			fmt.Sprintf("%0*d", n.Digits, i),
			strings.TrimSpace(strconv.Itoa(i) + " " + unit),
		})
	}
	return rows
}
