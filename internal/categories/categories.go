package categories

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/pfrederiksen/census-dict/internal/logger"
	"github.com/pfrederiksen/census-dict/internal/variable"
)

var (
	// ErrHeadingMismatch is returned when heading validation is on and the
	// first two headings are not "Code" and "Category"/"Categories".
	ErrHeadingMismatch = errors.New("unexpected table headings")

	// ErrShortRow is returned for a row with fewer than two cells
	ErrShortRow = errors.New("row has fewer than two cells")
)

// Options controls normalization
type Options struct {
	// ValidateHeadings checks the table head before reading rows
	ValidateHeadings bool
	// StrictASCII fails when a label still holds non-ASCII text after normalization
	StrictASCII bool
}

// Normalize converts a table into categories. The first cell of each row is
// the code and the second the label; further cells are ignored.
func Normalize(t *variable.Table, opts Options) ([]variable.Category, error) {
	if opts.ValidateHeadings {
		if err := checkHeadings(t.Head); err != nil {
			return nil, err
		}
	}

	cats := make([]variable.Category, 0, len(t.Rows))
	for i, row := range t.Rows {
		if len(row) < 2 {
			return nil, fmt.Errorf("row %d %q: %w", i, row, ErrShortRow)
		}

		label := NormalizeText(row[1])
		if opts.StrictASCII {
			if err := CheckASCII(label); err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
		}
		cats = append(cats, variable.Category{Code: row[0], Category: label})
	}

	if dups := DuplicateCodes(cats); len(dups) > 0 {
		logger.Warn("duplicate category codes", logger.Fields{
			"codes": dups,
		})
	}

	return cats, nil
}

func checkHeadings(head []string) error {
	if len(head) < 2 || head[0] != "Code" || (head[1] != "Category" && head[1] != "Categories") {
		return fmt.Errorf("%w: %q", ErrHeadingMismatch, head)
	}
	if len(head) > 2 {
		logger.Warn("additional columns found", logger.Fields{
			"columns": head[2:],
		})
	}
	return nil
}

// DuplicateCodes returns codes that occur more than once, in first-seen order
func DuplicateCodes(cats []variable.Category) []string {
	seen := make(map[string]int, len(cats))
	var dups []string
	for _, c := range cats {
		seen[c.Code]++
		if seen[c.Code] == 2 {
			dups = append(dups, c.Code)
		}
	}
	return dups
}

// LoadFile reads a substitution category list: a JSON array of
// {"code", "category"} objects used verbatim.
func LoadFile(path string) ([]variable.Category, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading category file: %w", err)
	}

	var cats []variable.Category
	if err := json.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("parsing category file %s: %w", path, err)
	}
	if cats == nil {
		cats = []variable.Category{}
	}
	return cats, nil
}
