package table

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pfrederiksen/census-dict/internal/logger"
	"github.com/pfrederiksen/census-dict/internal/variable"
)

// Selector matches the elements that hold category tables
const Selector = ".complex-table"

// ErrMissingTable is returned when a page has no element matching Selector
var ErrMissingTable = errors.New("no complex-table found")

// Extract parses markup and builds a Table from its complex tables.
//
// With multi unset only the first table is used. With multi set the body rows
// of every table are concatenated in document order and the head is taken
// from the first table.
func Extract(markup string, multi bool) (*variable.Table, error) {
	return ExtractFromReader(strings.NewReader(markup), multi)
}

// ExtractFromReader is Extract for a reader
func ExtractFromReader(r io.Reader, multi bool) (*variable.Table, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return fromDocument(doc, multi)
}

func fromDocument(doc *goquery.Document, multi bool) (*variable.Table, error) {
	found := doc.Find(Selector)
	if found.Length() == 0 {
		return &variable.Table{}, ErrMissingTable
	}

	if found.Length() > 1 && !multi {
		logger.Warn("multiple tables found, using first", logger.Fields{
			"tables": found.Length(),
		})
		found = found.First()
	}

	result := &variable.Table{}
	found.Each(func(i int, sel *goquery.Selection) {
		t := tableOf(sel)
		if i == 0 {
			result.Head = head(t)
		}
		result.Rows = append(result.Rows, bodyRows(t)...)
	})

	return result, nil
}

// tableOf returns the table element for a match. The marker class is usually
// on the table itself but some pages put it on a wrapping element.
func tableOf(sel *goquery.Selection) *goquery.Selection {
	if goquery.NodeName(sel) == "table" {
		return sel
	}
	return sel.Find("table").First()
}

func head(t *goquery.Selection) []string {
	cells := t.ChildrenFiltered("thead").Find("tr").First().ChildrenFiltered("th, td")
	if cells.Length() == 0 {
		// Header row sitting in the body instead of a thead
		cells = rowsOf(t).First().ChildrenFiltered("th")
	}
	return cellTexts(cells)
}

func bodyRows(t *goquery.Selection) [][]string {
	rows := make([][]string, 0)
	rowsOf(t).Each(func(_ int, tr *goquery.Selection) {
		if tr.ChildrenFiltered("td").Length() == 0 {
			return // header-only row
		}
		rows = append(rows, cellTexts(tr.ChildrenFiltered("th, td")))
	})
	return rows
}

// rowsOf returns the direct body rows of a table, ignoring nested tables
func rowsOf(t *goquery.Selection) *goquery.Selection {
	rows := t.ChildrenFiltered("tbody").ChildrenFiltered("tr")
	if rows.Length() == 0 {
		rows = t.ChildrenFiltered("tr")
	}
	return rows
}

func cellTexts(cells *goquery.Selection) []string {
	texts := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		texts = append(texts, strings.TrimSpace(c.Text()))
	})
	return texts
}
