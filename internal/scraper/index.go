package scraper

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/pfrederiksen/census-dict/internal/logger"
	"github.com/pfrederiksen/census-dict/internal/storage"
	"github.com/pfrederiksen/census-dict/internal/table"
	"github.com/pfrederiksen/census-dict/internal/variable"
)

// indexColumns is the number of cells in an index row: code, name, topic,
// release and the "New" marker. The marker cell is missing when blank.
const indexColumns = 5

// LoadIndex fetches the variables index page and parses it
func (f *Fetcher) LoadIndex(ctx context.Context, indexURL, baseURL string) ([]*variable.Variable, error) {
	markup, err := f.Fetch(ctx, storage.IndexKey, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetching index: %w", err)
	}
	return ParseIndex(strings.NewReader(markup), baseURL)
}

// ParseIndex extracts one Variable per row of the index page's table.
// Detail page links are resolved against baseURL.
func ParseIndex(r io.Reader, baseURL string) ([]*variable.Variable, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	found := doc.Find(table.Selector).First()
	if found.Length() == 0 {
		return nil, fmt.Errorf("parsing index: %w", table.ErrMissingTable)
	}

	vars := make([]*variable.Variable, 0)
	found.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td")
		if cells.Length() == 0 {
			return // the header row sits in tbody
		}

		vals := make([]string, 0, indexColumns)
		cells.Each(func(_ int, c *goquery.Selection) {
			vals = append(vals, strings.TrimSpace(c.Text()))
		})
		for len(vals) < indexColumns {
			vals = append(vals, "")
		}
		if vals[0] == "" {
			return
		}

		href, _ := cells.First().Find("a").Attr("href")
		link := resolve(base, href)
		if link == "" && i == 0 {
			return // header row written with td cells
		}
		if link == "" {
			logger.Warn("index row has no link", logger.Fields{"code": vals[0]})
		}

		vars = append(vars, variable.NewVariable(vals[0], vals[1], vals[2], vals[3], vals[4], link))
	})

	return vars, nil
}

func resolve(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}
