package variable

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Variable represents one census variable from the variables index.
// Categories is nil when extraction was skipped or failed; an empty list
// means the table held no categories.
type Variable struct {
	Code       string     `json:"code"`
	Name       string     `json:"name"`
	Topic      string     `json:"topic"`
	Release    string     `json:"release"`
	New2021    bool       `json:"new_2021"`
	URL        string     `json:"url"`
	Categories []Category `json:"categories,omitempty"`
}

// MarshalJSON omits the categories key only when Categories is nil
func (v Variable) MarshalJSON() ([]byte, error) {
	type plain Variable
	out := struct {
		plain
		Categories *[]Category `json:"categories,omitempty"`
	}{plain: plain(v)}
	if v.Categories != nil {
		out.Categories = &v.Categories
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(out); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Category is a single code/label pair describing a possible value of a variable
type Category struct {
	Code     string `json:"code"`
	Category string `json:"category"`
}

// Dictionary is the final document produced by a run
type Dictionary struct {
	Variables []*Variable `json:"variables"`
}

// Table is the generic shape of an HTML category table: header cells plus
// data rows of trimmed cell text. A page without a table yields an empty Table.
type Table struct {
	Head []string
	Rows [][]string
}

// NewVariable creates a Variable from the cells of an index row.
// The "new" column is free text; any value mentioning "New" marks the variable as new.
func NewVariable(code, name, topic, release, newText, url string) *Variable {
	return &Variable{
		Code:    code,
		Name:    name,
		Topic:   topic,
		Release: release,
		New2021: strings.Contains(newText, "New"),
		URL:     url,
	}
}

// Empty reports whether the table has no head and no rows
func (t *Table) Empty() bool {
	return t == nil || (len(t.Head) == 0 && len(t.Rows) == 0)
}

// Find returns the variable with the given code, or nil
func (d *Dictionary) Find(code string) *Variable {
	for _, v := range d.Variables {
		if v.Code == code {
			return v
		}
	}
	return nil
}

// CategorizedCount returns how many variables carry a category list
func (d *Dictionary) CategorizedCount() int {
	n := 0
	for _, v := range d.Variables {
		if v.Categories != nil {
			n++
		}
	}
	return n
}
