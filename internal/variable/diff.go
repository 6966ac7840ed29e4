package variable

import (
	"fmt"
	"sort"
)

// Change kinds reported by DetectChanges
const (
	ChangeName       = "name"
	ChangeTopic      = "topic"
	ChangeRelease    = "release"
	ChangeURL        = "url"
	ChangeCategories = "categories"
)

// VariableChange represents one field that differs between two runs
type VariableChange struct {
	Code       string `json:"code"`
	ChangeType string `json:"change_type"`
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
}

// DiffResult contains the results of comparing two dictionaries
type DiffResult struct {
	Added   []*Variable       `json:"added"`
	Removed []*Variable       `json:"removed"`
	Changed []*VariableChange `json:"changed"`
}

// Empty reports whether the dictionaries were equivalent
func (r *DiffResult) Empty() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Changed) == 0
}

// Diff compares a previous dictionary with the current one. Variables are
// matched by code; results are sorted by code.
func Diff(previous, current *Dictionary) *DiffResult {
	result := &DiffResult{
		Added:   make([]*Variable, 0),
		Removed: make([]*Variable, 0),
		Changed: make([]*VariableChange, 0),
	}

	if previous == nil {
		previous = &Dictionary{}
	}
	if current == nil {
		current = &Dictionary{}
	}

	prevByCode := index(previous)
	curByCode := index(current)

	for code, cur := range curByCode {
		prev, exists := prevByCode[code]
		if !exists {
			result.Added = append(result.Added, cur)
			continue
		}
		result.Changed = append(result.Changed, DetectChanges(prev, cur)...)
	}
	for code, prev := range prevByCode {
		if _, exists := curByCode[code]; !exists {
			result.Removed = append(result.Removed, prev)
		}
	}

	sort.Slice(result.Added, func(i, j int) bool { return result.Added[i].Code < result.Added[j].Code })
	sort.Slice(result.Removed, func(i, j int) bool { return result.Removed[i].Code < result.Removed[j].Code })
	sort.SliceStable(result.Changed, func(i, j int) bool { return result.Changed[i].Code < result.Changed[j].Code })

	return result
}

func index(d *Dictionary) map[string]*Variable {
	m := make(map[string]*Variable, len(d.Variables))
	for _, v := range d.Variables {
		m[v.Code] = v
	}
	return m
}

// DetectChanges compares two versions of the same variable
func DetectChanges(previous, current *Variable) []*VariableChange {
	var changes []*VariableChange

	add := func(kind, oldValue, newValue string) {
		if oldValue != newValue {
			changes = append(changes, &VariableChange{
				Code:       current.Code,
				ChangeType: kind,
				OldValue:   oldValue,
				NewValue:   newValue,
			})
		}
	}

	add(ChangeName, previous.Name, current.Name)
	add(ChangeTopic, previous.Topic, current.Topic)
	add(ChangeRelease, previous.Release, current.Release)
	add(ChangeURL, previous.URL, current.URL)

	if !sameCategories(previous.Categories, current.Categories) {
		add(ChangeCategories, describeCategories(previous.Categories), describeCategories(current.Categories))
	}

	return changes
}

func sameCategories(a, b []Category) bool {
	if (a == nil) != (b == nil) || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func describeCategories(cats []Category) string {
	if cats == nil {
		return "none"
	}
	if len(cats) == 1 {
		return "1 category"
	}
	return fmt.Sprintf("%d categories", len(cats))
}
