package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/pfrederiksen/census-dict/internal/dictionary"
	"github.com/pfrederiksen/census-dict/internal/logger"
	"github.com/pfrederiksen/census-dict/internal/overrides"
	"github.com/pfrederiksen/census-dict/internal/pipeline"
	"github.com/pfrederiksen/census-dict/internal/variable"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

func parseFormat(s string) (OutputFormat, error) {
	format := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	if format != FormatText && format != FormatJSON {
		return "", fmt.Errorf("invalid format: %s (must be 'text' or 'json')", s)
	}
	return format, nil
}

// CategoriesResult is the JSON shape of the categories command
type CategoriesResult struct {
	Code       string              `json:"code"`
	Name       string              `json:"name"`
	Outcome    string              `json:"outcome"`
	Categories []variable.Category `json:"categories,omitempty"`
}

func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

// WriteIndex writes a variable listing
func WriteIndex(w io.Writer, vars []*variable.Variable, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, vars)
	}

	if len(vars) == 0 {
		fmt.Fprintln(w, "No variables found.")
		return nil
	}

	for _, v := range vars {
		marker := ""
		if v.New2021 {
			marker = " [new]"
		}
		fmt.Fprintf(w, "%-8s %s (%s)%s\n", v.Code, v.Name, v.Topic, marker)
	}
	fmt.Fprintf(w, "\nTotal: %d variables\n", len(vars))
	return nil
}

// WriteCategories writes the categories resolved for one variable
func WriteCategories(w io.Writer, v *variable.Variable, cats []variable.Category, outcome dictionary.Outcome, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, CategoriesResult{
			Code:       v.Code,
			Name:       v.Name,
			Outcome:    string(outcome),
			Categories: cats,
		})
	}

	fmt.Fprintf(w, "%s - %s\n", v.Code, v.Name)
	if outcome == dictionary.OutcomeSkipped {
		fmt.Fprintln(w, "  Categories skipped by override.")
		return nil
	}
	for _, c := range cats {
		fmt.Fprintf(w, "  %-10s %s\n", c.Code, c.Category)
	}
	fmt.Fprintf(w, "\nTotal: %d categories (%s)\n", len(cats), outcome)
	return nil
}

// WriteOverrides lists each configured variable and what its directive does
func WriteOverrides(w io.Writer, registry *overrides.Registry) error {
	if registry.Len() == 0 {
		fmt.Fprintln(w, "No overrides configured.")
		return nil
	}

	for _, code := range registry.Codes() {
		d, _ := registry.Lookup(code)
		fmt.Fprintf(w, "%-8s %s\n", code, describeDirective(d))
	}
	return nil
}

func describeDirective(d overrides.Directive) string {
	switch {
	case d.Skip:
		return "skip"
	case d.File != "":
		return "file " + d.File
	}

	parts := make([]string, 0)
	if d.MultiTable {
		parts = append(parts, "multitable")
	}
	parts = append(parts, pipeline.StageNames(d)...)
	if len(parts) == 0 {
		return "(no stages)"
	}
	return strings.Join(parts, ", ")
}

// WriteSummary writes per-outcome totals, failures and run metrics
func WriteSummary(w io.Writer, report *dictionary.Report, metrics logger.Snapshot) error {
	fmt.Fprintf(w, "\nExtracted:   %d\n", report.Count(dictionary.OutcomeExtracted))
	fmt.Fprintf(w, "Substituted: %d\n", report.Count(dictionary.OutcomeSubstituted))
	fmt.Fprintf(w, "Skipped:     %d\n", report.Count(dictionary.OutcomeSkipped))
	fmt.Fprintf(w, "Failed:      %d\n", report.Count(dictionary.OutcomeFailed))

	for _, res := range report.Failed() {
		fmt.Fprintf(w, "  %s: %v\n", res.Code, res.Err)
	}

	if len(metrics.Timings) > 0 {
		names := make([]string, 0, len(metrics.Timings))
		for name := range metrics.Timings {
			names = append(names, name)
		}
		sort.Strings(names)

		fmt.Fprintln(w, "\nTimings:")
		for _, name := range names {
			t := metrics.Timings[name]
			fmt.Fprintf(w, "  %-16s count=%d avg=%s max=%s\n", name, t.Count, t.Average, t.Max)
		}
	}
	return nil
}

// WriteDiff writes the differences between two dictionaries
func WriteDiff(w io.Writer, result *variable.DiffResult, format OutputFormat) error {
	if format == FormatJSON {
		return writeJSON(w, result)
	}

	if result.Empty() {
		fmt.Fprintln(w, "No differences found.")
		return nil
	}

	for _, v := range result.Added {
		fmt.Fprintf(w, "ADDED:   %s %s\n", v.Code, v.Name)
	}
	for _, v := range result.Removed {
		fmt.Fprintf(w, "REMOVED: %s %s\n", v.Code, v.Name)
	}
	for _, c := range result.Changed {
		fmt.Fprintf(w, "CHANGED: %s %s: %q -> %q\n", c.Code, c.ChangeType, c.OldValue, c.NewValue)
	}
	fmt.Fprintf(w, "\nTotal: %d added, %d removed, %d changed\n", len(result.Added), len(result.Removed), len(result.Changed))
	return nil
}
