package dictionary

import (
	"context"
	"fmt"
	"time"

	"github.com/pfrederiksen/census-dict/internal/categories"
	"github.com/pfrederiksen/census-dict/internal/logger"
	"github.com/pfrederiksen/census-dict/internal/overrides"
	"github.com/pfrederiksen/census-dict/internal/pipeline"
	"github.com/pfrederiksen/census-dict/internal/table"
	"github.com/pfrederiksen/census-dict/internal/variable"
)

// PageFetcher returns the raw markup of a variable's page. key identifies the
// page for caching.
type PageFetcher interface {
	Fetch(ctx context.Context, key, url string) (string, error)
}

// Outcome describes how a variable's categories were resolved
type Outcome string

const (
	OutcomeExtracted   Outcome = "extracted"
	OutcomeSkipped     Outcome = "skipped"
	OutcomeSubstituted Outcome = "substituted"
	OutcomeFailed      Outcome = "failed"
)

// Result records the outcome for one variable
type Result struct {
	Code       string
	Outcome    Outcome
	Categories int
	Err        error
}

// Report summarises a build
type Report struct {
	Results []Result
}

// Count returns the number of results with the given outcome
func (r *Report) Count(outcome Outcome) int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == outcome {
			n++
		}
	}
	return n
}

// Failed returns the results that failed
func (r *Report) Failed() []Result {
	var failed []Result
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			failed = append(failed, res)
		}
	}
	return failed
}

// Builder resolves categories for variables
type Builder struct {
	fetcher  PageFetcher
	registry *overrides.Registry
	opts     categories.Options
}

// NewBuilder creates a Builder. A nil registry behaves as an empty one.
func NewBuilder(fetcher PageFetcher, registry *overrides.Registry, opts categories.Options) *Builder {
	if registry == nil {
		registry, _ = overrides.Load("")
	}
	return &Builder{
		fetcher:  fetcher,
		registry: registry,
		opts:     opts,
	}
}

// Build resolves categories for every variable, in order. The input
// variables are not modified; the dictionary holds copies. Build only fails
// when ctx is done.
func (b *Builder) Build(ctx context.Context, vars []*variable.Variable) (*variable.Dictionary, *Report, error) {
	dict := &variable.Dictionary{Variables: make([]*variable.Variable, 0, len(vars))}
	report := &Report{Results: make([]Result, 0, len(vars))}

	logger.SetGauge("variables.total", float64(len(vars)))

	for _, v := range vars {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		start := time.Now()
		cats, outcome, err := b.Categories(ctx, v)
		logger.RecordTiming("variable.build", time.Since(start))
		logger.IncrCounter("variables.processed")

		if err != nil && ctx.Err() != nil {
			return nil, report, ctx.Err()
		}

		entry := *v
		entry.Categories = cats
		dict.Variables = append(dict.Variables, &entry)
		report.Results = append(report.Results, Result{
			Code:       v.Code,
			Outcome:    outcome,
			Categories: len(cats),
			Err:        err,
		})

		fields := logger.Fields{"code": v.Code, "outcome": string(outcome)}
		switch outcome {
		case OutcomeFailed:
			logger.IncrCounter("variables.failed")
			logger.Error("category extraction failed", fields, err)
		case OutcomeSkipped:
			logger.IncrCounter("variables.skipped")
			logger.Info("skipping categories", fields)
		case OutcomeSubstituted:
			logger.IncrCounter("variables.substituted")
			logger.AddCounter("categories.extracted", int64(len(cats)))
		default:
			logger.AddCounter("categories.extracted", int64(len(cats)))
			fields["categories"] = len(cats)
			logger.Debug("categories extracted", fields)
		}
	}

	return dict, report, nil
}

// Categories resolves the category list of a single variable. On failure the
// returned list is nil and the outcome is OutcomeFailed.
func (b *Builder) Categories(ctx context.Context, v *variable.Variable) ([]variable.Category, Outcome, error) {
	directive, hasDirective := b.registry.Lookup(v.Code)

	if hasDirective && directive.Skip {
		return nil, OutcomeSkipped, nil
	}

	if hasDirective && directive.File != "" {
		cats, err := categories.LoadFile(b.registry.ResolveFile(directive.File))
		if err != nil {
			return nil, OutcomeFailed, err
		}
		return cats, OutcomeSubstituted, nil
	}

	t, err := b.Table(ctx, v)
	if err != nil {
		return nil, OutcomeFailed, err
	}

	cats, err := categories.Normalize(t, b.opts)
	if err != nil {
		return nil, OutcomeFailed, fmt.Errorf("normalizing categories: %w", err)
	}
	return cats, OutcomeExtracted, nil
}

// Table fetches a variable's page, extracts its table and applies the
// pipeline stages enabled by the variable's directive.
func (b *Builder) Table(ctx context.Context, v *variable.Variable) (*variable.Table, error) {
	directive, hasDirective := b.registry.Lookup(v.Code)

	markup, err := b.fetcher.Fetch(ctx, v.Code, v.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching page: %w", err)
	}

	t, err := table.Extract(markup, directive.MultiTable)
	if err != nil {
		return nil, fmt.Errorf("extracting table: %w", err)
	}

	if t.Empty() {
		logger.Warn("table has no head or rows", logger.Fields{"code": v.Code})
	}

	if hasDirective {
		t.Rows = pipeline.Run(t.Rows, directive)
	}
	return t, nil
}
