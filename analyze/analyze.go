// Package analyze computes dataset statistics over the profile store:
// per-field value distributions, distinct and missing counts, and totals.
package analyze

import (
	"context"
	"log/slog"
	"slices"

	"github.com/rishtahq/rishta/core"
	"github.com/rishtahq/rishta/storage"
)

// DefaultTopN is the number of top values reported per field.
const DefaultTopN = 10

// DefaultFields are the categorical fields analyzed when none are given.
var DefaultFields = []string{
	core.FieldGender,
	core.FieldMaritalStatus,
	core.FieldCaste,
	core.FieldSect,
	core.FieldState,
}

// ValueCount is one value of a field and how many profiles carry it.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// FieldStats summarizes the distribution of one field.
// An empty value counts as missing, never as a distinct value.
type FieldStats struct {
	Field    string       `json:"field"`
	Distinct int          `json:"distinct"`
	Missing  int          `json:"missing"`
	Top      []ValueCount `json:"top"`
}

// Report is the full analysis of the profile store.
type Report struct {
	Total  int          `json:"total"`
	Fields []FieldStats `json:"fields"`
}

// Analyzer computes reports over a profile repository.
type Analyzer struct {
	profiles storage.ProfileRepository
	topN     int
	logger   *slog.Logger
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithTopN sets how many top values are reported per field.
// Default is DefaultTopN; zero or negative means unlimited.
func WithTopN(n int) Option {
	return func(a *Analyzer) {
		a.topN = n
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger == nil {
			logger = slog.Default()
		}
		a.logger = logger.With("component", "analyze")
	}
}

// New creates an Analyzer over the given repository.
func New(profiles storage.ProfileRepository, opts ...Option) *Analyzer {
	a := &Analyzer{
		profiles: profiles,
		topN:     DefaultTopN,
		logger:   slog.Default().With("component", "analyze"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reports statistics for the given fields, or DefaultFields when
// none are given.
func (a *Analyzer) Analyze(ctx context.Context, fields ...string) (*Report, error) {
	if len(fields) == 0 {
		fields = DefaultFields
	}

	total, err := a.profiles.CountProfiles(ctx, storage.Filter{})
	if err != nil {
		return nil, err
	}

	report := &Report{Total: total, Fields: make([]FieldStats, 0, len(fields))}
	for _, field := range fields {
		stats, err := a.analyzeField(ctx, field, total)
		if err != nil {
			return nil, err
		}
		report.Fields = append(report.Fields, *stats)
	}
	return report, nil
}

func (a *Analyzer) analyzeField(ctx context.Context, field string, total int) (*FieldStats, error) {
	counts, err := a.profiles.FieldValues(ctx, field)
	if err != nil {
		return nil, err
	}

	present := 0
	top := make([]ValueCount, 0, len(counts))
	for value, count := range counts {
		present += count
		top = append(top, ValueCount{Value: value, Count: count})
	}

	// Most frequent first; equal counts ordered by value for stable output.
	slices.SortFunc(top, func(x, y ValueCount) int {
		if x.Count != y.Count {
			return y.Count - x.Count
		}
		if x.Value < y.Value {
			return -1
		}
		if x.Value > y.Value {
			return 1
		}
		return 0
	})

	stats := &FieldStats{
		Field:    field,
		Distinct: len(counts),
		Missing:  total - present,
	}
	if a.topN > 0 && len(top) > a.topN {
		top = top[:a.topN]
	}
	stats.Top = top
	return stats, nil
}
