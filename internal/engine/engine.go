package engine

import (
	"context"
	"fmt"

	"github.com/specialistvlad/recipegrid/internal/evaluator"
	"github.com/specialistvlad/recipegrid/internal/recipe"
	"github.com/specialistvlad/recipegrid/internal/sanity"
	"github.com/specialistvlad/recipegrid/internal/series"
	"github.com/specialistvlad/recipegrid/internal/seriesstore"
	"github.com/specialistvlad/recipegrid/internal/vector"
)

// Engine runs recipes against one series store.
type Engine struct {
	store  seriesstore.Store
	policy vector.FillPolicy
	newID  func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithFillPolicy sets the policy used for every vector variable.
func WithFillPolicy(p vector.FillPolicy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithIDGenerator replaces the generator of series store ids.
func WithIDGenerator(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine backed by store.
func New(store seriesstore.Store, opts ...Option) *Engine {
	e := &Engine{store: store, policy: vector.DefaultPolicy, newID: seriesstore.NewID}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the fill policy in use.
func (e *Engine) Policy() vector.FillPolicy {
	return e.policy
}

// Prepared is a recipe that passed validation, parsing and renaming.
type Prepared struct {
	Recipe *recipe.Canonical
	// Entries are the series store entries created for this recipe, in
	// declaration order.
	Entries []seriesstore.Entry
	// Notes are informational, e.g. variables the equation never uses.
	Notes []string
	// Warnings are the advisory sanity check results.
	Warnings []string
}

// Report is the outcome of Run.
type Report struct {
	*Prepared
	Series series.Annual
	// EvaluationWarnings lists per-year arithmetic failures.
	EvaluationWarnings []string
}

// Prepare validates input and produces its canonical recipe. Entries for
// vectors and inline series are committed to the store only when every
// earlier step succeeded.
func (e *Engine) Prepare(ctx context.Context, input any) (*Prepared, error) {
	raw, err := recipe.Validate(input)
	if err != nil {
		return nil, err
	}

	parser := &recipe.Parser{Store: e.store, Policy: e.policy, NewID: e.newID}
	parsed, err := parser.Parse(ctx, raw)
	if err != nil {
		return nil, err
	}

	canonical, notes, err := recipe.Rename(parsed)
	if err != nil {
		return nil, err
	}

	if err := parsed.Commit(ctx, e.store); err != nil {
		return nil, fmt.Errorf("failed to commit series entries: %w", err)
	}

	return &Prepared{
		Recipe:   canonical,
		Entries:  parsed.Pending,
		Notes:    notes,
		Warnings: sanity.Check(sanityInput(parsed)),
	}, nil
}

// Evaluate computes the series of an already prepared recipe.
func (e *Engine) Evaluate(ctx context.Context, c *recipe.Canonical) (*evaluator.Result, error) {
	return evaluator.New(e.store).Evaluate(ctx, c)
}

// Run prepares input and evaluates it.
func (e *Engine) Run(ctx context.Context, input any) (*Report, error) {
	prepared, err := e.Prepare(ctx, input)
	if err != nil {
		return nil, err
	}
	res, err := e.Evaluate(ctx, prepared.Recipe)
	if err != nil {
		return nil, err
	}
	return &Report{Prepared: prepared, Series: res.Series, EvaluationWarnings: res.Warnings}, nil
}

// sanityInput groups parsed variables the way the sanity checker expects:
// scalars by value, vectors by their literal elements, series by their
// materialized data.
func sanityInput(p *recipe.Parsed) sanity.Input {
	var in sanity.Input
	for _, v := range p.Variables {
		switch src := v.Source.(type) {
		case recipe.RawScalar:
			if s, ok := v.Canonical.(recipe.Scalar); ok {
				in.Scalars = append(in.Scalars, sanity.Scalar{Name: v.Name, Value: s.Value})
			}
		case recipe.RawVector:
			in.Vectors = append(in.Vectors, sanity.Vector{Name: v.Name, Values: src.Values})
		case recipe.RawSeriesLink, recipe.RawSeriesValue:
			in.Series = append(in.Series, sanity.Series{Name: v.Name, Data: v.Data})
		}
	}
	return in
}
