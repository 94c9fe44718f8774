// Package evaluator computes the annual series described by a canonical
// recipe.
//
// The equation is parsed once. For every year of the domain a fresh
// hcl.EvalContext binds each referenced canonical name to that year's value:
// scalars contribute the same number to every year, series contribute the
// value stored for the year. A year where any referenced variable is null
// evaluates to null. Arithmetic failures in one year (division by zero, a
// non-finite result) make that year null and add a warning; the remaining
// years are still computed.
package evaluator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/recipegrid/internal/expr"
	"github.com/specialistvlad/recipegrid/internal/recipe"
	"github.com/specialistvlad/recipegrid/internal/series"
	"github.com/specialistvlad/recipegrid/internal/seriesstore"
	"github.com/zclconf/go-cty/cty"
)

// equationFilename labels equation ranges in diagnostics.
const equationFilename = "eq"

// Result is the output of Evaluate.
type Result struct {
	// Series holds every year of the domain.
	Series series.Annual
	// Warnings lists per-year arithmetic failures in year order.
	Warnings []string
}

// Evaluator evaluates canonical recipes against a series store.
type Evaluator struct {
	Store seriesstore.Store
}

// New creates an evaluator reading linked series from store.
func New(store seriesstore.Store) *Evaluator {
	return &Evaluator{Store: store}
}

// operand yields the value of one variable for a year key.
type operand func(key string) (float64, bool)

// Evaluate parses c.Eq and computes it for every year. It fails with an
// equation error when the equation does not parse or references an unbound
// name, and with a variables error when a linked series cannot be read.
func (e *Evaluator) Evaluate(ctx context.Context, c *recipe.Canonical) (*Result, error) {
	tree, diags := expr.Parse(c.Eq, equationFilename)
	if diags.HasErrors() {
		return nil, recipe.EquationError(diags, "cannot parse equation")
	}

	names := expr.References(tree)
	operands := make(map[string]operand, len(names))
	for _, name := range names {
		v, ok := c.Lookup(name)
		if !ok {
			return nil, recipe.EquationError(nil, fmt.Sprintf("reference ${%s} does not name a declared variable", name))
		}
		op, err := e.operand(ctx, name, v)
		if err != nil {
			return nil, err
		}
		operands[name] = op
	}

	res := &Result{Series: make(series.Annual, series.Len)}
	for _, key := range series.Keys() {
		scope, complete := bind(key, names, operands)
		if !complete {
			res.Series[key] = nil
			continue
		}

		v, diags := tree.Value(&hcl.EvalContext{Variables: scope})
		if diags.HasErrors() {
			res.Series[key] = nil
			for _, d := range diags {
				if d.Severity == hcl.DiagError {
					res.Warnings = append(res.Warnings, warning(key, d))
				}
			}
			continue
		}
		if v.IsNull() || !v.IsKnown() {
			res.Series[key] = nil
			continue
		}

		f, _ := v.AsBigFloat().Float64()
		if math.IsNaN(f) || math.IsInf(f, 0) {
			res.Series[key] = nil
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: non-finite result", key))
			continue
		}
		res.Series[key] = series.Float(f)
	}
	return res, nil
}

// operand loads a variable once so that per-year lookups never touch the store.
func (e *Evaluator) operand(ctx context.Context, name string, v recipe.Variable) (operand, error) {
	switch x := v.(type) {
	case recipe.Scalar:
		value := x.Value
		return func(string) (float64, bool) { return value, true }, nil

	case recipe.SeriesRef:
		entry, err := e.Store.Get(ctx, x.Link)
		if errors.Is(err, seriesstore.ErrNotFound) {
			return nil, &recipe.Error{Kind: recipe.KindVariables, Key: name, Msg: fmt.Sprintf("linked series %q does not exist", x.Link)}
		}
		if err != nil {
			return nil, &recipe.Error{Kind: recipe.KindVariables, Key: name, Msg: "cannot read linked series", Err: err}
		}
		data := entry.Data
		return func(key string) (float64, bool) {
			f, ok := data.Value(key)
			if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
				return 0, false
			}
			return f, true
		}, nil

	default:
		return nil, &recipe.Error{Kind: recipe.KindVariables, Key: name, Msg: fmt.Sprintf("unsupported variable %T", v)}
	}
}

// bind builds the evaluation scope for one year. It reports false when any
// referenced variable has no value for the year.
func bind(key string, names []string, operands map[string]operand) (map[string]cty.Value, bool) {
	scope := make(map[string]cty.Value, len(names))
	for _, name := range names {
		f, ok := operands[name](key)
		if !ok {
			return nil, false
		}
		scope[name] = cty.NumberFloatVal(f)
	}
	return scope, true
}

func warning(key string, d *hcl.Diagnostic) string {
	msg := strings.ToLower(d.Summary)
	if d.Subject != nil {
		return fmt.Sprintf("%s: %s at column %d", key, msg, d.Subject.Start.Column)
	}
	return fmt.Sprintf("%s: %s", key, msg)
}
