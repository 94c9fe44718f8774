package expr

import (
	"fmt"
	"math"

	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

var (
	_ hcl.Expression = (*numberExpr)(nil)
	_ hcl.Expression = (*refExpr)(nil)
	_ hcl.Expression = (*unaryExpr)(nil)
	_ hcl.Expression = (*binaryExpr)(nil)
	_ hcl.Expression = (*parenExpr)(nil)
)

type numberExpr struct {
	val float64
	rng hcl.Range
}

func (e *numberExpr) Value(*hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	return cty.NumberFloatVal(e.val), nil
}

func (e *numberExpr) Variables() []hcl.Traversal { return nil }
func (e *numberExpr) Range() hcl.Range            { return e.rng }
func (e *numberExpr) StartRange() hcl.Range       { return e.rng }

type refExpr struct {
	traversal hcl.Traversal
	rng       hcl.Range
}

func (e *refExpr) Value(ctx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	v, diags := e.traversal.TraverseAbs(ctx)
	if diags.HasErrors() {
		return cty.UnknownVal(cty.Number), diags
	}
	if v.IsNull() {
		return cty.NullVal(cty.Number), nil
	}
	if !v.Type().Equals(cty.Number) {
		return cty.UnknownVal(cty.Number), hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid operand",
			Detail:   fmt.Sprintf("${%s} is a %s, not a number.", e.traversal.RootName(), v.Type().FriendlyName()),
			Subject:  e.rng.Ptr(),
		}}
	}
	return v, nil
}

func (e *refExpr) Variables() []hcl.Traversal { return []hcl.Traversal{e.traversal} }
func (e *refExpr) Range() hcl.Range            { return e.rng }
func (e *refExpr) StartRange() hcl.Range       { return e.rng }

type parenExpr struct {
	inner hcl.Expression
	rng   hcl.Range
}

func (e *parenExpr) Value(ctx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	return e.inner.Value(ctx)
}

func (e *parenExpr) Variables() []hcl.Traversal { return e.inner.Variables() }
func (e *parenExpr) Range() hcl.Range            { return e.rng }
func (e *parenExpr) StartRange() hcl.Range       { return e.inner.StartRange() }

type unaryExpr struct {
	negate  bool
	operand hcl.Expression
	rng     hcl.Range
	opRange hcl.Range
}

func (e *unaryExpr) Value(ctx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	v, diags := e.operand.Value(ctx)
	if diags.HasErrors() || v.IsNull() || !v.IsKnown() {
		return v, diags
	}
	if !e.negate {
		return v, diags
	}
	return cty.NumberFloatVal(-number(v)), diags
}

func (e *unaryExpr) Variables() []hcl.Traversal { return e.operand.Variables() }
func (e *unaryExpr) Range() hcl.Range            { return e.rng }
func (e *unaryExpr) StartRange() hcl.Range       { return e.opRange }

type binaryExpr struct {
	op       tokenType
	symbol   string
	lhs, rhs hcl.Expression
	rng      hcl.Range
	opRange  hcl.Range
}

func newBinary(op token, lhs, rhs hcl.Expression) *binaryExpr {
	return &binaryExpr{
		op:      op.typ,
		symbol:  op.text,
		lhs:     lhs,
		rhs:     rhs,
		rng:     hcl.RangeBetween(lhs.Range(), rhs.Range()),
		opRange: op.rng,
	}
}

func (e *binaryExpr) Value(ctx *hcl.EvalContext) (cty.Value, hcl.Diagnostics) {
	lhs, diags := e.lhs.Value(ctx)
	rhs, rhsDiags := e.rhs.Value(ctx)
	diags = append(diags, rhsDiags...)
	if diags.HasErrors() {
		return cty.UnknownVal(cty.Number), diags
	}
	if lhs.IsNull() || rhs.IsNull() {
		return cty.NullVal(cty.Number), diags
	}
	if !lhs.IsKnown() || !rhs.IsKnown() {
		return cty.UnknownVal(cty.Number), diags
	}

	a, b := number(lhs), number(rhs)
	var r float64
	switch e.op {
	case tokPlus:
		r = a + b
	case tokMinus:
		r = a - b
	case tokStar:
		r = a * b
	case tokSlash:
		if b == 0 {
			return cty.UnknownVal(cty.Number), append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Division by zero",
				Detail:   fmt.Sprintf("The divisor of %g / %g is zero.", a, b),
				Subject:  e.opRange.Ptr(),
				Context:  e.rng.Ptr(),
			})
		}
		r = a / b
	case tokCaret:
		r = math.Pow(a, b)
	}

	if math.IsNaN(r) || math.IsInf(r, 0) {
		return cty.UnknownVal(cty.Number), append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Non-finite result",
			Detail:   fmt.Sprintf("%g %s %g is not a finite number.", a, e.symbol, b),
			Subject:  e.opRange.Ptr(),
			Context:  e.rng.Ptr(),
		})
	}
	return cty.NumberFloatVal(r), diags
}

func (e *binaryExpr) Variables() []hcl.Traversal {
	return append(e.lhs.Variables(), e.rhs.Variables()...)
}

func (e *binaryExpr) Range() hcl.Range      { return e.rng }
func (e *binaryExpr) StartRange() hcl.Range { return e.lhs.StartRange() }

// number converts a known, non-null number to float64.
func number(v cty.Value) float64 {
	f, _ := v.AsBigFloat().Float64()
	return f
}
