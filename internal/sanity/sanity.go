// Package sanity produces advisory warnings about numerically risky recipe
// variables. It never fails and never blocks a recipe.
//
// Variables are checked per group: scalars by value, vectors by their
// literal elements (before any gap filling) and data series by their
// materialized values. Rules within a group are independent, so one
// variable can produce several warnings.
package sanity

import (
	"fmt"
	"math"

	"github.com/specialistvlad/recipegrid/internal/series"
	"github.com/specialistvlad/recipegrid/internal/vector"
)

const (
	// HugeMagnitude is the absolute value above which numbers are flagged.
	HugeMagnitude = 1e12
	// TinyMagnitude is the absolute value below which non-zero scalars are flagged.
	TinyMagnitude = 1e-12
	// MaxLength is the element (or resolved year) count above which a vector
	// or series is flagged as very long.
	MaxLength = 50
	// MinLength is the count below which a vector or series is flagged as very short.
	MinLength = 2
)

// Scalar is a named scalar variable.
type Scalar struct {
	Name  string
	Value float64
}

// Vector is a named literal vector, as the user wrote it.
type Vector struct {
	Name   string
	Values []any
}

// Series is a named materialized series.
type Series struct {
	Name string
	Data series.Annual
}

// Input groups the variables of one recipe by kind. Each group keeps the
// recipe's declaration order.
type Input struct {
	Scalars []Scalar
	Vectors []Vector
	Series  []Series
}

// Check runs every rule and returns the warnings in a stable order:
// scalars, then vectors, then series.
func Check(in Input) []string {
	var warnings []string
	warnings = append(warnings, CheckScalars(in.Scalars)...)
	warnings = append(warnings, CheckVectors(in.Vectors)...)
	warnings = append(warnings, CheckSeries(in.Series)...)
	return warnings
}

// CheckScalars flags huge, near-zero, negative and zero scalars.
func CheckScalars(scalars []Scalar) []string {
	var warnings []string
	for _, s := range scalars {
		abs := math.Abs(s.Value)
		if abs > HugeMagnitude {
			warnings = append(warnings, fmt.Sprintf("scalar %q: huge scalar (%g)", s.Name, s.Value))
		}
		if abs > 0 && abs < TinyMagnitude {
			warnings = append(warnings, fmt.Sprintf("scalar %q: near-zero precision risk (%g)", s.Name, s.Value))
		}
		if s.Value < 0 {
			warnings = append(warnings, fmt.Sprintf("scalar %q: negative value (%g)", s.Name, s.Value))
		}
		if s.Value == 0 {
			warnings = append(warnings, fmt.Sprintf("scalar %q: division-by-zero / zeroing risk", s.Name))
		}
	}
	return warnings
}

// CheckVectors flags vectors holding huge elements and vectors that are
// very long or very short. Length counts every element, missing or not.
func CheckVectors(vectors []Vector) []string {
	var warnings []string
	for _, v := range vectors {
		for i, el := range v.Values {
			f, ok := vector.Number(el)
			if ok && math.Abs(f) > HugeMagnitude {
				warnings = append(warnings, fmt.Sprintf("vector %q: huge vector value at index %d (%g)", v.Name, i, f))
				break
			}
		}
		if n := len(v.Values); n > MaxLength {
			warnings = append(warnings, fmt.Sprintf("vector %q: very long vector (%d elements)", v.Name, n))
		} else if n < MinLength {
			warnings = append(warnings, fmt.Sprintf("vector %q: very short vector (%d elements)", v.Name, n))
		}
	}
	return warnings
}

// CheckSeries flags series holding huge values and series with too many or
// too few resolved years.
func CheckSeries(all []Series) []string {
	var warnings []string
	for _, s := range all {
		for _, key := range series.Keys() {
			f, ok := s.Data.Value(key)
			if ok && math.Abs(f) > HugeMagnitude {
				warnings = append(warnings, fmt.Sprintf("series %q: huge series value in %s (%g)", s.Name, key, f))
				break
			}
		}
		if n := s.Data.Resolved(); n > MaxLength {
			warnings = append(warnings, fmt.Sprintf("series %q: very long series (%d resolved years)", s.Name, n))
		} else if n < MinLength {
			warnings = append(warnings, fmt.Sprintf("series %q: very short series (%d resolved years)", s.Name, n))
		}
	}
	return warnings
}
