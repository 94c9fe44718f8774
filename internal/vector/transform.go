// Package vector converts irregular literal vectors into annual series over
// the fixed year domain.
//
// Elements are mapped positionally: element i becomes year i of the domain.
// Elements past the end of the domain are dropped and years past the end of
// the input are missing. Missing values are then resolved by a FillPolicy.
package vector

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/specialistvlad/recipegrid/internal/series"
)

// FillPolicy selects how missing positions are resolved.
type FillPolicy string

const (
	// ZeroFill replaces every missing position with 0.
	ZeroFill FillPolicy = "zero_fill"
	// InterpolateMissing fills a missing position with the mean of its
	// immediate neighbours when both are present, and leaves it unset
	// otherwise. Gaps touching either end of the sequence and runs of two or
	// more missing values stay unresolved.
	InterpolateMissing FillPolicy = "interpolate_missing"

	// DefaultPolicy is used when no policy is given.
	DefaultPolicy = InterpolateMissing
)

// ParsePolicy parses a policy name. The empty string yields DefaultPolicy.
func ParsePolicy(name string) (FillPolicy, error) {
	switch p := FillPolicy(strings.TrimSpace(name)); p {
	case "":
		return DefaultPolicy, nil
	case ZeroFill, InterpolateMissing:
		return p, nil
	default:
		return "", fmt.Errorf("unknown fill policy %q: must be %q or %q", name, ZeroFill, InterpolateMissing)
	}
}

// Error reports a value that cannot be represented in a series.
type Error struct {
	Index int // position in the input vector, or the interpolated domain index
	Msg   string
}

func (e *Error) Error() string {
	return fmt.Sprintf("vector element %d: %s", e.Index, e.Msg)
}

// cell is one coerced element. Missing elements carry ok == false.
type cell struct {
	v  float64
	ok bool
}

// Transform converts values into a series under policy. Years that stay
// unresolved are absent from the result; callers finalize the series when
// they need every year present.
func Transform(values []any, policy FillPolicy) (series.Annual, error) {
	policy, err := ParsePolicy(string(policy))
	if err != nil {
		return nil, err
	}

	cells := make([]cell, series.Len)
	for i := 0; i < series.Len && i < len(values); i++ {
		c, err := coerce(values[i])
		if err != nil {
			return nil, &Error{Index: i, Msg: err.Error()}
		}
		cells[i] = c
	}

	out := make(series.Annual, series.Len)
	for i, c := range cells {
		key := series.KeyAt(i)
		if c.ok {
			out[key] = series.Float(c.v)
			continue
		}

		switch policy {
		case ZeroFill:
			out[key] = series.Float(0)
		case InterpolateMissing:
			if i == 0 || i == len(cells)-1 {
				continue
			}
			prev, next := cells[i-1], cells[i+1]
			if !prev.ok || !next.ok {
				continue
			}
			mean := (prev.v + next.v) / 2
			if !isFinite(mean) {
				return nil, &Error{Index: i, Msg: fmt.Sprintf("interpolating %g and %g does not give a finite value", prev.v, next.v)}
			}
			out[key] = series.Float(mean)
		}
	}
	return out, nil
}

// Number returns the numeric value of a raw vector element, if it has one.
// It applies the same coercion as Transform.
func Number(v any) (float64, bool) {
	c, err := coerce(v)
	if err != nil || !c.ok {
		return 0, false
	}
	return c.v, true
}

// coerce turns one raw element into a cell. NaN, whether given as a number
// or produced by an unparsable string, is treated as missing; infinities are
// errors.
func coerce(v any) (cell, error) {
	var f float64
	switch x := v.(type) {
	case nil:
		return cell{}, nil
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case int32:
		f = float64(x)
	case json.Number:
		return parseString(string(x))
	case string:
		return parseString(x)
	default:
		return cell{}, fmt.Errorf("unsupported element type %T", v)
	}

	if math.IsNaN(f) {
		return cell{}, nil
	}
	if math.IsInf(f, 0) {
		return cell{}, fmt.Errorf("value %g is not finite", f)
	}
	return cell{v: f, ok: true}, nil
}

func parseString(s string) (cell, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		// Not a number at all: missing, like NaN.
		return cell{}, nil
	}
	if math.IsNaN(f) {
		return cell{}, nil
	}
	if math.IsInf(f, 0) {
		return cell{}, fmt.Errorf("string %q does not parse to a finite number", s)
	}
	return cell{v: f, ok: true}, nil
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
