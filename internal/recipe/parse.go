package recipe

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/specialistvlad/recipegrid/internal/series"
	"github.com/specialistvlad/recipegrid/internal/seriesstore"
	"github.com/specialistvlad/recipegrid/internal/vector"
)

// ParsedVariable is a raw variable reduced to its canonical form.
type ParsedVariable struct {
	Name      string
	Source    RawVariable
	Canonical Variable
	// Data is the materialized series for series-backed variables, nil for scalars.
	Data series.Annual
}

// Parsed is the output of Parser.Parse.
type Parsed struct {
	Name      string
	Eq        string
	Variables []ParsedVariable
	// Pending holds the entries created for vectors and inline series. They
	// are not in the store yet; see Commit.
	Pending []seriesstore.Entry
}

// Commit writes the pending entries to store, in declaration order. Stores
// implementing seriesstore.BatchStore receive them as one all-or-nothing
// batch; other stores may keep the entries written before a failing Put.
func (p *Parsed) Commit(ctx context.Context, store seriesstore.Store) error {
	if len(p.Pending) == 0 {
		return nil
	}
	if bs, ok := store.(seriesstore.BatchStore); ok {
		return bs.PutAll(ctx, p.Pending)
	}
	for _, e := range p.Pending {
		if err := store.Put(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

// Parser converts validated raw variables into canonical ones.
type Parser struct {
	// Store resolves linked series. Parse only reads from it.
	Store seriesstore.Store
	// Policy is the fill policy for vectors. Empty means vector.DefaultPolicy.
	Policy vector.FillPolicy
	// NewID allocates entry ids. Nil means seriesstore.NewID.
	NewID func() string
}

// Parse reduces every raw variable to a Scalar or a SeriesRef. Vectors and
// inline series become pending store entries. The first failing variable
// aborts the whole parse.
func (p *Parser) Parse(ctx context.Context, raw *RawRecipe) (*Parsed, error) {
	newID := p.NewID
	if newID == nil {
		newID = seriesstore.NewID
	}

	out := &Parsed{Name: raw.Name, Eq: raw.Eq}
	for _, nv := range raw.Variables {
		pv := ParsedVariable{Name: nv.Name, Source: nv.Variable}

		switch v := nv.Variable.(type) {
		case RawScalar:
			f, err := scalarValue(nv.Name, v.Value)
			if err != nil {
				return nil, err
			}
			pv.Canonical = Scalar{Value: f, Unit: v.Unit}

		case RawVector:
			data, err := vector.Transform(v.Values, p.Policy)
			if err != nil {
				var vErr *vector.Error
				if errors.As(err, &vErr) {
					return nil, &Error{Kind: KindVectorTransform, Key: nv.Name, Err: err}
				}
				return nil, &Error{Kind: KindVariables, Key: nv.Name, Err: err}
			}
			if data.Resolved() == 0 {
				return nil, variableErr(nv.Name, "vector does not resolve to any value")
			}
			entry := seriesstore.Entry{ID: newID(), Unit: v.Unit, Data: data.Finalize()}
			out.Pending = append(out.Pending, entry)
			pv.Canonical = SeriesRef{Link: entry.ID}
			pv.Data = entry.Data

		case RawSeriesLink:
			entry, err := p.Store.Get(ctx, v.Link)
			if errors.Is(err, seriesstore.ErrNotFound) {
				return nil, variableErr(nv.Name, "linked series %q does not exist", v.Link)
			}
			if err != nil {
				return nil, &Error{Kind: KindVariables, Key: nv.Name, Msg: "cannot read linked series", Err: err}
			}
			pv.Canonical = SeriesRef{Link: entry.ID}
			pv.Data = entry.Data.Finalize()

		case RawSeriesValue:
			data, err := seriesValue(nv.Name, v.Values)
			if err != nil {
				return nil, err
			}
			entry := seriesstore.Entry{ID: newID(), Unit: v.Unit, Data: data}
			out.Pending = append(out.Pending, entry)
			pv.Canonical = SeriesRef{Link: entry.ID}
			pv.Data = entry.Data

		default:
			return nil, variableErr(nv.Name, "unsupported variable %T", nv.Variable)
		}

		out.Variables = append(out.Variables, pv)
	}

	if len(out.Variables) == 0 {
		return nil, variableErr("", "no variables left after parsing")
	}
	return out, nil
}

func scalarValue(key string, v any) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, variableErr(key, "scalar value %q is not a number", x)
		}
		f = parsed
	default:
		return 0, variableErr(key, "scalar value must be a number, got %T", v)
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, variableErr(key, "scalar value must be finite")
	}
	return f, nil
}

func seriesValue(key string, values series.Annual) (series.Annual, error) {
	years := make([]string, 0, len(values))
	for year := range values {
		years = append(years, year)
	}
	sort.Strings(years)

	out := make(series.Annual, series.Len)
	for _, year := range years {
		v := values[year]
		if !series.IsKey(year) {
			return nil, variableErr(key, "%q is not a year between val%d and val%d", year, series.FirstYear, series.LastYear)
		}
		if v == nil {
			out[year] = nil
			continue
		}
		if math.IsNaN(*v) || math.IsInf(*v, 0) {
			return nil, variableErr(key, "series value for %q must be finite", year)
		}
		out[year] = series.Float(*v)
	}
	return out.Finalize(), nil
}
