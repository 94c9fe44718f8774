package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/specialistvlad/recipegrid/internal/series"
)

// VariableType is the type tag of a variable.
type VariableType string

const (
	TypeScalar     VariableType = "scalar"
	TypeVector     VariableType = "vector"
	TypeDataSeries VariableType = "dataSeries"
)

// --- Raw (untrusted) recipe ---

// RawVariable is one of RawScalar, RawVector, RawSeriesLink or RawSeriesValue.
type RawVariable interface {
	Type() VariableType
	isRaw()
}

// RawScalar is a single number. Value is a float64, or a string that the
// parser will try to read as a number.
type RawScalar struct {
	Value any
	Unit  string
}

// RawVector is an irregular literal series. Elements are float64, string or nil.
type RawVector struct {
	Values []any
	Unit   string
}

// RawSeriesLink references an existing Series Store entry.
type RawSeriesLink struct {
	Link string
}

// RawSeriesValue is an inline series keyed by year. Keys have not been
// checked against the year domain yet.
type RawSeriesValue struct {
	Values series.Annual
	Unit   string
}

func (RawScalar) Type() VariableType { return TypeScalar }
func (RawVector) Type() VariableType { return TypeVector }
func (RawSeriesLink) Type() VariableType { return TypeDataSeries }
func (RawSeriesValue) Type() VariableType { return TypeDataSeries }

func (RawScalar) isRaw() {}
func (RawVector) isRaw() {}
func (RawSeriesLink) isRaw() {}
func (RawSeriesValue) isRaw() {}

// NamedRaw pairs a user-supplied variable name with its raw definition.
type NamedRaw struct {
	Name     string
	Variable RawVariable
}

// RawRecipe is a structurally valid, not yet coerced recipe. Variables keep
// the order in which they were declared.
type RawRecipe struct {
	Name      string
	Eq        string
	Variables []NamedRaw
}

// --- Canonical recipe ---

// Variable is a canonical variable: Scalar or SeriesRef.
type Variable interface {
	Type() VariableType
	isCanonical()
}

// Scalar is a constant contributing the same value to every year.
type Scalar struct {
	Value float64
	Unit  string
}

// SeriesRef points at a Series Store entry.
type SeriesRef struct {
	Link string
}

func (Scalar) Type() VariableType { return TypeScalar }
func (SeriesRef) Type() VariableType { return TypeDataSeries }

func (Scalar) isCanonical() {}
func (SeriesRef) isCanonical() {}

// Binding is one renamed variable.
type Binding struct {
	Name     string // canonical name
	Original string // user-supplied name
	Variable Variable
}

// Canonical is a recipe whose equation only references canonical names.
// Every ${name} token left in Eq has exactly one binding.
type Canonical struct {
	Name      string
	Eq        string
	Variables []Binding
}

// Lookup returns the variable bound to a canonical name.
func (c *Canonical) Lookup(name string) (Variable, bool) {
	for _, b := range c.Variables {
		if b.Name == name {
			return b.Variable, true
		}
	}
	return nil, false
}

type scalarJSON struct {
	Type  VariableType `json:"type"`
	Value float64      `json:"value"`
	Unit  string       `json:"unit,omitempty"`
}

type seriesRefJSON struct {
	Type VariableType `json:"type"`
	Link string       `json:"link"`
}

func encodeVariable(v Variable) (any, error) {
	switch x := v.(type) {
	case Scalar:
		return scalarJSON{Type: TypeScalar, Value: x.Value, Unit: x.Unit}, nil
	case SeriesRef:
		return seriesRefJSON{Type: TypeDataSeries, Link: x.Link}, nil
	default:
		return nil, fmt.Errorf("unknown canonical variable %T", v)
	}
}

// MarshalJSON encodes the recipe with variables in binding order:
//
//	{"name": ..., "eq": "${A}*2", "variables": {"A": {...}}, "names": {"A": "x"}}
func (c *Canonical) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if c.Name != "" {
		if err := writeField(&buf, "name", c.Name); err != nil {
			return nil, err
		}
		buf.WriteByte(',')
	}
	if err := writeField(&buf, "eq", c.Eq); err != nil {
		return nil, err
	}

	buf.WriteString(`,"variables":{`)
	for i, b := range c.Variables {
		if i > 0 {
			buf.WriteByte(',')
		}
		enc, err := encodeVariable(b.Variable)
		if err != nil {
			return nil, err
		}
		if err := writeField(&buf, b.Name, enc); err != nil {
			return nil, err
		}
	}

	buf.WriteString(`},"names":{`)
	for i, b := range c.Variables {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeField(&buf, b.Name, b.Original); err != nil {
			return nil, err
		}
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func writeField(buf *bytes.Buffer, key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}
