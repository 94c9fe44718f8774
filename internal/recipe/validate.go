package recipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/specialistvlad/recipegrid/internal/series"
)

const (
	refOpen  = "${"
	refClose = "}"
)

// allowedVariableFields lists every key a raw variable object may carry.
var allowedVariableFields = map[string]struct{}{
	"type":  {},
	"value": {},
	"unit":  {},
	"link":  {},
}

// Validate checks that input has the shape of a raw recipe and returns it in
// typed form. input may be a JSON document (string, []byte, json.RawMessage)
// or any value that encodes to one. A JSON string whose content is itself a
// JSON recipe is unwrapped once.
//
// Variables keep their declaration order when input is JSON text. Go maps
// have no order, so a map input yields variables sorted by name.
//
// Validate performs no value coercion: numeric strings stay strings.
func Validate(input any) (*RawRecipe, error) {
	data, err := toJSON(input)
	if err != nil {
		return nil, err
	}

	var decoded any
	if err := json.Unmarshal(data, &decoded); err != nil {
		return nil, formatErr(fmt.Errorf("%w: %v", ErrDecode, err), "cannot decode recipe")
	}
	// A recipe may arrive JSON-encoded inside a JSON string; unwrap one level.
	if inner, isString := decoded.(string); isString {
		data = []byte(inner)
		if err := json.Unmarshal(data, &decoded); err != nil {
			return nil, formatErr(fmt.Errorf("%w: %v", ErrDecode, err), "cannot decode recipe")
		}
	}
	doc, ok := decoded.(map[string]any)
	if !ok {
		return nil, formatErr(nil, "recipe must be a JSON object, got %s", describe(decoded))
	}

	raw := &RawRecipe{}

	if v, present := doc["name"]; present && v != nil {
		name, ok := v.(string)
		if !ok {
			return nil, formatErr(nil, "name must be a string, got %s", describe(v))
		}
		raw.Name = name
	}

	eqVal, present := doc["eq"]
	if !present {
		return nil, equationErr(nil, "eq is required")
	}
	eq, ok := eqVal.(string)
	if !ok {
		return nil, equationErr(nil, "eq must be a string, got %s", describe(eqVal))
	}
	if !hasReference(eq) {
		return nil, equationErr(nil, "eq must reference at least one variable as ${name}")
	}
	raw.Eq = eq

	varsVal, present := doc["variables"]
	if !present {
		return nil, variableErr("", "variables is required")
	}
	vars, ok := varsVal.(map[string]any)
	if !ok {
		return nil, variableErr("", "variables must be an object, got %s", describe(varsVal))
	}
	if len(vars) == 0 {
		return nil, variableErr("", "variables must declare at least one variable")
	}

	order, err := variableOrder(data)
	if err != nil {
		return nil, formatErr(fmt.Errorf("%w: %v", ErrDecode, err), "cannot decode variables")
	}
	for _, name := range order {
		v, err := validateVariable(name, vars[name])
		if err != nil {
			return nil, err
		}
		raw.Variables = append(raw.Variables, NamedRaw{Name: name, Variable: v})
	}

	names := make([]string, len(raw.Variables))
	for i, nv := range raw.Variables {
		names[i] = nv.Name
	}
	if unknown, ok := firstUnknownReference(eq, names); ok {
		return nil, equationErr(nil, "reference %s does not name a declared variable", unknown)
	}

	return raw, nil
}

func toJSON(input any) ([]byte, error) {
	switch v := input.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	case json.RawMessage:
		return v, nil
	}
	data, err := json.Marshal(input)
	if err != nil {
		return nil, formatErr(err, "cannot encode %T as JSON", input)
	}
	return data, nil
}

// variableOrder returns the keys of the top-level "variables" object in the
// order they appear in data. Duplicate keys keep their first position.
func variableOrder(data []byte) ([]string, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, err
	}
	return objectKeys(top["variables"])
}

func objectKeys(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var keys []string
	seen := make(map[string]struct{})
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var skip json.RawMessage
		if err := dec.Decode(&skip); err != nil {
			return nil, err
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys, nil
}

func validateVariable(key string, v any) (RawVariable, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, variableErr(key, "must be an object, got %s", describe(v))
	}

	fields := make([]string, 0, len(obj))
	for f := range obj {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		if _, ok := allowedVariableFields[f]; !ok {
			return nil, variableErr(key, "unexpected field %q", f)
		}
	}

	var declared VariableType
	if t, present := obj["type"]; present {
		s, ok := t.(string)
		if !ok {
			return nil, variableErr(key, "type must be a string, got %s", describe(t))
		}
		declared = VariableType(s)
		switch declared {
		case TypeScalar, TypeVector, TypeDataSeries:
		default:
			return nil, variableErr(key, "unknown type %q", s)
		}
	}

	var unit string
	if u, present := obj["unit"]; present {
		s, ok := u.(string)
		if !ok {
			return nil, variableErr(key, "unit must be a string, got %s", describe(u))
		}
		unit = s
	}

	link, hasLink := obj["link"]
	value, hasValue := obj["value"]

	var out RawVariable
	switch {
	case hasLink && hasValue:
		return nil, variableErr(key, "must have either value or link, not both")
	case hasLink:
		s, ok := link.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, variableErr(key, "link must be a non-empty string, got %s", describe(link))
		}
		if _, present := obj["unit"]; present {
			return nil, variableErr(key, "unit cannot be set on a linked series")
		}
		out = RawSeriesLink{Link: s}
	case !hasValue:
		return nil, variableErr(key, "must have a value or a link")
	default:
		var err error
		out, err = validateValue(key, value, unit)
		if err != nil {
			return nil, err
		}
	}

	if declared != "" && declared != out.Type() {
		return nil, variableErr(key, "type %q does not match a %s value", declared, out.Type())
	}
	return out, nil
}

func validateValue(key string, value any, unit string) (RawVariable, error) {
	switch x := value.(type) {
	case float64, string:
		return RawScalar{Value: x, Unit: unit}, nil
	case []any:
		for i, el := range x {
			switch el.(type) {
			case nil, float64, string:
			default:
				return nil, variableErr(key, "vector element %d must be a number, string or null, got %s", i, describe(el))
			}
		}
		return RawVector{Values: x, Unit: unit}, nil
	case map[string]any:
		values := make(series.Annual, len(x))
		for year, el := range x {
			switch n := el.(type) {
			case nil:
				values[year] = nil
			case float64:
				values[year] = series.Float(n)
			default:
				return nil, variableErr(key, "series value for %q must be a number or null, got %s", year, describe(el))
			}
		}
		return RawSeriesValue{Values: values, Unit: unit}, nil
	default:
		return nil, variableErr(key, "value must be a number, string, array or object, got %s", describe(value))
	}
}

// hasReference reports whether eq contains at least one ${name} token with a
// non-empty name.
func hasReference(eq string) bool {
	for rest := eq; ; {
		i := strings.Index(rest, refOpen)
		if i < 0 {
			return false
		}
		rest = rest[i+len(refOpen):]
		if j := strings.Index(rest, refClose); j > 0 {
			return true
		}
	}
}

// firstUnknownReference scans eq for ${ tokens that match no declared name.
// Matching is plain text comparison against each "${name}", longest first,
// so names are never interpreted as patterns.
func firstUnknownReference(eq string, names []string) (string, bool) {
	tokens := referenceTokens(names)
	for rest := eq; ; {
		i := strings.Index(rest, refOpen)
		if i < 0 {
			return "", false
		}
		rest = rest[i:]
		if tok, ok := matchToken(rest, tokens); ok {
			rest = rest[len(tok):]
			continue
		}
		end := strings.Index(rest, refClose)
		if end < 0 {
			return rest, true
		}
		return rest[:end+1], true
	}
}

// referenceTokens returns "${name}" for each name, longest first.
func referenceTokens(names []string) []string {
	tokens := make([]string, len(names))
	for i, n := range names {
		tokens[i] = refOpen + n + refClose
	}
	sort.SliceStable(tokens, func(i, j int) bool { return len(tokens[i]) > len(tokens[j]) })
	return tokens
}

func matchToken(s string, tokens []string) (string, bool) {
	for _, tok := range tokens {
		if strings.HasPrefix(s, tok) {
			return tok, true
		}
	}
	return "", false
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case float64:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}
