package vector

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/specialistvlad/recipegrid/internal/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransform_ZeroFill(t *testing.T) {
	t.Parallel()

	got, err := Transform([]any{1.0, 2.0, 3.0}, ZeroFill)
	require.NoError(t, err)

	require.True(t, got.IsFinal(), "zero fill resolves every year")
	assert.Equal(t, 1.0, *got["val2020"])
	assert.Equal(t, 2.0, *got["val2021"])
	assert.Equal(t, 3.0, *got["val2022"])
	for _, k := range series.Keys()[3:] {
		require.NotNil(t, got[k], k)
		assert.Equal(t, 0.0, *got[k], k)
	}
}

func TestTransform_InterpolateMissing(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		values   []any
		expected map[string]float64
		unset    []string
	}{
		{
			name:     "interior single gap is the neighbour mean",
			values:   []any{1.0, nil, 3.0},
			expected: map[string]float64{"val2020": 1, "val2021": 2, "val2022": 3},
			unset:    []string{"val2023", "val2050"},
		},
		{
			name:     "leading gap stays unset",
			values:   []any{nil, 2.0, 3.0},
			expected: map[string]float64{"val2021": 2, "val2022": 3},
			unset:    []string{"val2020"},
		},
		{
			name:     "run of two gaps stays unset",
			values:   []any{1.0, nil, nil, 4.0},
			expected: map[string]float64{"val2020": 1, "val2023": 4},
			unset:    []string{"val2021", "val2022"},
		},
		{
			name:     "numeric strings are parsed",
			values:   []any{"1.5", " 2.5 ", json.Number("3")},
			expected: map[string]float64{"val2020": 1.5, "val2021": 2.5, "val2022": 3},
		},
		{
			name:     "unparsable string is missing",
			values:   []any{1.0, "n/a", 5.0},
			expected: map[string]float64{"val2020": 1, "val2021": 3, "val2022": 5},
		},
		{
			name:     "NaN is missing",
			values:   []any{2.0, math.NaN(), 4.0},
			expected: map[string]float64{"val2020": 2, "val2021": 3, "val2022": 4},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := Transform(tc.values, InterpolateMissing)
			require.NoError(t, err)

			for k, want := range tc.expected {
				require.NotNil(t, got[k], k)
				assert.Equal(t, want, *got[k], k)
			}
			for _, k := range tc.unset {
				_, present := got[k]
				assert.False(t, present, "%s should be unset", k)
			}
		})
	}
}

func TestTransform_DropsElementsPastDomain(t *testing.T) {
	t.Parallel()

	values := make([]any, 40)
	for i := range values {
		values[i] = float64(i)
	}
	got, err := Transform(values, ZeroFill)
	require.NoError(t, err)
	assert.Len(t, got, series.Len)
	assert.Equal(t, 30.0, *got["val2050"])
}

func TestTransform_Errors(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		values []any
	}{
		{"infinite number", []any{1.0, math.Inf(1)}},
		{"infinite string", []any{"Inf"}},
		{"overflowing string", []any{"1e400"}},
		{"unsupported type", []any{true}},
		{"interpolation overflow", []any{math.MaxFloat64, nil, math.MaxFloat64}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := Transform(tc.values, InterpolateMissing)
			require.Error(t, err)
			var vErr *Error
			assert.True(t, errors.As(err, &vErr))
		})
	}
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParsePolicy("")
	require.NoError(t, err)
	assert.Equal(t, InterpolateMissing, p)

	p, err = ParsePolicy("zero_fill")
	require.NoError(t, err)
	assert.Equal(t, ZeroFill, p)

	_, err = ParsePolicy("forward_fill")
	require.Error(t, err)

	_, err = Transform([]any{1.0}, FillPolicy("bogus"))
	require.Error(t, err)
}

func TestTransform_NormalizesPolicyName(t *testing.T) {
	t.Parallel()

	got, err := Transform([]any{1.0, nil, 3.0}, FillPolicy(" zero_fill\n"))
	require.NoError(t, err)

	require.True(t, got.IsFinal(), "padded policy name still zero fills")
	assert.Equal(t, 0.0, *got["val2021"])
	assert.Equal(t, 0.0, *got["val2050"])
}

func TestNumber(t *testing.T) {
	t.Parallel()

	v, ok := Number("12.5")
	assert.True(t, ok)
	assert.Equal(t, 12.5, v)

	_, ok = Number(nil)
	assert.False(t, ok)
	_, ok = Number("abc")
	assert.False(t, ok)
}
