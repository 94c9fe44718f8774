package series

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeys(t *testing.T) {
	ks := Keys()
	require.Len(t, ks, 31)
	assert.Equal(t, "val2020", ks[0])
	assert.Equal(t, "val2050", ks[30])

	// Mutating the returned slice must not affect the domain.
	ks[0] = "broken"
	assert.Equal(t, "val2020", KeyAt(0))
}

func TestIndexOf(t *testing.T) {
	testCases := []struct {
		key      string
		expected int
	}{
		{"val2020", 0},
		{"val2035", 15},
		{"val2050", 30},
		{"val2019", -1},
		{"val2051", -1},
		{"val02020", -1},
		{"val+2020", -1},
		{"2020", -1},
		{"", -1},
	}

	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			assert.Equal(t, tc.expected, IndexOf(tc.key))
			assert.Equal(t, tc.expected >= 0, IsKey(tc.key))
		})
	}
}

func TestYearOf(t *testing.T) {
	year, err := YearOf("val2042")
	require.NoError(t, err)
	assert.Equal(t, 2042, year)

	_, err = YearOf("val1999")
	require.Error(t, err)
}

func TestAnnual_FinalizeAndResolved(t *testing.T) {
	s := Annual{"val2020": Float(1), "val2021": nil}
	assert.False(t, s.IsFinal())
	assert.Equal(t, 1, s.Resolved())

	s.Finalize()
	assert.True(t, s.IsFinal())
	assert.Equal(t, 1, s.Resolved())

	v, ok := s.Value("val2020")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = s.Value("val2021")
	assert.False(t, ok, "explicit null is not a value")
	_, ok = s.Value("val2049")
	assert.False(t, ok, "finalized gap is not a value")
}

func TestAnnual_Clone(t *testing.T) {
	s := Annual{"val2020": Float(1), "val2021": nil}
	c := s.Clone()
	require.Equal(t, s, c)

	*c["val2020"] = 99
	assert.Equal(t, 1.0, *s["val2020"], "clone must not share value pointers")
	assert.Nil(t, Annual(nil).Clone())
}

func TestNew(t *testing.T) {
	s := New()
	assert.True(t, s.IsFinal())
	assert.Zero(t, s.Resolved())
}
