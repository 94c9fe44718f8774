package engine_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/specialistvlad/recipegrid/internal/engine"
	"github.com/specialistvlad/recipegrid/internal/inmemorystore"
	"github.com/specialistvlad/recipegrid/internal/recipe"
	"github.com/specialistvlad/recipegrid/internal/series"
	"github.com/specialistvlad/recipegrid/internal/seriesstore"
	"github.com/specialistvlad/recipegrid/internal/vector"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore records how many entries were written through it.
type countingStore struct {
	seriesstore.Store
	puts atomic.Int32
}

func (s *countingStore) Put(ctx context.Context, e seriesstore.Entry) error {
	s.puts.Add(1)
	return s.Store.Put(ctx, e)
}

func sequentialIDs() func() string {
	var mu sync.Mutex
	n := 0
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		n++
		return fmt.Sprintf("series-%d", n)
	}
}

func TestRun_ScalarTimesTwo(t *testing.T) {
	t.Parallel()
	// Arrange
	eng := engine.New(inmemorystore.New())
	input := `{"eq": "${x}*2", "variables": {"x": {"type": "scalar", "value": 5}}}`

	// Act
	report, err := eng.Run(context.Background(), input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "${A}*2", report.Recipe.Eq)
	assert.Equal(t, recipe.Scalar{Value: 5}, report.Recipe.Variables[0].Variable)
	assert.Empty(t, report.Entries)
	assert.Empty(t, report.EvaluationWarnings)
	for _, key := range series.Keys() {
		v, ok := report.Series.Value(key)
		require.True(t, ok, key)
		assert.Equal(t, 10.0, v, key)
	}
}

func TestRun_NullYearFromInlineSeries(t *testing.T) {
	t.Parallel()
	// Arrange
	eng := engine.New(inmemorystore.New())
	input := map[string]any{
		"eq": "${base} * ${factor}",
		"variables": map[string]any{
			"factor": map[string]any{"value": 3},
			"base": map[string]any{
				"type":  "dataSeries",
				"value": map[string]any{"val2020": nil, "val2021": 2, "val2022": 4},
			},
		},
	}

	// Act
	report, err := eng.Run(context.Background(), input)

	// Assert
	require.NoError(t, err)
	assert.Nil(t, report.Series["val2020"])
	assert.Equal(t, 6.0, *report.Series["val2021"])
	assert.Equal(t, 12.0, *report.Series["val2022"])
	assert.Nil(t, report.Series["val2023"])
	assert.True(t, report.Series.IsFinal())
	require.Len(t, report.Entries, 1)
}

func TestRun_SpecExampleRecipe(t *testing.T) {
	t.Parallel()
	// Arrange
	store := inmemorystore.New()
	ctx := context.Background()
	require.NoError(t, store.Put(ctx, seriesstore.Entry{
		ID:   "goal-7",
		Data: series.Annual{"val2020": series.Float(100), "val2021": series.Float(110), "val2022": series.Float(120)}.Finalize(),
	}))
	eng := engine.New(store, engine.WithIDGenerator(sequentialIDs()))
	input := `{
		"name": "projected",
		"eq": "${population} * ${rate} + ${growth}",
		"variables": {
			"population": { "type": "dataSeries", "link": "goal-7" },
			"rate":       { "type": "scalar", "value": "0.5", "unit": "%" },
			"growth":     { "type": "vector", "value": [1, 2, null, 4] }
		}
	}`

	// Act
	report, err := eng.Run(ctx, input)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "projected", report.Recipe.Name)
	assert.Equal(t, "${A} * ${B} + ${C}", report.Recipe.Eq)
	require.Len(t, report.Entries, 1)
	assert.Equal(t, "series-1", report.Entries[0].ID)
	assert.Equal(t, recipe.SeriesRef{Link: "series-1"}, report.Recipe.Variables[2].Variable)

	assert.Equal(t, 51.0, *report.Series["val2020"])
	assert.Equal(t, 57.0, *report.Series["val2021"])
	assert.Equal(t, 63.0, *report.Series["val2022"], "growth gap is interpolated to 3")
	assert.Nil(t, report.Series["val2023"], "population has no value past 2022")

	stored, err := store.Get(ctx, "series-1")
	require.NoError(t, err)
	assert.Equal(t, 4.0, *stored.Data["val2023"])
}

func TestPrepare_FillPolicy(t *testing.T) {
	t.Parallel()

	input := `{"eq": "${v}", "variables": {"v": {"value": [1, 2, 3]}}}`

	testCases := []struct {
		policy   vector.FillPolicy
		resolved int
	}{
		{vector.ZeroFill, series.Len},
		{vector.InterpolateMissing, 3},
	}

	for _, tc := range testCases {
		t.Run(string(tc.policy), func(t *testing.T) {
			t.Parallel()
			eng := engine.New(inmemorystore.New(), engine.WithFillPolicy(tc.policy))

			prepared, err := eng.Prepare(context.Background(), input)

			require.NoError(t, err)
			require.Len(t, prepared.Entries, 1)
			assert.Equal(t, tc.resolved, prepared.Entries[0].Data.Resolved())
			assert.Equal(t, tc.policy, eng.Policy())
		})
	}
}

func TestPrepare_RejectedRecipeCommitsNothing(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		input    string
		expected error
	}{
		{
			name:     "empty variables",
			input:    `{"eq": "${x}", "variables": {}}`,
			expected: recipe.ErrVariables,
		},
		{
			name:     "no reference in eq",
			input:    `{"eq": "1 + 2", "variables": {"x": {"value": 1}}}`,
			expected: recipe.ErrEquation,
		},
		{
			name:     "later variable fails after a vector",
			input:    `{"eq": "${v} + ${s}", "variables": {"v": {"value": [1, 2]}, "s": {"value": "abc"}}}`,
			expected: recipe.ErrVariables,
		},
		{
			name:     "vector with infinity",
			input:    `{"eq": "${v}", "variables": {"v": {"value": [1, "Infinity"]}}}`,
			expected: recipe.ErrVectorTransform,
		},
		{
			name:     "broken json",
			input:    `{"eq": `,
			expected: recipe.ErrInvalidFormat,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			store := &countingStore{Store: inmemorystore.New()}
			eng := engine.New(store)

			prepared, err := eng.Prepare(context.Background(), tc.input)

			assert.Nil(t, prepared)
			require.ErrorIs(t, err, tc.expected)
			assert.Zero(t, store.puts.Load())
		})
	}
}

func TestPrepare_SanityWarningsUseOriginalNames(t *testing.T) {
	t.Parallel()

	eng := engine.New(inmemorystore.New())
	input := `{"eq": "${big} / ${zero} + ${short}", "variables": {
		"big":   {"value": 1e13},
		"zero":  {"value": 0},
		"short": {"value": [7]}
	}}`

	prepared, err := eng.Prepare(context.Background(), input)

	require.NoError(t, err)
	joined := strings.Join(prepared.Warnings, "\n")
	assert.Contains(t, joined, `scalar "big": huge scalar`)
	assert.Contains(t, joined, `scalar "zero": division-by-zero`)
	assert.Contains(t, joined, `vector "short": very short vector`)
}

func TestPrepare_Deterministic(t *testing.T) {
	t.Parallel()

	input := `{"eq": "${b} + ${a} * ${c}", "variables": {"c": {"value": 1}, "a": {"value": 2}, "b": {"value": [1, 2]}}}`

	first, err := engine.New(inmemorystore.New(), engine.WithIDGenerator(sequentialIDs())).Prepare(context.Background(), input)
	require.NoError(t, err)
	second, err := engine.New(inmemorystore.New(), engine.WithIDGenerator(sequentialIDs())).Prepare(context.Background(), input)
	require.NoError(t, err)

	assert.Equal(t, first.Recipe, second.Recipe)
	assert.Equal(t, "${C} + ${B} * ${A}", first.Recipe.Eq)
	for _, original := range []string{"a", "b", "c"} {
		assert.NotContains(t, first.Recipe.Eq, "${"+original+"}")
	}
}

func TestRun_DivisionByZeroYear(t *testing.T) {
	t.Parallel()

	eng := engine.New(inmemorystore.New())
	input := `{"eq": "10 / ${d}", "variables": {"d": {"value": [2, 0, 5]}}}`

	report, err := eng.Run(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, 5.0, *report.Series["val2020"])
	assert.Nil(t, report.Series["val2021"])
	assert.Equal(t, 2.0, *report.Series["val2022"])
	require.Len(t, report.EvaluationWarnings, 1)
	assert.Contains(t, report.EvaluationWarnings[0], "val2021: division by zero")
}

func TestRun_UnparseableEquation(t *testing.T) {
	t.Parallel()

	store := inmemorystore.New()
	eng := engine.New(store, engine.WithIDGenerator(sequentialIDs()))

	report, err := eng.Run(context.Background(), `{"eq": "${x} +* 2", "variables": {"x": {"value": 1}}}`)

	assert.Nil(t, report)
	require.ErrorIs(t, err, recipe.ErrEquation)
}

func TestRun_SharedStoreLinksEarlierEntries(t *testing.T) {
	t.Parallel()
	// Arrange
	store := inmemorystore.New()
	eng := engine.New(store, engine.WithIDGenerator(sequentialIDs()))
	ctx := context.Background()

	first, err := eng.Run(ctx, `{"eq": "${v}", "variables": {"v": {"value": [1, 2, 3]}}}`)
	require.NoError(t, err)
	link := first.Entries[0].ID

	// Act
	second, err := eng.Run(ctx, fmt.Sprintf(`{"eq": "${prev} * 10", "variables": {"prev": {"link": %q}}}`, link))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 30.0, *second.Series["val2022"])
	assert.Empty(t, second.Entries)
}
