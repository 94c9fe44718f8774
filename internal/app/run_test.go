package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/specialistvlad/recipegrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decodeOutcomes reads the stream of JSON documents written by Process.
func decodeOutcomes(t *testing.T, data string) []Outcome {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(data))
	var out []Outcome
	for dec.More() {
		var o struct {
			Outcome
			Recipe json.RawMessage `json:"recipe"`
		}
		require.NoError(t, dec.Decode(&o))
		out = append(out, o.Outcome)
	}
	return out
}

func TestProcess_EvaluateDirectory(t *testing.T) {
	t.Parallel()
	// Arrange
	a, out, logs := setupApp(t, nil)
	dir := testutil.WriteFiles(t, map[string]string{
		"a_scalar.json": testutil.ScalarRecipe,
		"b_vector.json": testutil.VectorRecipe,
		"ignored.txt":   "not a recipe",
	})

	// Act
	err := a.Process(context.Background(), dir, true)

	// Assert
	require.NoError(t, err)
	outcomes := decodeOutcomes(t, out.String())
	require.Len(t, outcomes, 2)

	assert.True(t, strings.HasSuffix(outcomes[0].File, "a_scalar.json"))
	assert.Equal(t, 10.0, *outcomes[0].Series["val2050"])

	assert.True(t, strings.HasSuffix(outcomes[1].File, "b_vector.json"))
	require.Len(t, outcomes[1].Entries, 1)
	assert.Equal(t, "t", outcomes[1].Entries[0].Unit)
	assert.Equal(t, 3.0, *outcomes[1].Series["val2022"])
	require.NotEmpty(t, outcomes[1].Warnings)
	assert.Contains(t, outcomes[1].Warnings[0], "division-by-zero")

	assert.Contains(t, logs.String(), "Sanity check warning.")
}

func TestProcess_ValidateOnlyHasNoSeries(t *testing.T) {
	t.Parallel()

	a, out, _ := setupApp(t, nil)
	dir := testutil.WriteFiles(t, map[string]string{"r.json": testutil.ScalarRecipe})

	err := a.Process(context.Background(), dir, false)

	require.NoError(t, err)
	assert.Contains(t, out.String(), `"eq": "${A}*2"`)
	assert.NotContains(t, out.String(), `"series"`)
}

func TestProcess_RejectedRecipeDoesNotStopOthers(t *testing.T) {
	t.Parallel()
	// Arrange
	a, out, logs := setupApp(t, nil)
	dir := testutil.WriteFiles(t, map[string]string{
		"1.json": testutil.BadEquationRecipe,
		"2.json": testutil.ScalarRecipe,
	})

	// Act
	err := a.Process(context.Background(), dir, true)

	// Assert
	require.ErrorIs(t, err, ErrRecipesFailed)
	outcomes := decodeOutcomes(t, out.String())
	require.Len(t, outcomes, 2)
	assert.Contains(t, outcomes[0].Error, "equation error")
	assert.Empty(t, outcomes[1].Error)
	assert.Contains(t, logs.String(), "Recipe rejected.")
}

func TestProcess_NoRecipes(t *testing.T) {
	t.Parallel()

	a, _, _ := setupApp(t, nil)

	err := a.Process(context.Background(), t.TempDir(), true)

	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrRecipesFailed))
	assert.Contains(t, err.Error(), "no .json recipe files")
}

func TestProcess_ZeroFillPolicy(t *testing.T) {
	t.Parallel()

	a, out, _ := setupApp(t, func(c *Config) { c.FillPolicy = "zero_fill" })
	dir := testutil.WriteFiles(t, map[string]string{"r.json": testutil.VectorRecipe})

	require.NoError(t, a.Process(context.Background(), dir, true))

	outcomes := decodeOutcomes(t, out.String())
	require.Len(t, outcomes, 1)
	assert.Equal(t, 0.0, *outcomes[0].Series["val2022"])
	assert.Equal(t, 0.0, *outcomes[0].Series["val2050"])
}

func TestProcess_SharedBadgerStore(t *testing.T) {
	t.Parallel()
	// Arrange
	a, out, _ := setupApp(t, func(c *Config) {
		c.Store = StoreConfig{Backend: StoreBadger, InMemory: true}
	})
	first := testutil.WriteFiles(t, map[string]string{"r.json": testutil.VectorRecipe})
	require.NoError(t, a.Process(context.Background(), first, false))
	link := decodeOutcomes(t, out.String())[0].Entries[0].ID
	out.Reset()

	second := testutil.WriteFiles(t, map[string]string{
		"linked.json": `{"eq": "${prev} * 2", "variables": {"prev": {"link": "` + link + `"}}}`,
	})

	// Act
	err := a.Process(context.Background(), second, true)

	// Assert
	require.NoError(t, err)
	outcomes := decodeOutcomes(t, out.String())
	require.Len(t, outcomes, 1)
	assert.Equal(t, 8.0, *outcomes[0].Series["val2023"])
}
