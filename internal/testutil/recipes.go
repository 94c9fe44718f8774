package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Recipe fixtures.
const (
	// ScalarRecipe evaluates to 10 in every year.
	ScalarRecipe = `{"eq": "${x}*2", "variables": {"x": {"type": "scalar", "value": 5}}}`

	// VectorRecipe multiplies a gappy vector by a scalar. Its vector has a
	// single interior gap and its scalar is zero, which triggers a sanity
	// warning.
	VectorRecipe = `{
		"name": "vector",
		"eq": "${growth} + ${offset}",
		"variables": {
			"growth": {"type": "vector", "value": [1, 2, null, 4], "unit": "t"},
			"offset": {"value": 0}
		}
	}`

	// BadEquationRecipe names no variable in its equation.
	BadEquationRecipe = `{"eq": "1 + 2", "variables": {"x": {"value": 1}}}`

	// DivisionRecipe divides by zero in val2021.
	DivisionRecipe = `{"eq": "10 / ${d}", "variables": {"d": {"value": [2, 0, 5]}}}`
)

// WriteFiles writes files (relative path -> content) below a fresh temporary
// directory and returns the directory.
func WriteFiles(t *testing.T, files map[string]string) string {
	t.Helper()

	root := t.TempDir()
	for name, content := range files {
		p := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	}
	return root
}
