package app

import (
	"bytes"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/specialistvlad/recipegrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// setupApp creates an app with debug logging captured in a buffer.
func setupApp(t *testing.T, mutate func(*Config)) (*App, *bytes.Buffer, *testutil.SafeBuffer) {
	t.Helper()

	cfg := DefaultConfig()
	cfg.LogLevel = "debug"
	if mutate != nil {
		mutate(&cfg)
	}
	validated, err := NewConfig(cfg)
	require.NoError(t, err)

	out := &bytes.Buffer{}
	logs := &testutil.SafeBuffer{}
	a, err := NewApp(out, logs, validated)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, a.Close())
		if os.Getenv("RECIPEGRID_TEST_LOGS") == "true" {
			t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logs.String())
		}
	})
	return a, out, logs
}
