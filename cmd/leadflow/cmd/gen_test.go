package cmd

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeAt(t *testing.T, path string, mod time.Time) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	require.NoError(t, os.Chtimes(path, mod, mod))
}

func TestTemplUpToDate(t *testing.T) {
	old := time.Now().Add(-time.Hour)
	now := time.Now()

	t.Run("generated after source", func(t *testing.T) {
		root := t.TempDir()
		writeAt(t, filepath.Join(root, "pages", "home.templ"), old)
		writeAt(t, filepath.Join(root, "pages", "home_templ.go"), now)

		assert.True(t, templUpToDate(root))
	})

	t.Run("source edited since", func(t *testing.T) {
		root := t.TempDir()
		writeAt(t, filepath.Join(root, "pages", "home.templ"), now)
		writeAt(t, filepath.Join(root, "pages", "home_templ.go"), old)

		assert.False(t, templUpToDate(root))
	})

	t.Run("never generated", func(t *testing.T) {
		root := t.TempDir()
		writeAt(t, filepath.Join(root, "layouts", "base.templ"), old)

		assert.False(t, templUpToDate(root))
	})

	t.Run("no templates", func(t *testing.T) {
		assert.True(t, templUpToDate(t.TempDir()))
	})
}

func TestGeneratorsForceSkipsNothing(t *testing.T) {
	for _, g := range generators(true) {
		assert.False(t, g.skipFn(), g.name)
	}
}
