package archive

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemorySave(t *testing.T) {
	t.Parallel()

	store := NewMemory()
	uri, err := store.Save(context.Background(), "react.dev/page.html", []byte("<html>"), "text/html")
	require.NoError(t, err)
	require.Equal(t, "mem://react.dev/page.html", uri)

	got, ok := store.Get("react.dev/page.html")
	require.True(t, ok)
	require.Equal(t, []byte("<html>"), got)
	require.Equal(t, 1, store.Len())
}

func TestLocalSave(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	store, err := NewLocal(dir)
	require.NoError(t, err)

	uri, err := store.Save(context.Background(), "react.dev/2026/page.html", []byte("<html>"), "text/html")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(uri, "file://"))

	data, err := os.ReadFile(filepath.Join(dir, "react.dev", "2026", "page.html"))
	require.NoError(t, err)
	require.Equal(t, []byte("<html>"), data)
}
