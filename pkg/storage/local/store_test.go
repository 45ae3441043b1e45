package local

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveCreatesDirectories(t *testing.T) {
	root := t.TempDir()
	store, err := New(root)
	require.NoError(t, err)

	rel, err := store.Save(context.Background(), "2024_03/Budi_Santoso_0a1b2c3d4e5f6071.pdf", strings.NewReader("receipt"))
	require.NoError(t, err)
	assert.Equal(t, "2024_03/Budi_Santoso_0a1b2c3d4e5f6071.pdf", rel)

	data, err := os.ReadFile(filepath.Join(root, "2024_03", "Budi_Santoso_0a1b2c3d4e5f6071.pdf"))
	require.NoError(t, err)
	assert.Equal(t, "receipt", string(data))

	f, err := store.Open(rel)
	require.NoError(t, err)
	defer f.Close()
	got, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "receipt", string(got))

	require.NoError(t, store.Remove(rel))
	require.NoError(t, store.Remove(rel))
}

func TestSaveRejectsEscapingPaths(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	for _, p := range []string{"", "/etc/passwd", "../outside.txt", "a/../../b", "."} {
		_, err := store.Save(context.Background(), p, strings.NewReader("x"))
		assert.ErrorIs(t, err, ErrInvalidPath, p)
	}
}

func TestSaveHonoursCancelledContext(t *testing.T) {
	store, err := New(t.TempDir())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = store.Save(ctx, "a/b.png", strings.NewReader("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPingCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")
	store, err := New(root)
	require.NoError(t, err)

	require.NoError(t, store.Ping(context.Background()))
	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = New("  ")
	assert.Error(t, err)
}
