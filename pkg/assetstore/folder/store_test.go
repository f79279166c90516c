package folder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/marmos91/assetd/pkg/assetstore"
	"github.com/marmos91/assetd/pkg/assetstore/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *assetstore.BoundStore {
	t.Helper()

	s, err := NewStore(Config{Path: filepath.Join(t.TempDir(), "assets")})
	require.NoError(t, err)
	require.NoError(t, s.Initialize(context.Background()))

	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	storetest.RunConformanceSuite(t, func(t *testing.T) assetstore.AssetStore {
		return newTestStore(t)
	})
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
}

func TestInitialize_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "assets")

	b, err := New(Config{Path: dir})
	require.NoError(t, err)

	require.NoError(t, b.Initialize(context.Background()))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestInitialize_FailsOnFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))

	b, err := New(Config{Path: file})
	require.NoError(t, err)

	assert.Error(t, b.Initialize(context.Background()))
}

func TestPut_WritesNamedFile(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ref := assetstore.Ref{ID: "abc", Version: 2, Suffix: "thumb"}
	require.NoError(t, s.Upload(ctx, ref, strings.NewReader("data")))

	path := filepath.Join(s.Backend().(*Backend).Path(), "abc_2_thumb")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "data", string(data))
	assert.Equal(t, path, s.SourceURL(ref))
}

func TestPut_LeavesNoTemporaryFiles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	ref := assetstore.Ref{ID: "abc", Version: 1}

	require.NoError(t, s.Upload(ctx, ref, strings.NewReader("one")))
	require.ErrorIs(t, s.Upload(ctx, ref, strings.NewReader("two")), assetstore.ErrAssetAlreadyExists)

	entries, err := os.ReadDir(s.Backend().(*Backend).Path())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "abc_1", entries[0].Name())
}

func TestNew_ResolvesRelativePath(t *testing.T) {
	b, err := New(Config{Path: "relative/assets"})
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(b.Path()))
}
