package driver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcelens/semdiff/pkg/filterengine"
	"github.com/sourcelens/semdiff/pkg/resultmodel"
	"github.com/sourcelens/semdiff/pkg/sourcetree"
)

func testRegistry() *sourcetree.Registry {
	r := sourcetree.NewRegistry()
	r.SetFallback(sourcetree.NewTextParser())

	return r
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		full := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0o644)) //nolint:gosec // test fixture
	}
}

func TestDriver_New_RequiresRegistry(t *testing.T) {
	t.Parallel()

	_, err := New(Options{})
	require.ErrorIs(t, err, ErrNoRegistry)
}

func TestDriver_New_DefaultsApplied(t *testing.T) {
	t.Parallel()

	d, err := New(Options{Registry: testRegistry()})
	require.NoError(t, err)

	assert.Equal(t, defaultConcurrency, d.opts.Concurrency)
	assert.Equal(t, defaultPerFileTimeout, d.opts.PerFileTimeout)
}

func TestDriver_DiffFolder_DetectsAddedRemovedAndModified(t *testing.T) {
	t.Parallel()

	oldRoot := t.TempDir()
	newRoot := t.TempDir()

	writeTree(t, oldRoot, map[string]string{
		"unchanged.txt": "same content\n",
		"removed.txt":   "gone soon\n",
		"modified.txt":  "before\n",
	})
	writeTree(t, newRoot, map[string]string{
		"unchanged.txt": "same content\n",
		"modified.txt":  "after\n",
		"added.txt":     "brand new\n",
	})

	d, err := New(Options{Registry: testRegistry()})
	require.NoError(t, err)

	result, err := d.DiffFolder(context.Background(), oldRoot, newRoot)
	require.NoError(t, err)

	byPath := make(map[string]resultmodel.FileEntry, len(result.Files))
	for _, f := range result.Files {
		byPath[f.NewPath] = f
	}

	assert.Equal(t, resultmodel.FileUnchanged, byPath["unchanged.txt"].Status)
	assert.Equal(t, resultmodel.FileModified, byPath["modified.txt"].Status)
	assert.Equal(t, resultmodel.FileAdded, byPath["added.txt"].Status)

	removed, ok := byPath["removed.txt"]
	require.True(t, ok)
	assert.Equal(t, resultmodel.FileRemoved, removed.Status)

	assert.Equal(t, resultmodel.ComparisonFolder, result.ComparisonMode)
}

func TestDriver_DiffFolder_RespectsFilter(t *testing.T) {
	t.Parallel()

	oldRoot := t.TempDir()
	newRoot := t.TempDir()

	writeTree(t, oldRoot, map[string]string{"keep.cs": "a\n", "skip.md": "a\n"})
	writeTree(t, newRoot, map[string]string{"keep.cs": "b\n", "skip.md": "b\n"})

	filter, err := filterengine.Compile([]string{"**/*.cs"}, nil)
	require.NoError(t, err)

	d, err := New(Options{Registry: testRegistry(), Filter: filter})
	require.NoError(t, err)

	result, err := d.DiffFolder(context.Background(), oldRoot, newRoot)
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Equal(t, "keep.cs", result.Files[0].NewPath)
}

func TestDriver_DiffFolder_NonRecursiveSkipsSubdirectories(t *testing.T) {
	t.Parallel()

	oldRoot := t.TempDir()
	newRoot := t.TempDir()

	writeTree(t, oldRoot, map[string]string{"nested/a.txt": "x\n"})
	writeTree(t, newRoot, map[string]string{"nested/a.txt": "y\n"})

	d, err := New(Options{Registry: testRegistry(), Recursive: false})
	require.NoError(t, err)

	result, err := d.DiffFolder(context.Background(), oldRoot, newRoot)
	require.NoError(t, err)
	assert.Empty(t, result.Files)
}

func TestDriver_DiffFolder_ApplyResultFilterPrunesChanges(t *testing.T) {
	t.Parallel()

	oldRoot := t.TempDir()
	newRoot := t.TempDir()

	writeTree(t, oldRoot, map[string]string{"a.txt": "before\n"})
	writeTree(t, newRoot, map[string]string{"a.txt": "after\n"})

	d, err := New(Options{
		Registry:     testRegistry(),
		ResultFilter: resultmodel.FilterOptions{Impact: resultmodel.FilterBreakingPublic},
	})
	require.NoError(t, err)

	result, err := d.DiffFolder(context.Background(), oldRoot, newRoot)
	require.NoError(t, err)

	require.Len(t, result.Files, 1)
	assert.Empty(t, result.Files[0].Result.Changes)
}
