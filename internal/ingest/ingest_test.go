package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/quote-optimizer/constants"
)

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestReadDirectory(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "acme.csv"), "Description,Qty\nWidget,1\n")
	writeFile(t, filepath.Join(root, "nested", "bright.TXT"), "Widget 1 $5.00")
	writeFile(t, filepath.Join(root, "nested", "acme-copy.csv"), "Description,Qty\nWidget,1\n")
	writeFile(t, filepath.Join(root, "notes.docx"), "ignored")
	writeFile(t, filepath.Join(root, ".hidden", "secret.csv"), "a,b\n")

	docs, stats, err := ReadDirectory(context.Background(), root, true)
	require.NoError(t, err)

	require.Len(t, docs, 2)
	assert.Equal(t, "acme.csv", docs[0].ID)
	assert.Equal(t, string(constants.CSV), docs[0].Format)
	assert.Equal(t, "acme.csv", docs[0].FilenameHint)
	assert.Equal(t, "nested/bright.TXT", docs[1].ID)
	assert.Equal(t, string(constants.TEXT), docs[1].Format)

	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 2, stats.Read)
	assert.EqualValues(t, 1, stats.Deduplicated)
	assert.Zero(t, stats.Failed)
}

func TestReadDirectory_IncludesHidden(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "secret.csv"), "a,b\n")
	docs, _, err := ReadDirectory(context.Background(), root, false)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, ".hidden/secret.csv", docs[0].ID)
}

func TestReadDirectory_Errors(t *testing.T) {
	t.Parallel()
	_, _, err := ReadDirectory(context.Background(), " ", false)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ReadDirectory(ctx, t.TempDir(), false)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "quote.xlsx"), "PK")
	writeFile(t, filepath.Join(dir, "quote.doc"), "x")

	in, err := ReadFile(filepath.Join(dir, "quote.xlsx"))
	require.NoError(t, err)
	assert.Equal(t, "quote.xlsx", in.ID)
	assert.Equal(t, string(constants.XLSX), in.Format)
	assert.Equal(t, []byte("PK"), in.Bytes)

	_, err = ReadFile(filepath.Join(dir, "quote.doc"))
	assert.Error(t, err)
}

func TestReadFiles_CollidingNames(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	a := filepath.Join(dir, "a", "quote.csv")
	b := filepath.Join(dir, "b", "quote.csv")
	writeFile(t, a, "x,y\n")
	writeFile(t, b, "x,z\n")

	docs := ReadFiles([]string{a, b, filepath.Join(dir, "missing.csv")}, nil)
	require.Len(t, docs, 2)
	assert.Equal(t, "quote.csv", docs[0].ID)
	assert.Equal(t, filepath.ToSlash(b), docs[1].ID)
}

func TestStartWatcher(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.csv"), "a,b\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches, _, err := StartWatcher(ctx, WatchConfig{Roots: []string{root}, InitialScan: true, Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	select {
	case b := <-batches:
		assert.Equal(t, []string{filepath.Join(root, "existing.csv")}, b)
	case <-time.After(5 * time.Second):
		t.Fatal("no initial batch")
	}

	writeFile(t, filepath.Join(root, "new.csv"), "a,b\n")
	writeFile(t, filepath.Join(root, "ignored.docx"), "x")
	select {
	case b := <-batches:
		assert.Equal(t, []string{filepath.Join(root, "new.csv")}, b)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch for new file")
	}

	cancel()
	for range batches {
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	t.Parallel()
	_, _, err := StartWatcher(context.Background(), WatchConfig{}, nil)
	assert.Error(t, err)
}
