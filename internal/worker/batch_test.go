package worker

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/pipeline"
)

// mockValidator implements Validator
type mockValidator struct {
	invalid map[string]bool
	missing map[string]bool
}

func (m *mockValidator) ValidateFile(ctx context.Context, path string) (*pipeline.Result, error) {
	time.Sleep(5 * time.Millisecond)
	if m.missing[path] {
		return nil, errors.New("open document: no such file")
	}
	var diags []model.Diagnostic
	if m.invalid[path] {
		diags = append(diags, model.Errorf(model.KindEmptyConcept, 1, 1, "concept %q has no facets", "A"))
	}
	diags = append(diags, model.Warningf(model.KindUnresolvedReference, 2, 0, "unresolved"))
	return &pipeline.Result{
		Document: &model.Document{},
		Report:   model.NewReport(path, diags),
	}, nil
}

func writeTree(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("A\n"), 0o644))
	}
}

func TestBatchProcessor_ProcessPaths(t *testing.T) {
	v := &mockValidator{
		invalid: map[string]bool{"b.wvf": true},
		missing: map[string]bool{"c.wvf": true},
	}
	processor := NewBatchProcessor(v, 2)

	results := processor.ProcessPaths(context.Background(), []string{"c.wvf", "a.wvf", "b.wvf"})
	require.Len(t, results, 3)

	var paths []string
	for _, r := range results {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{"a.wvf", "b.wvf", "c.wvf"}, paths, "results should be sorted by path")

	assert.True(t, results[0].Valid(), "a.wvf should be valid")
	assert.False(t, results[1].Valid(), "b.wvf should be invalid")
	assert.NoError(t, results[1].Error, "b.wvf should load")
	assert.Error(t, results[2].Error, "c.wvf should fail to load")

	s := Summarize(results, time.Second)
	assert.Equal(t, 3, s.Total)
	assert.Equal(t, 1, s.Valid)
	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, 1, s.Failed)
	assert.Equal(t, 2, s.Warnings)
	assert.NotEmpty(t, s.RunID)
	assert.False(t, s.OK())
}

func TestBatchProcessor_ProcessPatterns(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.wvf", "sub/b.wvf", "notes.txt")

	v := &mockValidator{invalid: map[string]bool{filepath.Join(dir, "sub", "b.wvf"): true}}
	results, err := NewBatchProcessor(v, 2).ProcessPatterns(context.Background(), []string{filepath.Join(dir, "**", "*.wvf")})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, filepath.Join(dir, "a.wvf"), results[0].Path)
	assert.False(t, results[1].Valid())

	_, err = NewBatchProcessor(v, 2).ProcessPatterns(context.Background(), []string{"docs/[*.wvf"})
	assert.Error(t, err)
}

func TestBatchProcessor_Empty(t *testing.T) {
	results := NewBatchProcessor(&mockValidator{}, 2).ProcessPaths(context.Background(), nil)
	assert.Empty(t, results)
	assert.True(t, Summarize(results, 0).OK(), "empty batch should be OK")
}

func TestBatchProcessor_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	paths := []string{"a.wvf", "b.wvf", "c.wvf", "d.wvf", "e.wvf", "f.wvf", "g.wvf", "h.wvf"}
	results := NewBatchProcessor(&mockValidator{}, 1).ProcessPaths(ctx, paths)
	require.Len(t, results, len(paths), "every path should get a result")

	notRun := 0
	for _, r := range results {
		if errors.Is(r.Error, context.Canceled) {
			notRun++
		}
	}
	assert.NotZero(t, notRun, "cancelled paths should report context.Canceled")
}

func TestExpandPatterns(t *testing.T) {
	dir := t.TempDir()
	writeTree(t, dir, "a.wvf", "notes.txt", "sub/b.wvf", "sub/deep/c.wvf")

	list := filepath.Join(dir, "list.txt")
	content := "# documents\n" + filepath.Join(dir, "a.wvf") + "\n\n" + filepath.Join(dir, "extra.wvf") + "\n"
	require.NoError(t, os.WriteFile(list, []byte(content), 0o644))

	paths, err := ExpandPatterns([]string{
		filepath.Join(dir, "**", "*.wvf"),
		"@" + list,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "a.wvf"),
		filepath.Join(dir, "extra.wvf"),
		filepath.Join(dir, "sub", "b.wvf"),
		filepath.Join(dir, "sub", "deep", "c.wvf"),
	}, paths)
}

func TestExpandPatterns_Errors(t *testing.T) {
	_, err := ExpandPatterns([]string{"@" + filepath.Join(t.TempDir(), "missing.txt")})
	assert.Error(t, err, "missing list file")

	_, err = ExpandPatterns([]string{"docs/[*.wvf"})
	assert.Error(t, err, "invalid pattern")
}

func TestReadPathsFromFile(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "paths.txt")
	require.NoError(t, os.WriteFile(tmp, []byte("a.wvf\n# comment\n\nb.wvf\na.wvf\n"), 0o644))

	paths, err := ReadPathsFromFile(tmp)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.wvf", "b.wvf"}, paths)
}
