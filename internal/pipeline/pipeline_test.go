package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/worldview/internal/cache"
	"github.com/ppiankov/worldview/internal/model"
)

const validDoc = "Trust\n  .formation\n    - slow &Trust.erosion\n  .erosion\n    - fast !\n"

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false
	return cfg
}

func limitedConfig() *model.Config {
	cfg := testConfig()
	cfg.Limits.MaxDocumentBytes = 16
	return cfg
}

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPipeline_ValidateFile(t *testing.T) {
	p := NewPipeline(testConfig())
	path := writeDoc(t, "trust.wvf", validDoc)

	res, err := p.ValidateFile(context.Background(), path)
	require.NoError(t, err)

	assert.True(t, res.Report.Valid, "errors: %v", res.Report.Errors)
	assert.Equal(t, path, res.Report.Source)
	require.NotNil(t, res.Report.Stats)
	assert.Equal(t, 2, res.Report.Stats.Claims)
	assert.Len(t, res.Document.Concepts, 1)
}

func TestPipeline_ValidateFile_Missing(t *testing.T) {
	_, err := NewPipeline(testConfig()).ValidateFile(context.Background(), filepath.Join(t.TempDir(), "nope.wvf"))
	assert.Error(t, err)
}

func TestPipeline_DocumentTooLarge(t *testing.T) {
	p := NewPipeline(limitedConfig())

	_, err := p.ValidateFile(context.Background(), writeDoc(t, "big.wvf", validDoc))
	assert.ErrorIs(t, err, ErrDocumentTooLarge, "file")

	_, err = p.ValidateReader(context.Background(), "-", strings.NewReader(validDoc))
	assert.ErrorIs(t, err, ErrDocumentTooLarge, "reader")

	_, err = p.Stream(context.Background(), "-", strings.NewReader(validDoc), nil)
	assert.ErrorIs(t, err, ErrDocumentTooLarge, "stream")
}

func TestPipeline_ValidateReader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPipeline(testConfig()).ValidateReader(ctx, "-", strings.NewReader(validDoc))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPipeline_CachesByContent(t *testing.T) {
	p := NewPipeline(testConfig()).WithCache(cache.NewMemoryCache(time.Minute, 0))

	first := p.ValidateBytes("a.wvf", []byte(validDoc))
	assert.False(t, first.Cached, "first run should miss the cache")

	second := p.ValidateBytes("b.wvf", []byte(validDoc))
	assert.True(t, second.Cached, "second run should hit the cache")
	assert.Equal(t, "b.wvf", second.Report.Source, "cached report should carry the new source")
	assert.Equal(t, first.Report.Valid, second.Report.Valid)
	assert.Len(t, second.Document.Concepts, 1)

	third := p.ValidateBytes("a.wvf", []byte(validDoc+"Power\n"))
	assert.False(t, third.Cached, "changed content should miss the cache")
	assert.False(t, third.Report.Valid, "empty concept should invalidate the document")
}

func TestPipeline_Stream(t *testing.T) {
	p := NewPipeline(testConfig())

	var names []string
	report, err := p.Stream(context.Background(), "-", strings.NewReader(validDoc+"Power\n  .effects\n    - x\n"),
		func(c *model.Concept) error {
			names = append(names, c.Name)
			return nil
		})
	require.NoError(t, err)
	assert.True(t, report.Valid, "errors: %v", report.Errors)
	assert.Equal(t, []string{"Trust", "Power"}, names)
}

func TestHasDocumentExtension(t *testing.T) {
	tests := map[string]bool{
		"beliefs.wvf":     true,
		"dir/BELIEFS.WVF": true,
		"beliefs.txt":     false,
		"beliefs":         false,
		"wvf":             false,
	}
	for path, want := range tests {
		assert.Equal(t, want, HasDocumentExtension(path), path)
	}
}

func TestLoader_Limits(t *testing.T) {
	data, err := NewLoader(0).ReadAll(strings.NewReader(validDoc))
	require.NoError(t, err)
	assert.Equal(t, validDoc, string(data), "zero limit reads everything")

	data, err = NewLoader(int64(len(validDoc))).ReadAll(strings.NewReader(validDoc))
	require.NoError(t, err, "document at the limit should load")
	assert.Len(t, data, len(validDoc))
}

func TestRenderer_RenderText(t *testing.T) {
	r := NewRenderer(false)

	tests := []struct {
		name   string
		report *model.Report
		want   []string
	}{
		{
			name:   "valid",
			report: model.NewReport("-", nil),
			want:   []string{"Valid Worldview document\n"},
		},
		{
			name: "valid with warnings",
			report: model.NewReport("doc.wvf", []model.Diagnostic{
				model.Warningf(model.KindUnresolvedReference, 3, 7, "unresolved reference &A.b: no concept %q", "A"),
			}),
			want: []string{"doc.wvf: Valid Worldview document with 1 warning(s):", "  line 3:7: unresolved reference &A.b", "[UnresolvedReference]"},
		},
		{
			name: "invalid",
			report: model.NewReport("", []model.Diagnostic{
				model.Errorf(model.KindEmptyConcept, 1, 1, "concept %q has no facets", "A"),
				model.Warningf(model.KindEmptyDocument, 0, 0, "document contains no concepts"),
			}),
			want: []string{"Invalid Worldview document (1 error(s)):", "Additionally, 1 warning(s):", "  document contains no concepts"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, r.RenderText(&buf, tt.report))
			for _, want := range tt.want {
				assert.Contains(t, buf.String(), want)
			}
		})
	}
}

func TestRenderer_Formats(t *testing.T) {
	r := NewRenderer(false)
	res := NewPipeline(testConfig()).ValidateBytes("doc.wvf", []byte(validDoc))

	var buf bytes.Buffer
	require.NoError(t, r.Write(&buf, FormatJSON, res.Report, res.Report))
	assert.Contains(t, buf.String(), `"valid": true`)

	buf.Reset()
	require.NoError(t, r.Write(&buf, FormatYAML, res, res.Report))
	assert.Contains(t, buf.String(), "name: Trust")

	assert.Error(t, r.Write(&buf, "xml", res, res.Report), "unknown format")
}

func TestRenderer_RenderJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.json")
	require.NoError(t, NewRenderer(false).RenderJSON(model.NewReport("x", nil), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"source": "x"`)
}

func TestRenderer_RenderStats(t *testing.T) {
	res := NewPipeline(testConfig()).ValidateBytes("doc.wvf", []byte(validDoc))

	var buf bytes.Buffer
	require.NoError(t, NewRenderer(false).RenderStats(&buf, "doc.wvf", res.Report.Stats))
	for _, want := range []string{"Document statistics: doc.wvf", "claims", "! emphatic"} {
		assert.Contains(t, buf.String(), want)
	}
}
