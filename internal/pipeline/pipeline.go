// Package pipeline runs documents through load, parse, validate and report,
// caching results by content.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ppiankov/worldview/internal/cache"
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/parse"
	"github.com/ppiankov/worldview/internal/stats"
	"github.com/ppiankov/worldview/internal/validate"
)

// Pipeline orchestrates validation of whole documents
type Pipeline struct {
	loader    *Loader
	parseOpts parse.Options
	validator *validate.Validator
	cache     cache.Cache
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config) *Pipeline {
	return &Pipeline{
		loader:    NewLoader(cfg.Limits.MaxDocumentBytes),
		parseOpts: parse.OptionsFromConfig(cfg),
		validator: validate.NewValidator(validate.OptionsFromConfig(cfg)),
		cache:     cache.New(cfg.Cache),
	}
}

// WithCache replaces the result cache
func (p *Pipeline) WithCache(c cache.Cache) *Pipeline {
	p.cache = c
	return p
}

// Result is the outcome of running one document through the pipeline
type Result struct {
	Document *model.Document `json:"document" yaml:"document"`
	Report   *model.Report   `json:"report" yaml:"report"`
	Cached   bool            `json:"-" yaml:"-"`
}

// ValidateFile loads and validates a document on disk
func (p *Pipeline) ValidateFile(ctx context.Context, path string) (*Result, error) {
	data, err := p.loader.Load(ctx, path)
	if err != nil {
		return nil, err
	}
	return p.ValidateBytes(path, data), nil
}

// ValidateReader validates a document read from r, such as stdin
func (p *Pipeline) ValidateReader(ctx context.Context, source string, r io.Reader) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := p.loader.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return p.ValidateBytes(source, data), nil
}

// ValidateBytes validates an in-memory document. Results are served from
// the cache when the same content was validated with the same options.
func (p *Pipeline) ValidateBytes(source string, data []byte) *Result {
	key := cache.Key(data, p.fingerprint())

	if cached, ok := p.cache.Get(key); ok {
		var res Result
		if err := json.Unmarshal(cached, &res); err == nil && res.Report != nil {
			res.Report.Source = source
			res.Cached = true
			return &res
		}
		_ = p.cache.Delete(key)
	}

	parsed := parse.ParseBytes(data, p.parseOpts)
	report := p.validator.Validate(parsed, source)
	report.Stats = stats.Calculate(parsed.Document)

	res := &Result{Document: parsed.Document, Report: report}
	if encoded, err := json.Marshal(res); err == nil {
		_ = p.cache.Set(key, encoded, 0)
	}
	return res
}

// Stream validates a document concept by concept without building the
// whole tree; fn sees each concept as it completes
func (p *Pipeline) Stream(ctx context.Context, source string, r io.Reader, fn func(*model.Concept) error) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if max := p.loader.MaxBytes(); max > 0 {
		r = &boundedReader{r: r, remaining: max}
	}
	return p.validator.Stream(r, p.parseOpts, source, fn)
}

// fingerprint identifies every option that changes a result
func (p *Pipeline) fingerprint() string {
	v := p.validator.Options()
	return fmt.Sprintf("%s;resolve=%t;empty=%t", p.parseOpts.Fingerprint(), v.ResolveReferences, v.WarnEmptyDocument)
}

// boundedReader fails with ErrDocumentTooLarge instead of truncating
type boundedReader struct {
	r         io.Reader
	remaining int64
}

func (b *boundedReader) Read(buf []byte) (int, error) {
	if b.remaining <= 0 {
		var extra [1]byte
		if n, _ := b.r.Read(extra[:]); n > 0 {
			return 0, ErrDocumentTooLarge
		}
		return 0, io.EOF
	}
	if int64(len(buf)) > b.remaining {
		buf = buf[:b.remaining]
	}
	n, err := b.r.Read(buf)
	b.remaining -= int64(n)
	return n, err
}
