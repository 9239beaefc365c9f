package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"

	"github.com/ppiankov/worldview/internal/pipeline"
)

// Validator validates one document on disk
type Validator interface {
	ValidateFile(ctx context.Context, path string) (*pipeline.Result, error)
}

// ValidateJob validates a single document
type ValidateJob struct {
	Path      string
	Validator Validator
}

// Execute runs the validation
func (j *ValidateJob) Execute(ctx context.Context) Result {
	result, err := j.Validator.ValidateFile(ctx, j.Path)
	return &FileResult{
		Path:   j.Path,
		Result: result,
		Error:  err,
	}
}

// FileResult is the outcome of validating one document in a batch
type FileResult struct {
	Path   string
	Result *pipeline.Result
	Error  error // load failure; document problems live in Result.Report
}

// GetError returns the load error, if any
func (r *FileResult) GetError() error {
	return r.Error
}

// Valid reports whether the document loaded and has no errors
func (r *FileResult) Valid() bool {
	return r.Error == nil && r.Result != nil && r.Result.Report.Valid
}

// BatchProcessor validates many documents concurrently
type BatchProcessor struct {
	validator   Validator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(validator Validator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		validator:   validator,
		concurrency: concurrency,
	}
}

// ProcessPaths validates every path and returns results sorted by path.
// Paths that never ran because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*FileResult {
	if len(paths) == 0 {
		return []*FileResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, path := range paths {
		if !pool.Submit(&ValidateJob{Path: path, Validator: b.validator}) {
			break
		}
	}

	done := make(map[string]*FileResult, len(paths))
	for _, r := range pool.Wait() {
		fr := r.(*FileResult)
		done[fr.Path] = fr
	}

	results := make([]*FileResult, 0, len(paths))
	for _, path := range paths {
		fr, ok := done[path]
		if !ok {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			fr = &FileResult{Path: path, Error: fmt.Errorf("not validated: %w", err)}
		}
		results = append(results, fr)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Path < results[j].Path
	})
	return results
}

// ProcessPatterns expands patterns and validates the matching documents
func (b *BatchProcessor) ProcessPatterns(ctx context.Context, patterns []string) ([]*FileResult, error) {
	paths, err := ExpandPatterns(patterns)
	if err != nil {
		return nil, err
	}
	return b.ProcessPaths(ctx, paths), nil
}

// ExpandPatterns resolves doublestar globs ("docs/**/*.wvf"), plain paths and
// "@file" lists into a sorted, de-duplicated path list. A glob that matches
// nothing is not an error; a missing plain path is left for the validator
// to report.
func ExpandPatterns(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var paths []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	for _, pattern := range patterns {
		switch {
		case strings.HasPrefix(pattern, "@"):
			listed, err := ReadPathsFromFile(strings.TrimPrefix(pattern, "@"))
			if err != nil {
				return nil, err
			}
			for _, p := range listed {
				add(p)
			}

		case hasMeta(pattern):
			if !doublestar.ValidatePattern(pattern) {
				return nil, fmt.Errorf("invalid pattern %q", pattern)
			}
			matches, err := doublestar.FilepathGlob(pattern, doublestar.WithFilesOnly())
			if err != nil {
				return nil, fmt.Errorf("expand %q: %w", pattern, err)
			}
			for _, m := range matches {
				add(m)
			}

		default:
			add(pattern)
		}
	}

	sort.Strings(paths)
	return paths, nil
}

func hasMeta(pattern string) bool {
	return strings.ContainsAny(pattern, "*?[{")
}

// ReadPathsFromFile reads document paths from a file (one per line).
// Blank lines and '#' comments are skipped and duplicates dropped.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

// Summary aggregates a batch run
type Summary struct {
	RunID    string        `json:"run_id"`
	Total    int           `json:"total"`
	Valid    int           `json:"valid"`
	Invalid  int           `json:"invalid"`
	Failed   int           `json:"failed"` // could not be loaded
	Warnings int           `json:"warnings"`
	Duration time.Duration `json:"duration"`
}

// Summarize counts the outcomes of a batch
func Summarize(results []*FileResult, elapsed time.Duration) Summary {
	s := Summary{
		RunID:    uuid.New().String(),
		Total:    len(results),
		Duration: elapsed,
	}
	for _, r := range results {
		switch {
		case r.Error != nil:
			s.Failed++
		case r.Valid():
			s.Valid++
		default:
			s.Invalid++
		}
		if r.Result != nil {
			s.Warnings += len(r.Result.Report.Warnings)
		}
	}
	return s
}

// OK reports whether every document loaded and validated
func (s Summary) OK() bool {
	return s.Invalid == 0 && s.Failed == 0
}
