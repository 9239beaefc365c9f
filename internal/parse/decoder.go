package parse

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ppiankov/worldview/internal/lex"
	"github.com/ppiankov/worldview/internal/model"
)

// Decoder parses a document incrementally, yielding each concept once it
// is complete. It follows the same rules as Parse.
//
//	dec := parse.NewDecoder(r, opts)
//	for dec.Next() {
//		handle(dec.Concept())
//	}
//	if err := dec.Err(); err != nil { ... }
//	diags := dec.Diagnostics()
type Decoder struct {
	r       *bufio.Reader
	b       *builder
	pending []*model.Concept
	current *model.Concept
	lineNo  int
	done    bool
	err     error
	invalid *model.Diagnostic
}

// NewDecoder creates a decoder reading from r
func NewDecoder(r io.Reader, opts Options) *Decoder {
	d := &Decoder{r: bufio.NewReader(r)}
	d.b = newBuilder(opts, func(c *model.Concept) {
		d.pending = append(d.pending, c)
	})
	return d
}

// Next advances to the next completed concept
func (d *Decoder) Next() bool {
	for len(d.pending) == 0 && !d.done {
		d.readLine()
	}
	if len(d.pending) == 0 {
		d.current = nil
		return false
	}
	d.current = d.pending[0]
	d.pending = d.pending[1:]
	return true
}

// Concept returns the concept produced by the last call to Next
func (d *Decoder) Concept() *model.Concept {
	return d.current
}

// Err returns the first read error, if any. Document problems are never
// errors; they are diagnostics.
func (d *Decoder) Err() error {
	return d.err
}

// Diagnostics returns all findings so far, ordered by position. After an
// encoding failure only the InvalidEncoding diagnostic is returned.
func (d *Decoder) Diagnostics() []model.Diagnostic {
	if d.invalid != nil {
		return []model.Diagnostic{*d.invalid}
	}
	diags := make([]model.Diagnostic, len(d.b.diags))
	copy(diags, d.b.diags)
	model.SortDiagnostics(diags)
	return diags
}

func (d *Decoder) readLine() {
	text, err := d.r.ReadString('\n')
	if len(text) > 0 {
		d.lineNo++
		if d.lineNo == 1 {
			text = strings.TrimPrefix(text, "\ufeff")
		}
		text = strings.TrimSuffix(text, "\n")

		if diag := checkEncoding(text, d.lineNo); diag != nil {
			d.invalid = diag
			d.pending = nil
			d.done = true
			return
		}
		d.b.line(lex.Classify(d.lineNo, text))
	}

	if err != nil {
		if !errors.Is(err, io.EOF) {
			d.err = fmt.Errorf("read document: %w", err)
		}
		d.b.finish()
		d.done = true
	}
}
