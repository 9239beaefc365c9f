// Package parse builds Worldview document trees from text.
//
// Parsing never stops at the first problem: every line is classified and
// every finding is returned as a diagnostic alongside whatever tree could be
// built. The only input rejected outright is non-text input, reported as a
// single InvalidEncoding diagnostic before any line is analysed.
package parse

import (
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/worldview/internal/lex"
	"github.com/ppiankov/worldview/internal/model"
)

// Result is a parsed document together with its parse diagnostics
type Result struct {
	Document    *model.Document    `json:"document" yaml:"document"`
	Diagnostics []model.Diagnostic `json:"diagnostics" yaml:"diagnostics"`
}

// HasErrors reports whether any diagnostic is an error
func (r *Result) HasErrors() bool {
	for _, d := range r.Diagnostics {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Parse parses a whole document held in memory
func Parse(text string, opts Options) *Result {
	doc := &model.Document{Concepts: []*model.Concept{}}

	if d := CheckEncoding(text); d != nil {
		return &Result{Document: doc, Diagnostics: []model.Diagnostic{*d}}
	}

	b := newBuilder(opts, func(c *model.Concept) {
		doc.Concepts = append(doc.Concepts, c)
	})
	for _, l := range lex.Lines(text) {
		b.line(l)
	}
	b.finish()

	model.SortDiagnostics(b.diags)
	diags := b.diags
	if diags == nil {
		diags = []model.Diagnostic{}
	}
	return &Result{Document: doc, Diagnostics: diags}
}

// ParseBytes parses raw document bytes
func ParseBytes(data []byte, opts Options) *Result {
	return Parse(string(data), opts)
}

// CheckEncoding returns an InvalidEncoding diagnostic when text is not UTF-8
// or contains NUL bytes, which no text document does
func CheckEncoding(text string) *model.Diagnostic {
	return checkEncoding(text, 1)
}

// checkEncoding numbers lines from firstLine
func checkEncoding(text string, firstLine int) *model.Diagnostic {
	if !utf8.ValidString(text) {
		line := firstLine - 1 + lineOf(text, firstInvalid(text))
		d := model.Errorf(model.KindInvalidEncoding, 0, 0,
			"input is not valid UTF-8 text (first invalid byte on line %d)", line)
		return &d
	}
	if i := strings.IndexByte(text, 0); i >= 0 {
		d := model.Errorf(model.KindInvalidEncoding, 0, 0,
			"input contains NUL bytes (line %d); binary data is not a Worldview document", firstLine-1+lineOf(text, i))
		return &d
	}
	return nil
}

func firstInvalid(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			return i
		}
		i += size
	}
	return len(s)
}

func lineOf(s string, offset int) int {
	return strings.Count(s[:offset], "\n") + 1
}
