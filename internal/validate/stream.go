package validate

import (
	"io"

	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/parse"
)

// Stream validates a document without holding the whole tree. Each concept
// is checked as soon as it is complete and passed to fn (which may be nil);
// references are resolved once the input is exhausted. An error from fn
// stops the stream and is returned as is.
func (v *Validator) Stream(r io.Reader, opts parse.Options, source string, fn func(*model.Concept) error) (*model.Report, error) {
	dec := parse.NewDecoder(r, opts)
	resolver := NewResolver(v.opts.Names)

	var checks []model.Diagnostic
	concepts := 0
	for dec.Next() {
		c := dec.Concept()
		concepts++
		checks = append(checks, CheckConcept(c)...)
		if v.opts.ResolveReferences {
			resolver.Add(c)
		}
		if fn != nil {
			if err := fn(c); err != nil {
				return nil, err
			}
		}
	}
	if err := dec.Err(); err != nil {
		return nil, err
	}

	parsed := dec.Diagnostics()
	if encodingFailed(parsed) {
		return model.NewReport(source, parsed), nil
	}

	var refs []model.Diagnostic
	if v.opts.ResolveReferences {
		refs = resolver.Unresolved()
	}
	return v.report(source, concepts, parsed, checks, refs), nil
}
