// Package validate checks parsed Worldview documents against the format's
// structural invariants and produces validation reports.
package validate

import (
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/parse"
)

// Options control validation
type Options struct {
	ResolveReferences bool // run the reference resolver after the tree is built
	WarnEmptyDocument bool // warn when a document holds no concepts
	Names             parse.NamePolicy
}

// DefaultOptions returns the options implied by model.DefaultConfig
func DefaultOptions() Options {
	return OptionsFromConfig(model.DefaultConfig())
}

// OptionsFromConfig derives validation options from tool configuration
func OptionsFromConfig(cfg *model.Config) Options {
	return Options{
		ResolveReferences: cfg.Validation.ResolveReferences,
		WarnEmptyDocument: cfg.Validation.WarnEmptyDocument,
		Names:             parse.NamePolicyFromConfig(cfg.Names),
	}
}

// Validator turns parse results into validation reports
type Validator struct {
	opts Options
}

// NewValidator creates a new validator
func NewValidator(opts Options) *Validator {
	return &Validator{opts: opts}
}

// Options returns the validator's options
func (v *Validator) Options() Options {
	return v.opts
}

// Validate checks a parsed document. Parse diagnostics are carried into the
// report unchanged; structural checks and reference resolution add to them.
func (v *Validator) Validate(res *parse.Result, source string) *model.Report {
	if encodingFailed(res.Diagnostics) {
		return model.NewReport(source, res.Diagnostics)
	}

	var checks []model.Diagnostic
	for _, c := range res.Document.Concepts {
		checks = append(checks, CheckConcept(c)...)
	}

	var refs []model.Diagnostic
	if v.opts.ResolveReferences {
		refs = ResolveDocument(res.Document, v.opts.Names)
	}

	return v.report(source, len(res.Document.Concepts), res.Diagnostics, checks, refs)
}

func (v *Validator) report(source string, concepts int, groups ...[]model.Diagnostic) *model.Report {
	var all []model.Diagnostic
	hasErrors := false
	for _, g := range groups {
		for _, d := range g {
			if d.IsError() {
				hasErrors = true
			}
		}
		all = append(all, g...)
	}

	if v.opts.WarnEmptyDocument && concepts == 0 && !hasErrors {
		all = append(all, model.Warningf(model.KindEmptyDocument, 0, 0,
			"document contains no concepts"))
	}
	return model.NewReport(source, all)
}

// CheckConcept enforces the per-concept invariants: at least one facet, and
// at least one claim per facet. A facet whose claim lines were all rejected
// is not reported as empty; those lines already carry their own errors.
func CheckConcept(c *model.Concept) []model.Diagnostic {
	var diags []model.Diagnostic
	if len(c.Facets) == 0 {
		diags = append(diags, model.Errorf(model.KindEmptyConcept, c.Line, 1,
			"concept %q has no facets", c.Name))
	}
	for _, f := range c.Facets {
		if len(f.Claims) == 0 && f.RejectedClaims == 0 {
			diags = append(diags, model.Errorf(model.KindEmptyFacet, f.Line, 3,
				"facet %q in concept %q has no claims", f.Label, c.Name))
		}
	}
	return diags
}

func encodingFailed(diags []model.Diagnostic) bool {
	for _, d := range diags {
		if d.Kind == model.KindInvalidEncoding {
			return true
		}
	}
	return false
}
