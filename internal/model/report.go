package model

import "sort"

// Report is the outcome of validating one Worldview document
type Report struct {
	Source   string       `json:"source,omitempty" yaml:"source,omitempty"` // File path, "-" for stdin, or request id
	Valid    bool         `json:"valid" yaml:"valid"`                       // True iff Errors is empty
	Errors   []Diagnostic `json:"errors" yaml:"errors"`
	Warnings []Diagnostic `json:"warnings" yaml:"warnings"`
	Stats    *Stats       `json:"stats,omitempty" yaml:"stats,omitempty"` // Optional descriptive counts
}

// NewReport splits diagnostics by severity, orders each list by position
// and derives Valid. Warnings never affect validity.
func NewReport(source string, diags []Diagnostic) *Report {
	r := &Report{
		Source:   source,
		Errors:   []Diagnostic{},
		Warnings: []Diagnostic{},
	}
	for _, d := range diags {
		if d.IsError() {
			r.Errors = append(r.Errors, d)
		} else {
			r.Warnings = append(r.Warnings, d)
		}
	}
	SortDiagnostics(r.Errors)
	SortDiagnostics(r.Warnings)
	r.Valid = len(r.Errors) == 0
	return r
}

// HasWarnings reports whether any warnings were recorded
func (r *Report) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Diagnostics returns errors followed by warnings
func (r *Report) Diagnostics() []Diagnostic {
	all := make([]Diagnostic, 0, len(r.Errors)+len(r.Warnings))
	all = append(all, r.Errors...)
	return append(all, r.Warnings...)
}

// Count returns how many diagnostics of the given kind the report holds
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, d := range r.Diagnostics() {
		if d.Kind == kind {
			n++
		}
	}
	return n
}

// SortDiagnostics orders diagnostics by line, then column. The sort is
// stable so findings on the same position keep their discovery order.
func SortDiagnostics(diags []Diagnostic) {
	sort.SliceStable(diags, func(i, j int) bool {
		if diags[i].Line != diags[j].Line {
			return diags[i].Line < diags[j].Line
		}
		return diags[i].Column < diags[j].Column
	})
}

// Stats holds descriptive counts for a document. It is not a score.
type Stats struct {
	Concepts      int              `json:"concepts" yaml:"concepts"`
	Facets        int              `json:"facets" yaml:"facets"`
	Claims        int              `json:"claims" yaml:"claims"`
	Conditions    int              `json:"conditions" yaml:"conditions"`
	Sources       int              `json:"sources" yaml:"sources"`
	References    int              `json:"references" yaml:"references"`
	Supersessions int              `json:"supersessions" yaml:"supersessions"`
	BriefForms    int              `json:"brief_forms" yaml:"brief_forms"`
	Modifiers     map[Modifier]int `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`
	Operators     map[Operator]int `json:"operators,omitempty" yaml:"operators,omitempty"`
}
