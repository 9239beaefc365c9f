package model

// Document is the root of a parsed Worldview document.
// Concept order follows the source text and carries no validity meaning.
type Document struct {
	Concepts []*Concept `json:"concepts" yaml:"concepts"`
}

// Concept is a named subject of belief, written at column 0
type Concept struct {
	Name   string   `json:"name" yaml:"name"`
	Facets []*Facet `json:"facets" yaml:"facets"`
	Line   int      `json:"line" yaml:"line"`
}

// Facet is an aspect of a Concept, written as "  .label"
type Facet struct {
	Label  string   `json:"label" yaml:"label"`
	Claims []*Claim `json:"claims" yaml:"claims"`
	Line   int      `json:"line" yaml:"line"`

	// RejectedClaims counts claim lines under this facet that failed extraction.
	// Their diagnostics are reported separately; the facet is not empty.
	RejectedClaims int `json:"rejected_claims,omitempty" yaml:"rejected_claims,omitempty"`
}

// Claims returns every claim in document order
func (d *Document) Claims() []*Claim {
	var claims []*Claim
	for _, c := range d.Concepts {
		for _, f := range c.Facets {
			claims = append(claims, f.Claims...)
		}
	}
	return claims
}

// IsEmpty reports whether the document has no concepts
func (d *Document) IsEmpty() bool {
	return d == nil || len(d.Concepts) == 0
}
