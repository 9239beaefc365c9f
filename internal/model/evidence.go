package model

// Condition is circumstance text qualifying when a Claim holds
type Condition struct {
	Text string `json:"text" yaml:"text"`
}

// Source is stated grounding for a Claim, stored without its leading '@'
type Source struct {
	Text string `json:"text" yaml:"text"`
}

// Reference links a Claim to another Concept's Facet.
// Targets are plain names; existence is checked by the resolver, never by the parser.
type Reference struct {
	TargetConcept string `json:"target_concept" yaml:"target_concept"`
	TargetFacet   string `json:"target_facet" yaml:"target_facet"`
	Column        int    `json:"column,omitempty" yaml:"column,omitempty"` // 1-based column of the '&' marker
}

// String renders the reference target in Concept.facet form
func (r Reference) String() string {
	return r.TargetConcept + "." + r.TargetFacet
}
