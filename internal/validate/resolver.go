package validate

import (
	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/parse"
)

// Resolver checks that &Concept.facet references name existing nodes.
// Concepts are indexed by name key as they are added; references are
// resolved only once every concept is known, so forward references work.
type Resolver struct {
	names    parse.NamePolicy
	concepts map[string]map[string]struct{} // concept key -> facet keys
	pending  []pendingRef
}

type pendingRef struct {
	ref  model.Reference
	line int
}

// NewResolver creates an empty resolver
func NewResolver(names parse.NamePolicy) *Resolver {
	return &Resolver{
		names:    names,
		concepts: make(map[string]map[string]struct{}),
	}
}

// Add indexes a concept and records the references its claims make
func (r *Resolver) Add(c *model.Concept) {
	facets, ok := r.concepts[r.names.Key(c.Name)]
	if !ok {
		facets = make(map[string]struct{}, len(c.Facets))
		r.concepts[r.names.Key(c.Name)] = facets
	}
	for _, f := range c.Facets {
		facets[r.names.Key(f.Label)] = struct{}{}
		for _, claim := range f.Claims {
			for _, ref := range claim.References {
				r.pending = append(r.pending, pendingRef{ref: ref, line: claim.Line})
			}
		}
	}
}

// Unresolved returns one warning per reference whose target is missing
func (r *Resolver) Unresolved() []model.Diagnostic {
	var diags []model.Diagnostic
	for _, p := range r.pending {
		facets, ok := r.concepts[r.names.Key(p.ref.TargetConcept)]
		if !ok {
			diags = append(diags, model.Warningf(model.KindUnresolvedReference, p.line, p.ref.Column,
				"unresolved reference &%s: no concept %q", p.ref, p.ref.TargetConcept))
			continue
		}
		if _, ok := facets[r.names.Key(p.ref.TargetFacet)]; !ok {
			diags = append(diags, model.Warningf(model.KindUnresolvedReference, p.line, p.ref.Column,
				"unresolved reference &%s: concept %q has no facet %q",
				p.ref, p.ref.TargetConcept, p.ref.TargetFacet))
		}
	}
	return diags
}

// ResolveDocument resolves every reference in a complete document
func ResolveDocument(doc *model.Document, names parse.NamePolicy) []model.Diagnostic {
	r := NewResolver(names)
	for _, c := range doc.Concepts {
		r.Add(c)
	}
	return r.Unresolved()
}
