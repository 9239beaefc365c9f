package parse

import (
	"github.com/ppiankov/worldview/internal/extract"
	"github.com/ppiankov/worldview/internal/lex"
	"github.com/ppiankov/worldview/internal/model"
)

type state int

const (
	noConcept state = iota
	inConcept
	inFacet
)

// builder assembles the Concept -> Facet -> Claim tree from classified lines.
// Completed concepts are handed to emit as soon as the next concept line or
// the end of input is seen.
type builder struct {
	opts      Options
	extractor *extract.ClaimExtractor
	emit      func(*model.Concept)

	state    state
	concept  *model.Concept
	detached bool // current concept is a duplicate and will not be emitted
	facet    *model.Facet

	concepts map[string]int // name key -> first definition line
	facets   map[string]int // label key within the current concept -> first definition line

	diags []model.Diagnostic
}

func newBuilder(opts Options, emit func(*model.Concept)) *builder {
	return &builder{
		opts:      opts,
		extractor: extract.NewClaimExtractor(opts.Claims),
		emit:      emit,
		concepts:  make(map[string]int),
	}
}

func (b *builder) line(l lex.Line) {
	switch l.Kind {
	case lex.Blank:
	case lex.Concept:
		b.conceptLine(l)
	case lex.Facet:
		b.facetLine(l)
	case lex.Claim:
		b.claimLine(l)
	default:
		b.malformedLine(l)
	}
}

func (b *builder) finish() {
	b.closeConcept()
	b.state = noConcept
}

func (b *builder) closeConcept() {
	if b.concept != nil && !b.detached {
		b.emit(b.concept)
	}
	b.concept = nil
	b.facet = nil
	b.detached = false
}

func (b *builder) conceptLine(l lex.Line) {
	b.closeConcept()

	b.concept = &model.Concept{Name: l.Text, Line: l.Number}
	b.facets = make(map[string]int)
	b.state = inConcept

	key := b.opts.Names.Key(l.Text)
	if first, ok := b.concepts[key]; ok {
		d := model.Errorf(model.KindDuplicateConcept, l.Number, l.TextColumn,
			"duplicate concept %q (first defined on line %d)", l.Text, first)
		d.RelatedLine = first
		b.diags = append(b.diags, d)
		b.detached = true
		return
	}
	b.concepts[key] = l.Number
}

func (b *builder) facetLine(l lex.Line) {
	facet := &model.Facet{Label: l.Text, Line: l.Number}
	b.facet = facet

	if b.state == noConcept {
		if l.Kind != lex.Malformed {
			b.diags = append(b.diags, model.Errorf(model.KindFacetWithoutConcept, l.Number, l.Indent+1,
				"facet %q without enclosing concept", l.Text))
		}
		// claims below still get checked, the facet itself has no home
		b.state = inFacet
		return
	}
	b.state = inFacet

	if l.Text == "" {
		b.diags = append(b.diags, model.Errorf(model.KindEmptyName, l.Number, l.Indent+1,
			"facet label is empty after '.'"))
		return
	}

	key := b.opts.Names.Key(l.Text)
	if first, ok := b.facets[key]; ok {
		d := model.Errorf(model.KindDuplicateFacet, l.Number, l.TextColumn,
			"duplicate facet %q in concept %q (first defined on line %d)", l.Text, b.concept.Name, first)
		d.RelatedLine = first
		b.diags = append(b.diags, d)
		return
	}
	b.facets[key] = l.Number
	b.concept.Facets = append(b.concept.Facets, facet)
}

func (b *builder) claimLine(l lex.Line) {
	if b.state != inFacet && l.Kind != lex.Malformed {
		b.diags = append(b.diags, model.Errorf(model.KindClaimWithoutFacet, l.Number, l.Indent+1,
			"claim without enclosing facet"))
	}

	claim, diags := b.extractor.Extract(l.Text, l.Number, l.TextColumn)
	b.diags = append(b.diags, diags...)

	if b.state != inFacet {
		return
	}
	if claim == nil {
		b.facet.RejectedClaims++
		return
	}
	b.facet.Claims = append(b.facet.Claims, claim)
}

// malformedLine reports the line, then keeps tracking state as the role the
// line was evidently meant to have so one bad indent does not cascade. The
// line gets no second, structural diagnostic.
func (b *builder) malformedLine(l lex.Line) {
	b.diags = append(b.diags, model.Errorf(l.Problem, l.Number, l.Indent+1, "%s", l.Reason))

	switch l.Intended {
	case lex.Facet:
		b.facetLine(l)
	case lex.Claim:
		b.claimLine(l)
	}
}
