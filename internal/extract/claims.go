// Package extract implements the positional grammar of Worldview claim lines:
//
//	- claim text [<= prior] | condition | condition @source @source &Concept.facet MODIFIERS
//
// Segments must appear in that order. Supersession spans may only appear in
// the claim text and shield their contents from marker scanning.
package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/worldview/internal/model"
)

const supersessionOpen = "[<="

// Options tune optional claim annotations
type Options struct {
	AnnotateBriefForms   bool // attach a subject/operator/object reading when unambiguous
	WarnConflictingTrend bool // warn when one claim is both increasing and decreasing
}

// ClaimExtractor splits claim payloads into their positional segments
type ClaimExtractor struct {
	opts Options
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor(opts Options) *ClaimExtractor {
	return &ClaimExtractor{opts: opts}
}

// segment is one marker-delimited slice of a payload
type segment struct {
	marker byte // 0 for the claim text, otherwise '|', '@' or '&'
	offset int  // byte offset of the marker (or of the text for the claim segment)
	text   string
	spans  []span
}

// span is a [<= ...] region, offsets relative to the segment text
type span struct {
	start int // offset of '['
	end   int // offset just past ']'
}

// Extract parses a claim payload (the text after the '-' marker). line is the
// source line and column the 1-based column of the payload's first byte.
// When any error is found the claim is rejected and nil is returned together
// with the diagnostics; warnings may accompany a successful claim.
func (e *ClaimExtractor) Extract(payload string, line, column int) (*model.Claim, []model.Diagnostic) {
	segments, diag := splitSegments(payload, line, column)
	if diag != nil {
		return nil, []model.Diagnostic{*diag}
	}

	// Positional order is checked first; a violation rejects the claim outright
	if diag := checkOrder(segments, line, column); diag != nil {
		return nil, []model.Diagnostic{*diag}
	}

	var diags []model.Diagnostic
	claim := &model.Claim{Line: line}

	text, supersedes, spanDiags := extractSupersession(segments, line, column)
	diags = append(diags, spanDiags...)
	claim.Supersedes = supersedes

	text, mods := stripModifiers(text)
	last := len(segments) - 1
	if last > 0 {
		var trailing []model.Modifier
		segments[last].text, trailing = stripModifiers(segments[last].text)
		mods = append(mods, trailing...)
	}
	claim.Modifiers = normalizeModifiers(mods)

	claim.Text = strings.TrimSpace(text)
	if claim.Text == "" {
		diags = append(diags, model.Errorf(model.KindEmptyClaim, line, column,
			"claim text is empty"))
	}

	for _, seg := range segments[1:] {
		segColumn := column + seg.offset
		value := strings.TrimSpace(seg.text)

		switch seg.marker {
		case '|':
			if value == "" {
				diags = append(diags, model.Errorf(model.KindEmptySegment, line, segColumn,
					"empty condition after '|'"))
				continue
			}
			claim.Conditions = append(claim.Conditions, model.Condition{Text: value})

		case '@':
			if value == "" {
				diags = append(diags, model.Errorf(model.KindEmptySegment, line, segColumn,
					"empty source after '@'"))
				continue
			}
			claim.Sources = append(claim.Sources, model.Source{Text: value})

		case '&':
			ref, ok := parseReference(value)
			if !ok {
				diags = append(diags, model.Errorf(model.KindMalformedReference, line, segColumn,
					"malformed reference &%s: expected Concept.facet", value))
				continue
			}
			ref.Column = segColumn
			claim.References = append(claim.References, ref)
		}
	}

	if e.opts.WarnConflictingTrend &&
		claim.HasModifier(model.ModifierIncreasing) && claim.HasModifier(model.ModifierDecreasing) {
		diags = append(diags, model.Warningf(model.KindConflictingModifiers, line, 0,
			"claim is marked both increasing (^) and decreasing (v)"))
	}

	for _, d := range diags {
		if d.IsError() {
			return nil, diags
		}
	}

	matches := FindOperators(claim.Text)
	if len(matches) > 0 {
		claim.Operator = matches[0].Operator
	}
	if e.opts.AnnotateBriefForms {
		claim.BriefForm = ReadBriefForm(claim.Text, matches)
	}

	return claim, diags
}

// splitSegments cuts the payload at every marker outside supersession spans
func splitSegments(payload string, line, column int) ([]segment, *model.Diagnostic) {
	segments := []segment{{marker: 0, offset: 0}}
	start := 0
	spanStart := -1

	for i := 0; i < len(payload); i++ {
		if spanStart >= 0 {
			if payload[i] == ']' {
				cur := &segments[len(segments)-1]
				cur.spans = append(cur.spans, span{start: spanStart - start, end: i + 1 - start})
				spanStart = -1
			}
			continue
		}

		if strings.HasPrefix(payload[i:], supersessionOpen) {
			spanStart = i
			i += len(supersessionOpen) - 1
			continue
		}

		switch c := payload[i]; c {
		case '|', '@', '&':
			segments[len(segments)-1].text = payload[start:i]
			segments = append(segments, segment{marker: c, offset: i})
			start = i + 1
		}
	}

	if spanStart >= 0 {
		d := model.Errorf(model.KindMalformedSupersession, line, column+spanStart,
			"unterminated supersession marker: missing ']'")
		return nil, &d
	}

	segments[len(segments)-1].text = payload[start:]
	return segments, nil
}

func markerRank(c byte) int {
	switch c {
	case '|':
		return 1
	case '@':
		return 2
	case '&':
		return 3
	}
	return 0
}

func markerName(c byte) string {
	switch c {
	case '|':
		return "condition '|'"
	case '@':
		return "source '@'"
	case '&':
		return "reference '&'"
	}
	return "claim text"
}

// checkOrder reports the first marker that breaks claim | conditions @sources &references order
func checkOrder(segments []segment, line, column int) *model.Diagnostic {
	prev := byte(0)
	for _, seg := range segments[1:] {
		if markerRank(seg.marker) < markerRank(prev) {
			d := model.Errorf(model.KindMarkersOutOfOrder, line, column+seg.offset,
				"markers out of positional order: %s after %s (expected text | conditions @sources &references)",
				markerName(seg.marker), markerName(prev))
			return &d
		}
		prev = seg.marker
	}

	for _, seg := range segments[1:] {
		if len(seg.spans) > 0 {
			d := model.Errorf(model.KindMarkersOutOfOrder, line, column+seg.offset+1+seg.spans[0].start,
				"markers out of positional order: supersession marker must be part of the claim text")
			return &d
		}
	}
	return nil
}

// extractSupersession removes the [<= ...] span from the claim text
func extractSupersession(segments []segment, line, column int) (string, string, []model.Diagnostic) {
	seg := segments[0]
	if len(seg.spans) == 0 {
		return seg.text, "", nil
	}

	var diags []model.Diagnostic
	if len(seg.spans) > 1 {
		diags = append(diags, model.Errorf(model.KindMalformedSupersession, line, column+seg.spans[1].start,
			"multiple supersession markers in one claim"))
	}

	sp := seg.spans[0]
	prior := strings.TrimSpace(seg.text[sp.start+len(supersessionOpen) : sp.end-1])
	if prior == "" {
		diags = append(diags, model.Errorf(model.KindMalformedSupersession, line, column+sp.start,
			"empty supersession marker"))
	}

	before := strings.TrimSpace(seg.text[:sp.start])
	after := strings.TrimSpace(seg.text[sp.end:])
	text := strings.TrimSpace(before + " " + after)
	return text, prior, diags
}

// parseReference splits Concept.facet on the first '.'
func parseReference(value string) (model.Reference, bool) {
	idx := strings.IndexByte(value, '.')
	if idx < 0 {
		return model.Reference{}, false
	}
	concept := strings.TrimSpace(value[:idx])
	facet := strings.TrimSpace(value[idx+1:])
	if concept == "" || facet == "" {
		return model.Reference{}, false
	}
	return model.Reference{TargetConcept: concept, TargetFacet: facet}, true
}

// stripModifiers removes trailing modifier symbols from s. Symbols may be
// concatenated or space separated. 'v' counts only as a standalone token or
// directly after another modifier symbol, so words ending in v stay intact.
func stripModifiers(s string) (string, []model.Modifier) {
	s = strings.TrimRight(s, " \t")
	var found []model.Modifier

	for len(s) > 0 {
		c := s[len(s)-1]
		m, ok := model.ModifierForSymbol(c)
		if !ok {
			break
		}
		rest := s[:len(s)-1]
		if c == 'v' && !standaloneTrend(rest) {
			break
		}
		found = append(found, m)
		s = strings.TrimRight(rest, " \t")
	}
	return s, found
}

func standaloneTrend(rest string) bool {
	if strings.TrimSpace(rest) == "" {
		return false
	}
	p := rest[len(rest)-1]
	if p == ' ' || p == '\t' {
		return true
	}
	m, ok := model.ModifierForSymbol(p)
	return ok && m != model.ModifierDecreasing
}

// normalizeModifiers dedupes and orders modifiers canonically
func normalizeModifiers(mods []model.Modifier) []model.Modifier {
	if len(mods) == 0 {
		return nil
	}
	seen := make(map[model.Modifier]bool, len(mods))
	for _, m := range mods {
		seen[m] = true
	}
	out := make([]model.Modifier, 0, len(seen))
	for _, m := range model.Modifiers {
		if seen[m] {
			out = append(out, m)
		}
	}
	return out
}

// FormatClaim renders a claim payload in canonical positional order
func FormatClaim(c *model.Claim) string {
	var b strings.Builder
	b.WriteString(c.Text)
	if c.Supersedes != "" {
		fmt.Fprintf(&b, " %s %s]", supersessionOpen, c.Supersedes)
	}
	for _, cond := range c.Conditions {
		fmt.Fprintf(&b, " | %s", cond.Text)
	}
	for _, src := range c.Sources {
		fmt.Fprintf(&b, " @%s", src.Text)
	}
	for _, ref := range c.References {
		fmt.Fprintf(&b, " &%s", ref.String())
	}
	if len(c.Modifiers) > 0 {
		b.WriteByte(' ')
		for _, m := range c.Modifiers {
			b.WriteString(m.Symbol())
		}
	}
	return b.String()
}
