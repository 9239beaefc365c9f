// Package stats computes descriptive counts for parsed Worldview documents.
// The counts describe shape only; they are not quality scores.
package stats

import (
	"sort"

	"github.com/ppiankov/worldview/internal/model"
)

// Calculate counts the nodes and annotations of a document
func Calculate(doc *model.Document) *model.Stats {
	s := &model.Stats{
		Modifiers: make(map[model.Modifier]int),
		Operators: make(map[model.Operator]int),
	}
	if doc == nil {
		return s
	}

	s.Concepts = len(doc.Concepts)
	for _, c := range doc.Concepts {
		s.Facets += len(c.Facets)
		for _, f := range c.Facets {
			for _, claim := range f.Claims {
				countClaim(s, claim)
			}
		}
	}
	return s
}

func countClaim(s *model.Stats, claim *model.Claim) {
	s.Claims++
	s.Conditions += len(claim.Conditions)
	s.Sources += len(claim.Sources)
	s.References += len(claim.References)

	if claim.Supersedes != "" {
		s.Supersessions++
	}
	if claim.BriefForm != nil {
		s.BriefForms++
	}
	if claim.Operator != "" {
		s.Operators[claim.Operator]++
	}
	for _, m := range claim.Modifiers {
		s.Modifiers[m]++
	}
}

// Count is one labelled tally
type Count struct {
	Label string
	N     int
}

// ModifierCounts lists non-zero modifier tallies in canonical modifier order
func ModifierCounts(s *model.Stats) []Count {
	var out []Count
	for _, m := range model.Modifiers {
		if n := s.Modifiers[m]; n > 0 {
			out = append(out, Count{Label: m.Symbol() + " " + string(m), N: n})
		}
	}
	return out
}

// OperatorCounts lists non-zero operator tallies, most frequent first
func OperatorCounts(s *model.Stats) []Count {
	var out []Count
	for _, op := range model.Operators {
		if n := s.Operators[op]; n > 0 {
			out = append(out, Count{Label: string(op) + " " + op.Meaning(), N: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].N > out[j].N
	})
	return out
}

// ClaimsPerFacet returns the mean number of claims per facet
func ClaimsPerFacet(s *model.Stats) float64 {
	if s.Facets == 0 {
		return 0
	}
	return float64(s.Claims) / float64(s.Facets)
}
