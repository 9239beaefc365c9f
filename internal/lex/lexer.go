// Package lex classifies raw Worldview text lines into typed, indentation-annotated records.
//
// Indentation is fixed at two spaces per level:
//
//	Concept           (indent 0)
//	  .facet          (indent 2, '.' marker)
//	    - claim       (indent 4, '-' marker)
//
// Tabs are never accepted as indentation. Classification is a pure function of
// a single line; nesting against the previous lines is the parser's concern.
package lex

import (
	"fmt"
	"strings"

	"github.com/ppiankov/worldview/internal/model"
)

// Indentation of each nesting level, in spaces
const (
	ConceptIndent = 0
	FacetIndent   = 2
	ClaimIndent   = 4
)

// Kind classifies a line
type Kind int

const (
	Blank Kind = iota
	Concept
	Facet
	Claim
	Malformed
)

func (k Kind) String() string {
	switch k {
	case Blank:
		return "blank"
	case Concept:
		return "concept"
	case Facet:
		return "facet"
	case Claim:
		return "claim"
	default:
		return "malformed"
	}
}

// Line is one classified source line
type Line struct {
	Number  int    // 1-based line number
	Raw     string // line text without the trailing newline or carriage return
	Indent  int    // count of leading spaces and tabs
	Content string // text after the indentation, trailing whitespace removed
	Kind    Kind

	// Text is the concept name, facet label or claim payload. Malformed lines
	// whose role is recognisable from their marker carry it too.
	Text string
	// TextColumn is the 1-based byte column at which Text starts in Raw
	TextColumn int

	// Intended is the role a malformed line appears to have (Facet, Claim),
	// or Malformed when nothing can be inferred
	Intended Kind
	// Problem and Reason describe why a line is malformed
	Problem model.Kind
	Reason  string
}

// Lines splits text on newlines and classifies every line
func Lines(text string) []Line {
	text = strings.TrimPrefix(text, "\ufeff")
	raw := strings.Split(text, "\n")
	if len(raw) > 0 && raw[len(raw)-1] == "" {
		raw = raw[:len(raw)-1]
	}

	lines := make([]Line, 0, len(raw))
	for i, r := range raw {
		lines = append(lines, Classify(i+1, r))
	}
	return lines
}

// Classify classifies a single line. The checks run in a fixed order:
// blank, concept, facet, claim, and anything else is malformed.
func Classify(number int, raw string) Line {
	raw = strings.TrimSuffix(raw, "\r")

	indent, hasTab := leadingWhitespace(raw)
	content := strings.TrimRight(raw[indent:], " \t")

	line := Line{
		Number:  number,
		Raw:     raw,
		Indent:  indent,
		Content: content,
	}

	if content == "" {
		line.Kind = Blank
		return line
	}

	intended := intendedRole(indent, content)
	if intended == Facet || intended == Claim {
		line.Text = strings.TrimSpace(content[1:])
		if intended == Claim {
			// claim payloads keep their spacing so extractor columns stay exact
			line.Text = content[1:]
			line.TextColumn = indent + 2
		} else {
			line.TextColumn = indent + 2 + leadingSpaces(content[1:])
		}
	}

	if hasTab {
		return malformed(line, intended, model.KindMalformedIndentation,
			"tab character in indentation; indent with 2 spaces per level")
	}

	switch {
	case indent == ConceptIndent && intended == Concept:
		line.Kind = Concept
		line.Text = content
		line.TextColumn = 1
		return line

	case indent == FacetIndent && intended == Facet:
		line.Kind = Facet
		return line

	case indent == ClaimIndent && intended == Claim:
		line.Kind = Claim
		return line

	case intended == Facet:
		return malformed(line, intended, model.KindMalformedIndentation,
			fmt.Sprintf("expected facet line at indent %d, found indent %d", FacetIndent, indent))

	case intended == Claim:
		return malformed(line, intended, model.KindMalformedIndentation,
			fmt.Sprintf("expected claim line at indent %d, found indent %d", ClaimIndent, indent))

	case indent == FacetIndent:
		return malformed(line, Malformed, model.KindMalformedLine,
			"expected '.' facet marker at indent 2")

	case indent == ClaimIndent:
		return malformed(line, Malformed, model.KindMalformedLine,
			"expected '-' claim marker at indent 4")

	default:
		return malformed(line, Malformed, model.KindMalformedIndentation,
			fmt.Sprintf("unexpected indent %d; concepts start at 0, facets at 2, claims at 4", indent))
	}
}

// intendedRole guesses what a line is meant to be from its first character
func intendedRole(indent int, content string) Kind {
	switch content[0] {
	case '.':
		return Facet
	case '-':
		return Claim
	}
	if indent == ConceptIndent {
		return Concept
	}
	return Malformed
}

func malformed(line Line, intended Kind, problem model.Kind, reason string) Line {
	line.Kind = Malformed
	line.Intended = intended
	line.Problem = problem
	line.Reason = reason
	return line
}

// leadingWhitespace counts leading spaces and tabs
func leadingWhitespace(s string) (int, bool) {
	hasTab := false
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		if s[i] == '\t' {
			hasTab = true
		}
		i++
	}
	return i, hasTab
}

func leadingSpaces(s string) int {
	return len(s) - len(strings.TrimLeft(s, " \t"))
}
