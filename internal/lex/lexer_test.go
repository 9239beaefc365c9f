package lex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/worldview/internal/model"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		kind   Kind
		text   string
		column int
	}{
		{"concept", "Trust", Concept, "Trust", 1},
		{"concept with spaces", "Free will", Concept, "Free will", 1},
		{"facet", "  .formation", Facet, "formation", 4},
		{"facet with padded label", "  .  formation", Facet, "formation", 6},
		{"claim", "    - slow", Claim, " slow", 6},
		{"blank", "", Blank, "", 0},
		{"whitespace only", "    ", Blank, "", 0},
		{"carriage return", "Trust\r", Concept, "Trust", 1},
		{"trailing whitespace", "Trust   ", Concept, "Trust", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := Classify(3, tt.raw)
			assert.Equal(t, tt.kind, line.Kind)
			assert.Equal(t, tt.text, line.Text)
			assert.Equal(t, tt.column, line.TextColumn)
			assert.Equal(t, 3, line.Number)
		})
	}
}

func TestClassify_Malformed(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		problem  model.Kind
		intended Kind
	}{
		{"facet at column 0", ".formation", model.KindMalformedIndentation, Facet},
		{"facet at claim indent", "    .formation", model.KindMalformedIndentation, Facet},
		{"claim at facet indent", "  - slow", model.KindMalformedIndentation, Claim},
		{"claim at column 0", "- slow", model.KindMalformedIndentation, Claim},
		{"tab indentation", "\t.formation", model.KindMalformedIndentation, Facet},
		{"missing facet marker", "  formation", model.KindMalformedLine, Malformed},
		{"missing claim marker", "    slow", model.KindMalformedLine, Malformed},
		{"odd indent", "   x", model.KindMalformedIndentation, Malformed},
		{"deep indent", "      - x", model.KindMalformedIndentation, Claim},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := Classify(1, tt.raw)
			assert.Equal(t, Malformed, line.Kind)
			assert.Equal(t, tt.problem, line.Problem)
			assert.Equal(t, tt.intended, line.Intended)
			assert.NotEmpty(t, line.Reason)
		})
	}
}

func TestClassify_MalformedKeepsIntendedText(t *testing.T) {
	line := Classify(2, ".formation")
	require.Equal(t, Malformed, line.Kind)
	assert.Equal(t, "formation", line.Text)

	line = Classify(2, "  - slow")
	require.Equal(t, Malformed, line.Kind)
	assert.Equal(t, " slow", line.Text)
	assert.Equal(t, 4, line.TextColumn)
}

func TestLines(t *testing.T) {
	lines := Lines("\ufeffTrust\r\n  .formation\r\n\r\n    - slow\n")
	require.Len(t, lines, 4)

	assert.Equal(t, Concept, lines[0].Kind)
	assert.Equal(t, "Trust", lines[0].Text)
	assert.Equal(t, Facet, lines[1].Kind)
	assert.Equal(t, Blank, lines[2].Kind)
	assert.Equal(t, Claim, lines[3].Kind)
	assert.Equal(t, 4, lines[3].Number)
}

func TestLines_NoTrailingNewline(t *testing.T) {
	lines := Lines("A\n  .b")
	require.Len(t, lines, 2)
	assert.Equal(t, "b", lines[1].Text)
}

func TestLines_Empty(t *testing.T) {
	assert.Empty(t, Lines(""))
}
