package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/parse"
)

const doc = `Trust
  .formation
    - slow | uncertain situations | early @experience
    - asymmetric vs formation &Trust.erosion ?
  .erosion
    - fast ! [<= gradual]
Power
  .effects
    - power => corruption | unchecked !*
    - wealth => power
`

func TestCalculate_Counts(t *testing.T) {
	res := parse.Parse(doc, parse.DefaultOptions())
	require.Empty(t, res.Diagnostics)

	s := Calculate(res.Document)

	tests := []struct {
		name string
		got  int
		want int
	}{
		{"concepts", s.Concepts, 2},
		{"facets", s.Facets, 3},
		{"claims", s.Claims, 5},
		{"conditions", s.Conditions, 3},
		{"sources", s.Sources, 1},
		{"references", s.References, 1},
		{"supersessions", s.Supersessions, 1},
		{"brief forms", s.BriefForms, 3},
		{"emphatic", s.Modifiers[model.ModifierEmphatic], 2},
		{"uncertain", s.Modifiers[model.ModifierUncertain], 1},
		{"notable", s.Modifiers[model.ModifierNotable], 1},
		{"causes", s.Operators[model.OperatorCauses], 2},
		{"contrast", s.Operators[model.OperatorContrast], 1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.got, tt.name)
	}
}

func TestCalculate_NilAndEmpty(t *testing.T) {
	for _, d := range []*model.Document{nil, {}} {
		s := Calculate(d)
		assert.Zero(t, s.Concepts)
		assert.Zero(t, s.Claims)
		assert.NotNil(t, s.Modifiers, "modifier tally should be initialized")
		assert.NotNil(t, s.Operators, "operator tally should be initialized")
	}
}

func TestModifierCounts_CanonicalOrder(t *testing.T) {
	s := &model.Stats{Modifiers: map[model.Modifier]int{
		model.ModifierNotable:    4,
		model.ModifierIncreasing: 1,
	}}

	counts := ModifierCounts(s)
	require.Len(t, counts, 2)
	assert.Equal(t, "^ increasing", counts[0].Label)
	assert.Equal(t, "* notable", counts[1].Label)
}

func TestOperatorCounts_MostFrequentFirst(t *testing.T) {
	s := &model.Stats{Operators: map[model.Operator]int{
		model.OperatorCauses:  1,
		model.OperatorTension: 3,
	}}

	counts := OperatorCounts(s)
	require.Len(t, counts, 2)
	assert.Equal(t, ">< tension", counts[0].Label)
	assert.Equal(t, 3, counts[0].N)
}

func TestClaimsPerFacet(t *testing.T) {
	assert.Zero(t, ClaimsPerFacet(&model.Stats{}))
	assert.Equal(t, 2.5, ClaimsPerFacet(&model.Stats{Facets: 2, Claims: 5}))
}
