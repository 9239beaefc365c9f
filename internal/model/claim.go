package model

// Claim is an assertion, the atomic belief unit of a Facet
type Claim struct {
	Text       string      `json:"text" yaml:"text"`                                   // Claim text with structural markers removed
	Conditions []Condition `json:"conditions,omitempty" yaml:"conditions,omitempty"`   // Circumstances introduced by '|'
	Sources    []Source    `json:"sources,omitempty" yaml:"sources,omitempty"`         // Grounding introduced by '@'
	References []Reference `json:"references,omitempty" yaml:"references,omitempty"`   // Links introduced by '&'
	Modifiers  []Modifier  `json:"modifiers,omitempty" yaml:"modifiers,omitempty"`     // Trailing suffix markers, enum order
	Operator   Operator    `json:"operator,omitempty" yaml:"operator,omitempty"`       // First brief-form operator in Text
	BriefForm  *BriefForm  `json:"brief_form,omitempty" yaml:"brief_form,omitempty"`   // Optional structured reading of Text
	Supersedes string      `json:"supersedes,omitempty" yaml:"supersedes,omitempty"`   // Prior belief from a [<= ...] span
	Line       int         `json:"line" yaml:"line"`                                   // 1-based source line
}

// HasModifier reports whether the claim carries m
func (c *Claim) HasModifier(m Modifier) bool {
	for _, have := range c.Modifiers {
		if have == m {
			return true
		}
	}
	return false
}

// Modifier is a trend or confidence suffix attached to a claim
type Modifier string

const (
	ModifierIncreasing Modifier = "increasing" // ^
	ModifierDecreasing Modifier = "decreasing" // v
	ModifierEmphatic   Modifier = "emphatic"   // !
	ModifierUncertain  Modifier = "uncertain"  // ?
	ModifierNotable    Modifier = "notable"    // *
)

// Modifiers lists every recognized modifier in canonical order
var Modifiers = []Modifier{
	ModifierIncreasing,
	ModifierDecreasing,
	ModifierEmphatic,
	ModifierUncertain,
	ModifierNotable,
}

// Symbol returns the notation symbol for the modifier
func (m Modifier) Symbol() string {
	switch m {
	case ModifierIncreasing:
		return "^"
	case ModifierDecreasing:
		return "v"
	case ModifierEmphatic:
		return "!"
	case ModifierUncertain:
		return "?"
	case ModifierNotable:
		return "*"
	default:
		return ""
	}
}

// ModifierForSymbol maps a suffix character to its modifier
func ModifierForSymbol(r byte) (Modifier, bool) {
	switch r {
	case '^':
		return ModifierIncreasing, true
	case 'v':
		return ModifierDecreasing, true
	case '!':
		return ModifierEmphatic, true
	case '?':
		return ModifierUncertain, true
	case '*':
		return ModifierNotable, true
	}
	return "", false
}

// Operator is a brief-form relational operator embedded in claim text
type Operator string

const (
	OperatorCauses     Operator = "=>" // causes, leads to
	OperatorCausedBy   Operator = "<=" // caused by, results from
	OperatorMutual     Operator = "<>" // mutual, bidirectional
	OperatorTension    Operator = "><" // tension, conflicts with
	OperatorSimilar    Operator = "~"  // similar to, resembles
	OperatorEquivalent Operator = "="  // equivalent to, means
	OperatorContrast   Operator = "vs" // in contrast to
	OperatorRegardless Operator = "//" // regardless of
)

// Operators lists every recognized operator, two-character forms first
var Operators = []Operator{
	OperatorCauses,
	OperatorCausedBy,
	OperatorMutual,
	OperatorTension,
	OperatorRegardless,
	OperatorContrast,
	OperatorSimilar,
	OperatorEquivalent,
}

// Meaning returns a short description of the operator
func (o Operator) Meaning() string {
	switch o {
	case OperatorCauses:
		return "causes"
	case OperatorCausedBy:
		return "caused by"
	case OperatorMutual:
		return "mutual"
	case OperatorTension:
		return "tension"
	case OperatorSimilar:
		return "similar"
	case OperatorEquivalent:
		return "equivalent"
	case OperatorContrast:
		return "contrast"
	case OperatorRegardless:
		return "regardless"
	default:
		return ""
	}
}

// BriefForm is a best-effort "subject OP object" reading of claim text.
// It is an annotation only and never affects validity.
type BriefForm struct {
	Subject  string   `json:"subject" yaml:"subject"`
	Operator Operator `json:"operator" yaml:"operator"`
	Object   string   `json:"object" yaml:"object"`
}
