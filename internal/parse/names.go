package parse

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/ppiankov/worldview/internal/model"
)

// Supported name normalization forms
const (
	NormalizeNone = "none"
	NormalizeNFC  = "nfc"
)

// NamePolicy decides when two concept names or facet labels are the same.
// The zero value compares exact bytes after trimming.
type NamePolicy struct {
	CaseInsensitive bool
	Normalize       string
}

// NamePolicyFromConfig converts the names config section
func NamePolicyFromConfig(cfg model.NamesConfig) NamePolicy {
	return NamePolicy{
		CaseInsensitive: !cfg.CaseSensitive,
		Normalize:       strings.ToLower(cfg.Normalize),
	}
}

// Key returns the comparison key for a name
func (p NamePolicy) Key(name string) string {
	key := strings.TrimSpace(name)
	if p.Normalize == NormalizeNFC {
		key = norm.NFC.String(key)
	}
	if p.CaseInsensitive {
		// Caser values carry state and are not safe for concurrent use
		key = cases.Fold().String(key)
	}
	return key
}

// String describes the policy for option fingerprints
func (p NamePolicy) String() string {
	form := p.Normalize
	if form == "" {
		form = NormalizeNone
	}
	if p.CaseInsensitive {
		return "fold+" + form
	}
	return "exact+" + form
}
