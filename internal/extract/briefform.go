package extract

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ppiankov/worldview/internal/model"
)

// OperatorMatch is one brief-form operator found in claim text
type OperatorMatch struct {
	Operator model.Operator
	Start    int // byte offset of the operator
	End      int // byte offset just past the operator
}

// FindOperators scans claim text for brief-form operators, left to right.
// Two-character operators win over their one-character prefixes, and "vs"
// only counts as a whole word. Operators stay part of the text; this is
// recognition only.
func FindOperators(text string) []OperatorMatch {
	var matches []OperatorMatch

	for i := 0; i < len(text); {
		op, width := operatorAt(text, i)
		if width == 0 {
			i++
			continue
		}
		matches = append(matches, OperatorMatch{Operator: op, Start: i, End: i + width})
		i += width
	}
	return matches
}

func operatorAt(text string, i int) (model.Operator, int) {
	for _, op := range model.Operators {
		s := string(op)
		if !strings.HasPrefix(text[i:], s) {
			continue
		}
		if op == model.OperatorContrast && !isWordBoundary(text, i, i+len(s)) {
			continue
		}
		return op, len(s)
	}
	return "", 0
}

func isWordBoundary(text string, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRuneInString(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRuneInString(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_'
}

// ReadBriefForm returns a subject/operator/object reading when the text holds
// exactly one operator with non-empty text on both sides. Anything else is
// left as free text and yields nil.
func ReadBriefForm(text string, matches []OperatorMatch) *model.BriefForm {
	if len(matches) != 1 {
		return nil
	}
	m := matches[0]
	subject := strings.TrimSpace(text[:m.Start])
	object := strings.TrimSpace(text[m.End:])
	if subject == "" || object == "" {
		return nil
	}
	return &model.BriefForm{
		Subject:  subject,
		Operator: m.Operator,
		Object:   object,
	}
}
