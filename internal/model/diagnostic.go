package model

import "fmt"

// Kind is a stable identifier for a class of diagnostic
type Kind string

const (
	KindDuplicateConcept      Kind = "DuplicateConcept"
	KindDuplicateFacet        Kind = "DuplicateFacet"
	KindFacetWithoutConcept   Kind = "FacetWithoutConcept"
	KindClaimWithoutFacet     Kind = "ClaimWithoutFacet"
	KindEmptyConcept          Kind = "EmptyConcept"
	KindEmptyFacet            Kind = "EmptyFacet"
	KindMalformedIndentation  Kind = "MalformedIndentation"
	KindMarkersOutOfOrder     Kind = "MarkersOutOfOrder"
	KindMalformedReference    Kind = "MalformedReference"
	KindUnresolvedReference   Kind = "UnresolvedReference" // warning only
	KindInvalidEncoding       Kind = "InvalidEncoding"
	KindMalformedLine         Kind = "MalformedLine"
	KindEmptyName             Kind = "EmptyName"
	KindEmptyClaim            Kind = "EmptyClaim"
	KindEmptySegment          Kind = "EmptySegment"
	KindMalformedSupersession Kind = "MalformedSupersession"
	KindConflictingModifiers  Kind = "ConflictingModifiers" // warning only
	KindEmptyDocument         Kind = "EmptyDocument"        // warning only
)

// Severity indicates whether a diagnostic invalidates the document
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is a single finding attributed to a source line
type Diagnostic struct {
	Line        int      `json:"line" yaml:"line"`                                     // 1-based; 0 for document-level findings
	Column      int      `json:"column,omitempty" yaml:"column,omitempty"`             // 1-based byte column; 0 when not applicable
	Kind        Kind     `json:"kind" yaml:"kind"`                                     // Stable identifier
	Severity    Severity `json:"severity" yaml:"severity"`                             // error or warning
	Message     string   `json:"message" yaml:"message"`                               // Human-readable description
	RelatedLine int      `json:"related_line,omitempty" yaml:"related_line,omitempty"` // e.g. first definition of a duplicate
}

// String renders the diagnostic as "line N[:col]: message"
func (d Diagnostic) String() string {
	switch {
	case d.Line == 0:
		return d.Message
	case d.Column > 0:
		return fmt.Sprintf("line %d:%d: %s", d.Line, d.Column, d.Message)
	default:
		return fmt.Sprintf("line %d: %s", d.Line, d.Message)
	}
}

// IsError reports whether the diagnostic makes a document invalid
func (d Diagnostic) IsError() bool {
	return d.Severity == SeverityError
}

// Errorf builds an error diagnostic
func Errorf(kind Kind, line, column int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Line:     line,
		Column:   column,
		Kind:     kind,
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Warningf builds a warning diagnostic
func Warningf(kind Kind, line, column int, format string, args ...interface{}) Diagnostic {
	return Diagnostic{
		Line:     line,
		Column:   column,
		Kind:     kind,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
	}
}
