package parse

import (
	"bufio"
	"io"
	"strings"

	"github.com/ppiankov/worldview/internal/extract"
	"github.com/ppiankov/worldview/internal/model"
)

// Serialize renders a document in canonical form: two-space indentation,
// claim segments in positional order, modifiers last, and one blank line
// between concepts.
func Serialize(doc *model.Document) string {
	var b strings.Builder
	_ = WriteDocument(&b, doc)
	return b.String()
}

// WriteDocument writes the canonical form of doc to w
func WriteDocument(w io.Writer, doc *model.Document) error {
	bw := bufio.NewWriter(w)
	for i, c := range doc.Concepts {
		if i > 0 {
			_, _ = bw.WriteString("\n")
		}
		_, _ = bw.WriteString(c.Name + "\n")
		for _, f := range c.Facets {
			_, _ = bw.WriteString("  ." + f.Label + "\n")
			for _, claim := range f.Claims {
				_, _ = bw.WriteString("    - " + extract.FormatClaim(claim) + "\n")
			}
		}
	}
	return bw.Flush()
}
