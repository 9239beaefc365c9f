package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/worldview/internal/model"
	"github.com/ppiankov/worldview/internal/stats"
)

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Renderer writes reports in text, JSON or YAML
type Renderer struct {
	color   bool
	valid   lipgloss.Style
	invalid lipgloss.Style
	warning lipgloss.Style
	muted   lipgloss.Style
	heading lipgloss.Style
}

// NewRenderer creates a renderer; color enables terminal styling of text output
func NewRenderer(color bool) *Renderer {
	return &Renderer{
		color:   color,
		valid:   lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")).Bold(true),
		invalid: lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")).Bold(true),
		warning: lipgloss.NewStyle().Foreground(lipgloss.Color("#F9E2AF")),
		muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
		heading: lipgloss.NewStyle().Foreground(lipgloss.Color("#7C3AED")).Bold(true),
	}
}

func (r *Renderer) paint(style lipgloss.Style, s string) string {
	if !r.color {
		return s
	}
	return style.Render(s)
}

// ValidFormat reports whether format is supported
func ValidFormat(format string) bool {
	switch format {
	case FormatText, FormatJSON, FormatYAML:
		return true
	}
	return false
}

// Write renders v in a machine format, or the report as text
func (r *Renderer) Write(w io.Writer, format string, v any, report *model.Report) error {
	switch format {
	case FormatJSON:
		return r.WriteJSON(w, v)
	case FormatYAML:
		return r.WriteYAML(w, v)
	case FormatText, "":
		return r.RenderText(w, report)
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// WriteJSON writes v as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	return nil
}

// WriteYAML writes v as YAML
func (r *Renderer) WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal YAML: %w", err)
	}
	return enc.Close()
}

// RenderJSON writes v as JSON to path, creating parent directories
func (r *Renderer) RenderJSON(v any, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return nil
}

// RenderText writes the human-readable verdict:
//
//	Valid Worldview document
//	Valid Worldview document with N warning(s):
//	Invalid Worldview document (N error(s)):
//	Additionally, N warning(s):
func (r *Renderer) RenderText(w io.Writer, report *model.Report) error {
	var b strings.Builder

	if report.Source != "" && report.Source != "-" {
		b.WriteString(r.paint(r.muted, report.Source+": "))
	}

	switch {
	case report.Valid && !report.HasWarnings():
		b.WriteString(r.paint(r.valid, "Valid Worldview document") + "\n")

	case report.Valid:
		b.WriteString(r.paint(r.valid, fmt.Sprintf("Valid Worldview document with %d warning(s):", len(report.Warnings))) + "\n")
		r.writeDiagnostics(&b, report.Warnings, r.warning)

	default:
		b.WriteString(r.paint(r.invalid, fmt.Sprintf("Invalid Worldview document (%d error(s)):", len(report.Errors))) + "\n")
		r.writeDiagnostics(&b, report.Errors, r.invalid)
		if report.HasWarnings() {
			b.WriteString(r.paint(r.warning, fmt.Sprintf("Additionally, %d warning(s):", len(report.Warnings))) + "\n")
			r.writeDiagnostics(&b, report.Warnings, r.warning)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) writeDiagnostics(b *strings.Builder, diags []model.Diagnostic, style lipgloss.Style) {
	for _, d := range diags {
		fmt.Fprintf(b, "  %s %s\n", r.paint(style, d.String()), r.paint(r.muted, "["+string(d.Kind)+"]"))
	}
}

// RenderStats writes document statistics as an aligned table
func (r *Renderer) RenderStats(w io.Writer, source string, s *model.Stats) error {
	var b strings.Builder

	title := "Document statistics"
	if source != "" && source != "-" {
		title += ": " + source
	}
	b.WriteString(r.paint(r.heading, title) + "\n")

	rows := []stats.Count{
		{Label: "concepts", N: s.Concepts},
		{Label: "facets", N: s.Facets},
		{Label: "claims", N: s.Claims},
		{Label: "conditions", N: s.Conditions},
		{Label: "sources", N: s.Sources},
		{Label: "references", N: s.References},
		{Label: "supersessions", N: s.Supersessions},
		{Label: "brief forms", N: s.BriefForms},
	}
	for _, row := range rows {
		fmt.Fprintf(&b, "  %-16s %d\n", row.Label, row.N)
	}
	fmt.Fprintf(&b, "  %-16s %.2f\n", "claims/facet", stats.ClaimsPerFacet(s))

	if mods := stats.ModifierCounts(s); len(mods) > 0 {
		b.WriteString(r.paint(r.heading, "Modifiers") + "\n")
		for _, m := range mods {
			fmt.Fprintf(&b, "  %-16s %d\n", m.Label, m.N)
		}
	}
	if ops := stats.OperatorCounts(s); len(ops) > 0 {
		b.WriteString(r.paint(r.heading, "Operators") + "\n")
		for _, op := range ops {
			fmt.Fprintf(&b, "  %-16s %d\n", op.Label, op.N)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
