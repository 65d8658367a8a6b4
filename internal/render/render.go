// Package render writes command reports as text, JSON or YAML.
//
// Text is meant for people and may be colored; JSON and YAML are stable
// machine-readable encodings of the same values.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/paws/internal/extract"
)

// Format represents an output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a format string. Empty means text.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("invalid format: %q (must be text, json, or yaml)", s)
	}
}

var (
	extractedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	skippedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
)

// Renderer handles output formatting.
type Renderer struct {
	format Format
	color  bool
	out    io.Writer
}

// New creates a renderer. color only affects text output.
func New(format Format, color bool, out io.Writer) *Renderer {
	return &Renderer{format: format, color: color, out: out}
}

// Render outputs data in the configured format.
func (r *Renderer) Render(data any) error {
	switch r.format {
	case FormatJSON:
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case FormatYAML:
		enc := yaml.NewEncoder(r.out)
		enc.SetIndent(2)
		if err := enc.Encode(data); err != nil {
			return err
		}
		return enc.Close()
	case FormatText, "":
		return r.renderText(data)
	default:
		return fmt.Errorf("unknown format: %s", r.format)
	}
}

func (r *Renderer) renderText(data any) error {
	switch v := data.(type) {
	case *extract.Report:
		return r.textReport(v)
	case fmt.Stringer:
		_, err := fmt.Fprintln(r.out, v.String())
		return err
	default:
		_, err := fmt.Fprintf(r.out, "%v\n", v)
		return err
	}
}

func (r *Renderer) textReport(rep *extract.Report) error {
	fmt.Fprintf(r.out, "Bundle format: %s\n", rep.FormatDescription)
	dir := rep.OutputDir
	if rep.DryRun {
		dir += " (dry run)"
	}
	fmt.Fprintf(r.out, "Output directory: %s\n", dir)
	for _, w := range rep.Warnings {
		fmt.Fprintf(r.out, "Warning: %s\n", w)
	}
	fmt.Fprintln(r.out)

	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	for _, res := range rep.Results {
		line := fmt.Sprintf("%s\t%s", r.status(res.Status), res.Path)
		if res.Message != "" {
			line += "\t" + res.Message
		}
		fmt.Fprintln(tw, line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	s := rep.Summary
	_, err := fmt.Fprintf(r.out, "\nSummary: %d extracted, %d skipped, %d errors\n", s.Extracted, s.Skipped, s.Errors)
	return err
}

func (r *Renderer) status(s extract.Status) string {
	label := strings.ToUpper(string(s))
	if !r.color {
		return label
	}
	switch s {
	case extract.StatusExtracted:
		return extractedStyle.Render(label)
	case extract.StatusSkipped:
		return skippedStyle.Render(label)
	default:
		return errorStyle.Render(label)
	}
}
