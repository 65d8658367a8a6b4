package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/fakeyudi/paws/internal/extract"
)

func sampleReport() *extract.Report {
	results := []extract.Result{
		{Path: "a.txt", Status: extract.StatusExtracted},
		{Path: "b.txt", Status: extract.StatusSkipped, Message: "exists, not overwritten"},
		{Path: "c.bin", Status: extract.StatusError, Message: "base64 decode: illegal data"},
	}
	return &extract.Report{
		OutputDir:         "/tmp/out",
		FormatDescription: "Cats Bundle (Original Source) - Format: Raw UTF-8",
		Results:           results,
		Summary:           extract.Summarize(results),
		Warnings:          []string{"something odd"},
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatText, false},
		{"TEXT", FormatText, false},
		{"json", FormatJSON, false},
		{"yml", FormatYAML, false},
		{"xml", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestRenderer_TextReport(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatText, false, &buf).Render(sampleReport()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	got := buf.String()
	for _, want := range []string{
		"Bundle format: Cats Bundle (Original Source) - Format: Raw UTF-8",
		"Output directory: /tmp/out\n",
		"Warning: something odd",
		"EXTRACTED",
		"exists, not overwritten",
		"Summary: 1 extracted, 1 skipped, 1 errors",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("text output missing %q:\n%s", want, got)
		}
	}
}

func TestRenderer_JSONReport(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatJSON, false, &buf).Render(sampleReport()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var decoded struct {
		Format  string `json:"format"`
		Summary struct {
			Errors int `json:"errors"`
		} `json:"summary"`
		Results []map[string]string `json:"results"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Summary.Errors != 1 || len(decoded.Results) != 3 || decoded.Results[2]["status"] != "error" {
		t.Errorf("unexpected decoded report: %+v", decoded)
	}
}

func TestRenderer_YAMLReport(t *testing.T) {
	var buf bytes.Buffer
	if err := New(FormatYAML, false, &buf).Render(sampleReport()); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	var decoded map[string]any
	if err := yaml.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid YAML: %v\n%s", err, buf.String())
	}
	if decoded["output_dir"] != "/tmp/out" {
		t.Errorf("output_dir = %v", decoded["output_dir"])
	}
	if !strings.Contains(buf.String(), "  extracted: 1") {
		t.Errorf("expected two-space indented summary:\n%s", buf.String())
	}
}
