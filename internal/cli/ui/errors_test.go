package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		expected string
	}{
		{
			name: "context and problem",
			opts: ErrorOptions{
				Context: "model not found",
				Problem: "Cannot find model 'country'.",
			},
			expected: "❌ MODEL NOT FOUND\n   Cannot find model 'country'.\n",
		},
		{
			name: "suggestions and help",
			opts: ErrorOptions{
				Context:      "MODEL NOT FOUND",
				Problem:      "Cannot find model 'contry'.",
				Suggestions:  []string{"country", "county"},
				HelpCommands: []string{"See all models: datamap models"},
			},
			expected: "❌ MODEL NOT FOUND\n   Cannot find model 'contry'.\n\n" +
				"   Did you mean: country, county?\n\n" +
				"   → See all models: datamap models\n",
		},
		{
			name: "warning without context",
			opts: ErrorOptions{
				Level:   ErrorLevelWarning,
				Problem: "DNS check disabled",
			},
			expected: "⚠️ DNS check disabled\n",
		},
		{
			name: "consequence",
			opts: ErrorOptions{
				Context:     "INVALID VALUE",
				Problem:     "value: Email format is invalid",
				Consequence: "Rejected by the format check.",
			},
			expected: "❌ INVALID VALUE\n   value: Email format is invalid\n   Rejected by the format check.\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.NoColor = true
			if got := FormatError(opts); got != tt.expected {
				t.Errorf("expected:\n%q\ngot:\n%q", tt.expected, got)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	var buf bytes.Buffer
	WriteError(&buf, ErrorOptions{Problem: "boom"}, true)

	if buf.String() != "❌ boom\n" {
		t.Errorf("expected plain error line, got %q", buf.String())
	}
}

func TestReports(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{"model", ModelNotFound("contry", []string{"country"}), []string{"MODEL NOT FOUND", "'contry'", "Did you mean: country?", "datamap models"}},
		{"reference", ReferenceNotFound("country", "capitol", []string{"capital"}), []string{"REFERENCE NOT FOUND", "has no reference 'capitol'", "Did you mean: capital?"}},
		{"record", RecordNotFound("country", "42"), []string{"RECORD NOT FOUND", "No country record with id '42'."}},
		{"value", InvalidValue("value", "Only a single email can be entered", "multiplicity"), []string{"INVALID VALUE", "Rejected by the multiplicity check."}},
		{"config", ConfigProblem("persistence.dsn is required for driver postgres"), []string{"CONFIGURATION ERROR", "persistence.dsn is required", "cat datamap.yml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.NoColor = true
			result := FormatError(opts)
			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("expected output to contain %q, got:\n%s", expected, result)
				}
			}
		})
	}
}

func TestInfo(t *testing.T) {
	if got := Info("No models declared", true); got != "ℹ️ No models declared\n" {
		t.Errorf("unexpected info %q", got)
	}
}
