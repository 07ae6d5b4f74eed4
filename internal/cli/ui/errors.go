package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

type levelStyle struct {
	symbol string
	attrs  []color.Attribute
}

var levelStyles = map[ErrorLevel]levelStyle{
	ErrorLevelError:   {symbol: "❌", attrs: []color.Attribute{color.FgRed}},
	ErrorLevelWarning: {symbol: "⚠️", attrs: []color.Attribute{color.FgYellow}},
	ErrorLevelInfo:    {symbol: "ℹ️", attrs: []color.Attribute{color.FgCyan}},
}

// ErrorOptions describes one user-facing problem report
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Consequence  string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError renders a problem report.
//
// Example output:
//
//	❌ MODEL NOT FOUND
//	   Cannot find model 'contry'.
//
//	   Did you mean: country?
//
//	   → See all models: datamap models
func FormatError(opts ErrorOptions) string {
	style := levelStyles[opts.Level]
	header := color.New(append([]color.Attribute{color.Bold}, style.attrs...)...)
	body := color.New(style.attrs...)
	hint := color.New(color.FgYellow)
	help := color.New(color.FgCyan)
	if opts.NoColor {
		for _, c := range []*color.Color{header, body, hint, help} {
			c.DisableColor()
		}
	}

	var b strings.Builder
	if opts.Context == "" {
		header.Fprintf(&b, "%s %s\n", style.symbol, opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", style.symbol, strings.ToUpper(opts.Context))
		body.Fprintf(&b, "   %s\n", opts.Problem)
	}

	if opts.Consequence != "" {
		body.Fprintf(&b, "   %s\n", opts.Consequence)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		hint.Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		for _, cmd := range opts.HelpCommands {
			help.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted report; noColor overrides opts.NoColor when set
func WriteError(w io.Writer, opts ErrorOptions, noColor bool) {
	opts.NoColor = opts.NoColor || noColor
	fmt.Fprint(w, FormatError(opts))
}

// ModelNotFound reports a model name missing from the registry
func ModelNotFound(modelName string, suggestions []string) ErrorOptions {
	return ErrorOptions{
		Context:     "MODEL NOT FOUND",
		Problem:     fmt.Sprintf("Cannot find model '%s'.", modelName),
		Suggestions: suggestions,
		HelpCommands: []string{
			"See all models: datamap models",
		},
	}
}

// ReferenceNotFound reports a reference name a model does not declare
func ReferenceNotFound(modelName, ref string, suggestions []string) ErrorOptions {
	return ErrorOptions{
		Context:     "REFERENCE NOT FOUND",
		Problem:     fmt.Sprintf("Model '%s' has no reference '%s'.", modelName, ref),
		Suggestions: suggestions,
		HelpCommands: []string{
			"See references: datamap models",
		},
	}
}

// RecordNotFound reports an id with no stored record
func RecordNotFound(modelName, id string) ErrorOptions {
	return ErrorOptions{
		Context: "RECORD NOT FOUND",
		Problem: fmt.Sprintf("No %s record with id '%s'.", modelName, id),
		HelpCommands: []string{
			"Check persistence.driver in datamap.yml",
		},
	}
}

// InvalidValue reports a value rejected by normalization
func InvalidValue(fieldName, message, kind string) ErrorOptions {
	return ErrorOptions{
		Context:     "INVALID VALUE",
		Problem:     fmt.Sprintf("%s: %s", fieldName, message),
		Consequence: fmt.Sprintf("Rejected by the %s check.", kind),
	}
}

// ConfigProblem reports a configuration or model definition failure
func ConfigProblem(message string) ErrorOptions {
	return ErrorOptions{
		Context: "CONFIGURATION ERROR",
		Problem: message,
		HelpCommands: []string{
			"View config: cat datamap.yml",
			"Get help: datamap --help",
		},
	}
}

// Info renders a one-line informational message
func Info(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Level:   ErrorLevelInfo,
		Problem: message,
		NoColor: noColor,
	})
}
