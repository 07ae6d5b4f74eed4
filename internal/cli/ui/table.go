package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under bold headers with a rule between them
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
	indent  string
}

// TableOptions configures table behavior
type TableOptions struct {
	NoColor bool
	// Indent is written before every line
	Indent string
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, opts *TableOptions) *Table {
	t := &Table{writer: w, headers: headers}
	if opts != nil {
		t.noColor = opts.NoColor
		t.indent = opts.Indent
	}
	return t
}

// AddRow adds a row to the table. Missing cells render empty.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render renders the table to the writer
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}

	bold := color.New(color.Bold, color.FgCyan)
	gray := color.New(color.FgHiBlack)
	if t.noColor {
		bold.DisableColor()
		gray.DisableColor()
	}

	fmt.Fprint(t.writer, t.indent)
	for i, header := range t.headers {
		bold.Fprint(t.writer, t.cell(header, i, widths))
	}
	fmt.Fprintln(t.writer)

	fmt.Fprint(t.writer, t.indent)
	for i, width := range widths {
		gray.Fprint(t.writer, t.cell(strings.Repeat("─", width), i, widths))
	}
	fmt.Fprintln(t.writer)

	for _, row := range t.rows {
		fmt.Fprint(t.writer, t.indent)
		for i := range widths {
			var cell string
			if i < len(row) {
				cell = row[i]
			}
			fmt.Fprint(t.writer, t.cell(cell, i, widths))
		}
		fmt.Fprintln(t.writer)
	}
}

// cell pads every column but the last, which is trimmed of trailing spaces
func (t *Table) cell(s string, i int, widths []int) string {
	if i == len(widths)-1 {
		return s
	}
	return padRight(s, widths[i]) + "  "
}

// padRight pads a string with spaces on the right to reach the target width
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

// KeyValueTable renders aligned "key: value" lines
type KeyValueTable struct {
	writer  io.Writer
	rows    []kvRow
	noColor bool
}

type kvRow struct {
	key   string
	value string
}

// NewKeyValueTable creates a new key-value table
func NewKeyValueTable(w io.Writer, noColor bool) *KeyValueTable {
	return &KeyValueTable{writer: w, noColor: noColor}
}

// AddRow adds a key-value pair to the table
func (t *KeyValueTable) AddRow(key, value string) {
	t.rows = append(t.rows, kvRow{key: key, value: value})
}

// Render renders the key-value table
func (t *KeyValueTable) Render() {
	if len(t.rows) == 0 {
		return
	}

	maxKeyWidth := 0
	for _, row := range t.rows {
		maxKeyWidth = max(maxKeyWidth, utf8.RuneCountInString(row.key))
	}

	cyan := color.New(color.FgCyan)
	if t.noColor {
		cyan.DisableColor()
	}
	for _, row := range t.rows {
		cyan.Fprint(t.writer, padRight(row.key+":", maxKeyWidth+1))
		fmt.Fprintf(t.writer, " %s\n", row.value)
	}
}

// Divider renders a horizontal rule; width 0 means 80
func Divider(w io.Writer, width int, noColor bool) {
	if width == 0 {
		width = 80
	}

	gray := color.New(color.FgHiBlack)
	if noColor {
		gray.DisableColor()
	}
	gray.Fprintln(w, strings.Repeat("─", width))
}

// Header renders a bold title underlined by a divider of the same width
func Header(w io.Writer, title string, noColor bool) {
	bold := color.New(color.Bold, color.FgCyan)
	if noColor {
		bold.DisableColor()
	}
	bold.Fprintln(w, title)
	Divider(w, utf8.RuneCountInString(title), noColor)
}
