// Package formatting renders command results as tables, JSON or YAML.
//
// Every command builds a View describing its result once; the Printer picks
// the representation from the --output flag. Tables are drawn with
// go-pretty, while JSON and YAML encode the view's underlying value so
// scripts see the same fields the API returned.
package formatting

import (
	"fmt"
	"io"
	"os"
	"strings"
)

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// ParseFormat accepts table, json or yaml (yml is an alias).
func ParseFormat(s string) (OutputFormat, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unsupported output format %q (valid: table, json, yaml)", s)
}

// Options configures the printer.
type Options struct {
	Format OutputFormat
	// Quiet drops decorations: compact JSON, no table titles or footers.
	Quiet bool
	// NoColor disables ANSI colors in tables.
	NoColor bool
	Writer  io.Writer
}

// View is a result that can be shown as a table or encoded.
type View interface {
	// Title is printed above the table; empty for none.
	Title() string
	Headers() []string
	Rows() [][]string
	// Value is what JSON and YAML output encode.
	Value() any
}

// Printer writes views in the configured format.
type Printer struct {
	options Options
}

// NewPrinter returns a printer; a nil Writer means stdout.
func NewPrinter(options Options) *Printer {
	if options.Writer == nil {
		options.Writer = os.Stdout
	}
	if options.Format == "" {
		options.Format = FormatTable
	}
	return &Printer{options: options}
}

// Options returns the printer configuration.
func (p *Printer) Options() Options {
	return p.options
}

// Writer returns the destination.
func (p *Printer) Writer() io.Writer {
	return p.options.Writer
}

// Structured reports whether output is machine readable.
func (p *Printer) Structured() bool {
	return p.options.Format == FormatJSON || p.options.Format == FormatYAML
}

// Print renders v.
func (p *Printer) Print(v View) error {
	switch p.options.Format {
	case FormatJSON:
		return p.writeJSON(v.Value())
	case FormatYAML:
		return p.writeYAML(v.Value())
	default:
		return p.writeTable(v)
	}
}

// PrintValue encodes an arbitrary value; tables fall back to indented JSON.
func (p *Printer) PrintValue(v any) error {
	switch p.options.Format {
	case FormatYAML:
		return p.writeYAML(v)
	case FormatJSON:
		return p.writeJSON(v)
	default:
		_, err := fmt.Fprintln(p.options.Writer, PrettyJSON(v))
		return err
	}
}

// Message prints a human line. It is suppressed for structured output so
// stdout stays parseable.
func (p *Printer) Message(format string, args ...any) {
	if p.Structured() {
		return
	}
	_, _ = fmt.Fprintf(p.options.Writer, format+"\n", args...)
}
