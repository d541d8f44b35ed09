package formatting

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// maxCellWidth caps table cells; JSON and YAML output is never truncated.
const maxCellWidth = 60

func (p *Printer) writeTable(v View) error {
	rows := v.Rows()
	if len(rows) == 0 {
		p.emptyMessage(v)
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(p.options.Writer)
	t.SetStyle(table.StyleRounded)
	if p.options.NoColor {
		t.Style().Color = table.ColorOptions{}
	}
	if title := v.Title(); title != "" && !p.options.Quiet {
		t.SetTitle(title)
	}

	header := make(table.Row, 0, len(v.Headers()))
	for _, h := range v.Headers() {
		header = append(header, p.colorize(text.FgHiCyan, h))
	}
	t.AppendHeader(header)

	for _, r := range rows {
		row := make(table.Row, 0, len(r))
		for _, cell := range r {
			row = append(row, Truncate(cell, maxCellWidth))
		}
		t.AppendRow(row)
	}

	t.Render()
	return nil
}

func (p *Printer) emptyMessage(v View) {
	msg := "No items found"
	if e, ok := v.(interface{ EmptyMessage() string }); ok {
		msg = e.EmptyMessage()
	}
	_, _ = fmt.Fprintf(p.options.Writer, "%s %s\n", p.colorize(text.FgYellow, "📋"), p.colorize(text.FgYellow, msg))
}

func (p *Printer) colorize(c text.Color, s string) string {
	if p.options.NoColor {
		return s
	}
	return c.Sprint(s)
}
