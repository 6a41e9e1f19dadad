package report

import (
	"fmt"
	"html"
	"strings"
)

// width is the widest data row, used to center headers and notes.
func (r *Report) width() int {
	widest := 0
	for _, row := range r.Rows {
		if row.Kind != DataRow {
			continue
		}
		w := 0
		for _, c := range row.Cells {
			w += c.Format.Width
		}
		if w > widest {
			widest = w
		}
	}
	return widest
}

func (r *Report) columns() int {
	cols := 1
	for _, row := range r.Rows {
		if row.Kind == DataRow && len(row.Cells) > cols {
			cols = len(row.Cells)
		}
	}
	return cols
}

// Text renders the report as whitespace-aligned plain text.
func (r *Report) Text() string {
	var b strings.Builder
	width := r.width()

	for _, row := range r.Rows {
		switch row.Kind {
		case HeaderRow, NoteRow:
			for _, line := range strings.Split(row.Text, "\n") {
				b.WriteString(strings.TrimRight(pad(line, width, AlignCenter), " "))
				b.WriteByte('\n')
			}
		case DataRow:
			var line strings.Builder
			for _, c := range row.Cells {
				line.WriteString(c.Text())
			}
			b.WriteString(strings.TrimRight(line.String(), " "))
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// HTML renders the report as a single table.
func (r *Report) HTML(border, padding int) string {
	var b strings.Builder
	cols := r.columns()

	fmt.Fprintf(&b, "<html><head></head><body><table border=\"%d\" cellpadding=\"%d\">\n", border, padding)
	for _, row := range r.Rows {
		b.WriteString("<tr>")
		switch row.Kind {
		case HeaderRow:
			fmt.Fprintf(&b, `<td align="center" colspan="%d"><b>%s</b></td>`, cols, htmlText(row.Text))
		case NoteRow:
			fmt.Fprintf(&b, `<td align="center" colspan="%d"><i>%s</i></td>`, cols, htmlText(row.Text))
		case DataRow:
			for _, c := range row.Cells {
				fmt.Fprintf(&b, `<td align="%s">%s</td>`, alignName(c.Format.EffectiveAlign(c.Value)),
					html.EscapeString(strings.TrimSpace(c.Text())))
			}
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</table></body></html>\n")
	return b.String()
}

func htmlText(s string) string {
	return strings.ReplaceAll(html.EscapeString(s), "\n", "<br>")
}

func alignName(a Alignment) string {
	switch a {
	case AlignRight:
		return "right"
	case AlignCenter:
		return "center"
	}
	return "left"
}
