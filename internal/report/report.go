package report

import (
	"github.com/dcurrey/dupReport/internal/config"
)

// RowKind selects how a row is rendered.
type RowKind int

const (
	// HeaderRow is one bold string centered over the table.
	HeaderRow RowKind = iota
	// NoteRow is one italic string centered over the table.
	NoteRow
	// DataRow is one value per column.
	DataRow
)

// Cell is one formatted value of a DataRow.
type Cell struct {
	Value  interface{}
	Format Format
}

// Text renders the cell padded to its column width.
func (c Cell) Text() string {
	return c.Format.Apply(c.Value)
}

// Row is one line of the report
type Row struct {
	Kind  RowKind
	Text  string
	Cells []Cell
}

// Report is the ordered list of rows sent to the receiver.
type Report struct {
	Subject string
	Rows    []Row
	// DataRows counts backup rows, excluding headers and notes.
	DataRows int
}

func (r *Report) header(text string) {
	r.Rows = append(r.Rows, Row{Kind: HeaderRow, Text: text})
}

func (r *Report) note(text string) {
	r.Rows = append(r.Rows, Row{Kind: NoteRow, Text: text})
}

func (r *Report) data(cells []Cell) {
	r.Rows = append(r.Rows, Row{Kind: DataRow, Cells: cells})
}

// column describes one report column for a size mode.
type column struct {
	caption string
	format  Format
	numeric bool
}

func (c column) headerCell() Cell {
	f := Format{Width: c.format.Width, Align: c.format.Align, Precision: -1}
	if f.Align == AlignDefault {
		f.Align = AlignLeft
		if c.numeric {
			f.Align = AlignRight
		}
	}
	return Cell{Value: c.caption, Format: f}
}

// columnsFor returns the eleven report columns for a size mode.
func columnsFor(mode config.SizeReduce) []column {
	sizeCaption, deltaCaption := "Size", "+/-"
	sizeSpec, deltaSpec := ">20,", ">+20,"
	switch mode {
	case config.SizeMega:
		sizeCaption, deltaCaption = "Size (MB)", "+/- (MB)"
		sizeSpec, deltaSpec = ">15,.2f", ">+15,.2f"
	case config.SizeGiga:
		sizeCaption, deltaCaption = "Size (GB)", "+/- (GB)"
		sizeSpec, deltaSpec = ">12,.2f", ">+12,.2f"
	}

	return []column{
		{"Date", MustParseFormat("13"), false},
		{"Time", MustParseFormat("11"), false},
		{"Files", MustParseFormat(">12,"), true},
		{"+/-", MustParseFormat(">+12,"), true},
		{sizeCaption, MustParseFormat(sizeSpec), true},
		{deltaCaption, MustParseFormat(deltaSpec), true},
		{"Added", MustParseFormat(">12,"), true},
		{"Deleted", MustParseFormat(">12,"), true},
		{"Modified", MustParseFormat(">12,"), true},
		{"Errors", MustParseFormat(">12,"), true},
		{"Result", MustParseFormat(">13"), false},
	}
}

// reduceSize converts a byte count for the size mode.
func reduceSize(bytes int64, mode config.SizeReduce) interface{} {
	switch mode {
	case config.SizeMega:
		return float64(bytes) / 1e6
	case config.SizeGiga:
		return float64(bytes) / 1e9
	}
	return bytes
}
