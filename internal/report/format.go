package report

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Alignment of a value inside its column.
type Alignment byte

const (
	AlignDefault Alignment = 0
	AlignLeft    Alignment = '<'
	AlignRight   Alignment = '>'
	AlignCenter  Alignment = '^'
)

// Format is a parsed column directive of the form
// [align][sign][width][,][.precision], e.g. ">+15,.2f".
type Format struct {
	Align     Alignment
	Sign      bool // always print the sign
	Width     int
	Grouping  bool // thousands separators
	Precision int  // -1 when unset
}

var printer = message.NewPrinter(language.English)

// ParseFormat parses a column directive. Any trailing type letter is ignored.
func ParseFormat(spec string) (Format, error) {
	f := Format{Precision: -1}
	s := spec

	if s != "" {
		switch Alignment(s[0]) {
		case AlignLeft, AlignRight, AlignCenter:
			f.Align = Alignment(s[0])
			s = s[1:]
		}
	}
	if strings.HasPrefix(s, "+") {
		f.Sign = true
		s = s[1:]
	}

	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i > 0 {
		f.Width, _ = strconv.Atoi(s[:i])
		s = s[i:]
	}

	if strings.HasPrefix(s, ",") {
		f.Grouping = true
		s = s[1:]
	}

	if strings.HasPrefix(s, ".") {
		s = s[1:]
		j := 0
		for j < len(s) && s[j] >= '0' && s[j] <= '9' {
			j++
		}
		if j == 0 {
			return Format{}, fmt.Errorf("format %q: missing precision", spec)
		}
		f.Precision, _ = strconv.Atoi(s[:j])
		s = s[j:]
	}

	switch s {
	case "", "d", "f", "s":
	default:
		return Format{}, fmt.Errorf("format %q: unexpected %q", spec, s)
	}
	return f, nil
}

// MustParseFormat is ParseFormat for package-level tables.
func MustParseFormat(spec string) Format {
	f, err := ParseFormat(spec)
	if err != nil {
		panic(err)
	}
	return f
}

// Apply renders v, which must be a string, an integer or a float64.
func (f Format) Apply(v interface{}) string {
	var s string
	numeric := true

	switch val := v.(type) {
	case string:
		s = val
		numeric = false
	case int:
		s = f.formatInt(int64(val))
	case int64:
		s = f.formatInt(val)
	case float64:
		s = f.formatFloat(val)
	default:
		s = fmt.Sprint(val)
		numeric = false
	}

	align := f.Align
	if align == AlignDefault {
		align = AlignLeft
		if numeric {
			align = AlignRight
		}
	}
	return pad(s, f.Width, align)
}

// EffectiveAlign resolves the default alignment for a value.
func (f Format) EffectiveAlign(v interface{}) Alignment {
	if f.Align != AlignDefault {
		return f.Align
	}
	if _, ok := v.(string); ok {
		return AlignLeft
	}
	return AlignRight
}

func (f Format) formatInt(n int64) string {
	neg := n < 0
	abs := uint64(n)
	if neg {
		abs = uint64(-n)
	}

	digits := strconv.FormatUint(abs, 10)
	if f.Grouping {
		digits = printer.Sprintf("%d", abs)
	}
	return f.signed(digits, neg)
}

func (f Format) formatFloat(x float64) string {
	prec := f.Precision
	if prec < 0 {
		prec = 6
	}
	neg := math.Signbit(x) && x != 0
	digits := strconv.FormatFloat(math.Abs(x), 'f', prec, 64)

	if f.Grouping {
		whole, frac, hasFrac := strings.Cut(digits, ".")
		if n, err := strconv.ParseUint(whole, 10, 64); err == nil {
			whole = printer.Sprintf("%d", n)
		}
		digits = whole
		if hasFrac {
			digits += "." + frac
		}
	}
	return f.signed(digits, neg)
}

func (f Format) signed(digits string, neg bool) string {
	switch {
	case neg:
		return "-" + digits
	case f.Sign:
		return "+" + digits
	}
	return digits
}

func pad(s string, width int, align Alignment) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	gap := width - n
	switch align {
	case AlignRight:
		return strings.Repeat(" ", gap) + s
	case AlignCenter:
		left := gap / 2
		return strings.Repeat(" ", left) + s + strings.Repeat(" ", gap-left)
	}
	return s + strings.Repeat(" ", gap)
}
