// Package table is the generic row/column model every upstream page is
// reduced to before the play pipeline looks at it.
package table

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/bytedance/sonic"

	"github.com/fortuna/dugout/internal/textutil"
)

// Kind discriminates the three cell value shapes.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
)

// Value is a single cell: null, a string or a number. Numbers keep the text
// they were parsed from so "6.2" innings pitched survives a round trip.
type Value struct {
	kind Kind
	text string
	num  float64
}

// Null returns the empty cell.
func Null() Value { return Value{} }

// String returns a string cell; blank text becomes null.
func String(s string) Value {
	s = textutil.Clean(s)
	if s == "" {
		return Null()
	}
	return Value{kind: KindString, text: s}
}

// Number returns a numeric cell.
func Number(f float64) Value {
	return Value{kind: KindNumber, text: strconv.FormatFloat(f, 'f', -1, 64), num: f}
}

// Parse classifies raw cell text, turning plain numerals into numbers.
func Parse(raw string) Value {
	s := textutil.Clean(raw)
	if s == "" {
		return Null()
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && strings.IndexFunc(s, unicode.IsLetter) < 0 {
		return Value{kind: KindNumber, text: s, num: f}
	}
	return Value{kind: KindString, text: s}
}

func (v Value) Kind() Kind   { return v.kind }
func (v Value) IsNull() bool { return v.kind == KindNull }

// Text is the cell as display text; null is "".
func (v Value) Text() string { return v.text }

// Int returns the cell as an integer when it holds a whole number.
func (v Value) Int() (int, bool) {
	switch v.kind {
	case KindNumber:
		if v.num != float64(int(v.num)) {
			return 0, false
		}
		return int(v.num), true
	case KindString:
		return textutil.ToInt(v.text)
	default:
		return 0, false
	}
}

// Float returns the cell as a float.
func (v Value) Float() (float64, bool) {
	switch v.kind {
	case KindNumber:
		return v.num, true
	case KindString:
		return textutil.ToFloat(v.text)
	default:
		return 0, false
	}
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNumber:
		return []byte(strconv.FormatFloat(v.num, 'f', -1, 64)), nil
	case KindString:
		return sonic.Marshal(v.text)
	default:
		return []byte("null"), nil
	}
}

// Row is one table row. Values is nil when the cells could not be aligned
// to the headers; callers then fall back to positional access via Cells.
type Row struct {
	Cells  []Value          `json:"cells"`
	Values map[string]Value `json:"values"`
}

// Table is an ordered header list plus its rows.
type Table struct {
	Headers []string `json:"headers"`
	Rows    []Row    `json:"rows"`
}

// Section groups the tables found under one title.
type Section struct {
	Title  string  `json:"title"`
	Tables []Table `json:"tables"`
}

// New builds a table, aligning every row's cells to the headers.
func New(headers []string, rows [][]Value) Table {
	t := Table{Headers: make([]string, len(headers))}
	for i, h := range headers {
		t.Headers[i] = textutil.Clean(h)
	}
	for _, cells := range rows {
		t.Rows = append(t.Rows, Row{Cells: cells, Values: align(t.Headers, cells)})
	}
	return t
}

// align zips headers with cells. It tolerates one extra blank header at
// either end and one extra blank leading cell; anything else is left
// unaligned.
func align(headers []string, cells []Value) map[string]Value {
	h, c := headers, cells
	switch {
	case len(h) == len(c):
	case len(h) == len(c)+1 && h[0] == "":
		h = h[1:]
	case len(h) == len(c)+1 && h[len(h)-1] == "":
		h = h[:len(h)-1]
	case len(c) == len(h)+1 && c[0].IsNull():
		c = c[1:]
	default:
		return nil
	}
	if len(h) == 0 {
		return nil
	}

	values := make(map[string]Value, len(h))
	for i, name := range h {
		if name == "" {
			continue
		}
		if _, dup := values[name]; dup {
			continue
		}
		values[name] = c[i]
	}
	return values
}

// Aligned reports whether the row has a header-keyed map.
func (r Row) Aligned() bool { return r.Values != nil }

// Lookup returns the value of the first header matching any of names,
// compared case-insensitively.
func (r Row) Lookup(names ...string) (Value, bool) {
	if r.Values == nil {
		return Null(), false
	}
	for _, name := range names {
		if v, ok := r.Values[name]; ok {
			return v, true
		}
		for key, v := range r.Values {
			if strings.EqualFold(key, name) {
				return v, true
			}
		}
	}
	return Null(), false
}

// Text is Lookup reduced to display text.
func (r Row) Text(names ...string) string {
	v, _ := r.Lookup(names...)
	return v.Text()
}

// Cell returns the i-th raw cell, or null when out of range.
func (r Row) Cell(i int) Value {
	if i < 0 || i >= len(r.Cells) {
		return Null()
	}
	return r.Cells[i]
}

// Texts returns every cell as text.
func (r Row) Texts() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.Text()
	}
	return out
}

// FirstText returns the first non-empty cell text.
func (r Row) FirstText() string {
	for _, c := range r.Cells {
		if !c.IsNull() {
			return c.Text()
		}
	}
	return ""
}

// Empty reports whether every cell is null.
func (r Row) Empty() bool {
	return r.FirstText() == ""
}

// HeaderIndex returns the position of the first header matching any of names.
func (t Table) HeaderIndex(names ...string) int {
	for _, name := range names {
		for i, h := range t.Headers {
			if strings.EqualFold(h, name) {
				return i
			}
		}
	}
	return -1
}

// HasHeader reports whether any header contains substr, case-insensitively.
func (t Table) HasHeader(substr string) bool {
	substr = strings.ToLower(substr)
	for _, h := range t.Headers {
		if strings.Contains(strings.ToLower(h), substr) {
			return true
		}
	}
	return false
}

// Find returns the sections whose title contains substr, case-insensitively.
func Find(sections []Section, substr string) []Section {
	substr = strings.ToLower(substr)
	var out []Section
	for _, s := range sections {
		if strings.Contains(strings.ToLower(s.Title), substr) {
			out = append(out, s)
		}
	}
	return out
}
