// Package table reads and writes the spreadsheet-style view of work
// records: tab-separated text pasted from a spreadsheet, and xlsx/xls files.
package table

import (
	"errors"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// ErrNoTable is returned when the input has no tab-separated header row.
var ErrNoTable = errors.New("no table detected (missing tab separators)")

// Table is a header row plus data rows, every row exactly len(Headers) wide.
type Table struct {
	Headers []string
	Rows    [][]string
}

// LooksLikeTable reports whether text starts with a tab-separated header
// that names the date column. Callers use it only after JSON parsing failed.
func LooksLikeTable(text string) bool {
	t := strings.TrimSpace(text)
	if t == "" {
		return false
	}
	first, _, _ := strings.Cut(t, "\n")
	if !strings.Contains(first, "\t") {
		return false
	}
	folded := foldHeader(first)
	return strings.Contains(folded, "fecha") || strings.Contains(folded, "date")
}

// Parse splits tab-separated text into a header and data rows. The first line
// containing a tab is the header.
//
// Lines with fewer fields than the header continue the previous row's last
// cell (spreadsheets paste multi-line cells without quoting). Lines with more
// fields fold the excess back into the last column.
func Parse(text string) (Table, error) {
	raw := strings.ReplaceAll(text, "\r\n", "\n")
	raw = strings.ReplaceAll(raw, "\r", "\n")
	lines := strings.Split(raw, "\n")

	hi := -1
	for i, line := range lines {
		if strings.Contains(line, "\t") {
			hi = i
			break
		}
	}
	if hi == -1 {
		return Table{}, ErrNoTable
	}

	headers := strings.Split(lines[hi], "\t")
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}
	width := len(headers)

	t := Table{Headers: headers, Rows: [][]string{}}
	for _, line := range lines[hi+1:] {
		if strings.TrimSpace(line) == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < width && len(t.Rows) > 0 {
			last := t.Rows[len(t.Rows)-1]
			last[width-1] += "\n" + line
			continue
		}
		t.Rows = append(t.Rows, fit(parts, width))
	}
	return t, nil
}

// fit pads row with empty cells, or joins the overflow into the last cell.
func fit(row []string, width int) []string {
	if len(row) > width {
		head := append([]string{}, row[:width-1]...)
		return append(head, strings.Join(row[width-1:], "\t"))
	}
	out := make([]string, width)
	copy(out, row)
	return out
}

// Index returns the column of the first header matching one of names, or -1.
// Matching ignores case, surrounding blanks and accents.
func (t Table) Index(names ...string) int {
	for _, name := range names {
		want := foldHeader(name)
		for i, h := range t.Headers {
			if foldHeader(h) == want {
				return i
			}
		}
	}
	return -1
}

// Value returns the first non-empty trimmed cell of row among the columns
// named by names, in order.
func (t Table) Value(row []string, names ...string) string {
	for _, name := range names {
		i := t.Index(name)
		if i < 0 || i >= len(row) {
			continue
		}
		if v := strings.TrimSpace(row[i]); v != "" {
			return v
		}
	}
	return ""
}

func foldHeader(s string) string {
	tr := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(tr, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(strings.TrimSpace(out))
}
