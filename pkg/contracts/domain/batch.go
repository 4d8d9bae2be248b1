package domain

import "strings"

// RawBatch is one uploaded tabular report: an ordered header row plus string
// cell rows. Columns are matched by trimmed header name and are not guaranteed
// to be present; downstream normalizers fill defaults for anything missing.
type RawBatch struct {
	Name    string     `json:"name"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

// Column returns the index of the named column, matching on trimmed header
// text, or -1 when the batch does not carry that column.
func (b *RawBatch) Column(name string) int {
	for i, h := range b.Headers {
		if strings.TrimSpace(h) == name {
			return i
		}
	}
	return -1
}

// HasColumn reports whether the batch carries the named column.
func (b *RawBatch) HasColumn(name string) bool {
	return b.Column(name) >= 0
}

// Cell returns the trimmed cell at the given column index for a row, or ""
// when the row is shorter than the index (ragged rows are common in exported
// spreadsheets).
func (b *RawBatch) Cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

// Empty reports whether the batch has no data rows.
func (b *RawBatch) Empty() bool {
	return b == nil || len(b.Rows) == 0
}
