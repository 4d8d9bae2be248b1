package domain

// SummaryRow is one keyed row of a summary table. Values line up with the
// owning table's Columns.
type SummaryRow struct {
	Key    string    `json:"key"`
	Values []float64 `json:"values"`
}

// SummaryTable is a single-key aggregate: one row per distinct key plus one
// trailing Grand Total row. Monetary values stay plain decimals; currency
// formatting is a presentation concern.
type SummaryTable struct {
	KeyName string       `json:"key_name"`
	Columns []string     `json:"columns"`
	Rows    []SummaryRow `json:"rows"`
}

// ColumnIndex returns the position of the named metric column, or -1.
func (t *SummaryTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// GrandTotal returns the trailing totals row, or nil when the table carries
// none (folded tables drop it in favor of a Pct column).
func (t *SummaryTable) GrandTotal() *SummaryRow {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	if last := &t.Rows[len(t.Rows)-1]; last.Key == GrandTotalLabel {
		return last
	}
	return nil
}

// DataRows returns the rows excluding a trailing Grand Total row.
func (t *SummaryTable) DataRows() []SummaryRow {
	if t.GrandTotal() != nil {
		return t.Rows[:len(t.Rows)-1]
	}
	return t.Rows
}

// PivotRow is one row of a two-key cross-tabulation.
type PivotRow struct {
	Key        string  `json:"key"`
	Cells      []int   `json:"cells"`
	GrandTotal int     `json:"grand_total"`
	Share      float64 `json:"share"`
}

// PivotTable is a two-key cross-tabulation (first key down, second key
// across) of distinct-claim counts, with a Grand Total column, a Grand Total
// row, and a % Share column rounded to the nearest whole percent.
type PivotTable struct {
	KeyName string     `json:"key_name"`
	Columns []string   `json:"columns"`
	Rows    []PivotRow `json:"rows"`
}

// GrandTotal returns the trailing totals row, or nil for an empty pivot.
func (t *PivotTable) GrandTotal() *PivotRow {
	if t == nil || len(t.Rows) == 0 {
		return nil
	}
	if last := &t.Rows[len(t.Rows)-1]; last.Key == GrandTotalLabel {
		return last
	}
	return nil
}
