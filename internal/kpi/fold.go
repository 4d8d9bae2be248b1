package kpi

import (
	"math"
	"sort"

	"claimskpi/pkg/contracts/domain"
)

// OtherMinorLabel is the residual bucket for folded low-materiality
// categories.
const OtherMinorLabel = "Other minor payers"

// PctColumn is the share column appended by the count-threshold fold.
const PctColumn = "Pct"

// FoldByCount folds categories whose metric count is strictly below threshold
// into a single residual row, re-sorts descending by count, and appends a Pct
// column (count/total*100, two decimals). A trailing Grand Total row on the
// input is dropped: the Pct column supersedes it on folded tables. Folding is
// skipped entirely when no category is minor.
func FoldByCount(t *domain.SummaryTable, metric string, threshold int) *domain.SummaryTable {
	return fold(t, metric, float64(threshold), true)
}

// FoldByQuantile folds categories whose metric falls strictly below the q-th
// quantile of per-category values, floored at 1.0 when the quantile is
// non-positive or undefined so a degenerate distribution cannot fold
// legitimate categories. Output sorts descending by the metric.
func FoldByQuantile(t *domain.SummaryTable, metric string, q float64) *domain.SummaryTable {
	values := make([]float64, 0, len(t.DataRows()))
	col := t.ColumnIndex(metric)
	for _, row := range t.DataRows() {
		values = append(values, row.Values[col])
	}

	threshold := Quantile(values, q)
	if math.IsNaN(threshold) || threshold <= 0 {
		threshold = 1.0
	}
	return fold(t, metric, threshold, false)
}

func fold(t *domain.SummaryTable, metric string, threshold float64, withPct bool) *domain.SummaryTable {
	col := t.ColumnIndex(metric)
	data := t.DataRows()

	major := make([]domain.SummaryRow, 0, len(data))
	folded := make([]float64, len(t.Columns))
	minorCount := 0

	for _, row := range data {
		if row.Values[col] < threshold {
			minorCount++
			for i, v := range row.Values {
				folded[i] += v
			}
			continue
		}
		values := make([]float64, len(row.Values))
		copy(values, row.Values)
		major = append(major, domain.SummaryRow{Key: row.Key, Values: values})
	}

	if minorCount > 0 {
		major = append(major, domain.SummaryRow{Key: OtherMinorLabel, Values: folded})
	}

	// Sort order is recomputed strictly after folding so the residual row
	// lands wherever its magnitude puts it.
	sort.SliceStable(major, func(i, j int) bool {
		return major[i].Values[col] > major[j].Values[col]
	})

	out := &domain.SummaryTable{
		KeyName: t.KeyName,
		Columns: append([]string(nil), t.Columns...),
		Rows:    major,
	}

	if withPct {
		var total float64
		for _, row := range out.Rows {
			total += row.Values[col]
		}
		out.Columns = append(out.Columns, PctColumn)
		for i := range out.Rows {
			pct := 0.0
			if total > 0 {
				pct = round2(out.Rows[i].Values[col] / total * 100)
			}
			out.Rows[i].Values = append(out.Rows[i].Values, pct)
		}
	}

	return out
}

// Quantile computes the q-th quantile with linear interpolation between order
// statistics. Returns NaN for an empty sample.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}

	pos := q * float64(len(sorted)-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
