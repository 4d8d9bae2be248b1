package kpi

import (
	"math"
	"sort"

	"claimskpi/pkg/contracts/domain"
)

// Reducer selects how a metric column is reduced within a group.
type Reducer int

const (
	// ReduceSum sums the metric's values.
	ReduceSum Reducer = iota
	// ReduceCountDistinct counts distinct keys. The grand total is the sum
	// of per-group counts, not a global distinct count; the two agree
	// whenever groups partition the rows, which deduplication guarantees.
	ReduceCountDistinct
)

// Metric is one (output column, source, reducer) triple.
type Metric[T any] struct {
	Name   string
	Reduce Reducer
	// Value feeds ReduceSum.
	Value func(T) float64
	// Key feeds ReduceCountDistinct.
	Key func(T) string
}

// AggregateOption adjusts Aggregate behavior.
type AggregateOption func(*aggregateOptions)

type aggregateOptions struct {
	keyOrder []string
}

// WithKeyOrder pins the output rows to a fixed key order, zero-filling keys
// with no matching rows. Keys outside the list are dropped.
func WithKeyOrder(keys []string) AggregateOption {
	return func(o *aggregateOptions) { o.keyOrder = keys }
}

// Aggregate groups rows by a single key and reduces each metric, appending a
// Grand Total row equal to the column-wise sum of the data rows. Without a
// pinned key order, rows sort ascending by key.
func Aggregate[T any](rows []T, keyName string, key func(T) string, metrics []Metric[T], opts ...AggregateOption) *domain.SummaryTable {
	var options aggregateOptions
	for _, opt := range opts {
		opt(&options)
	}

	type group struct {
		sums     []float64
		distinct []map[string]bool
	}

	groups := make(map[string]*group)
	ensure := func(k string) *group {
		g, ok := groups[k]
		if !ok {
			g = &group{
				sums:     make([]float64, len(metrics)),
				distinct: make([]map[string]bool, len(metrics)),
			}
			for i, m := range metrics {
				if m.Reduce == ReduceCountDistinct {
					g.distinct[i] = make(map[string]bool)
				}
			}
			groups[k] = g
		}
		return g
	}

	if options.keyOrder != nil {
		for _, k := range options.keyOrder {
			ensure(k)
		}
	}

	for _, row := range rows {
		k := key(row)
		if options.keyOrder != nil {
			if _, ok := groups[k]; !ok {
				continue
			}
		}
		g := ensure(k)
		for i, m := range metrics {
			switch m.Reduce {
			case ReduceSum:
				g.sums[i] += m.Value(row)
			case ReduceCountDistinct:
				g.distinct[i][m.Key(row)] = true
			}
		}
	}

	keys := options.keyOrder
	if keys == nil {
		keys = make([]string, 0, len(groups))
		for k := range groups {
			keys = append(keys, k)
		}
		sort.Strings(keys)
	}

	table := &domain.SummaryTable{
		KeyName: keyName,
		Columns: make([]string, len(metrics)),
		Rows:    make([]domain.SummaryRow, 0, len(keys)+1),
	}
	for i, m := range metrics {
		table.Columns[i] = m.Name
	}

	totals := make([]float64, len(metrics))
	for _, k := range keys {
		g := groups[k]
		values := make([]float64, len(metrics))
		for i, m := range metrics {
			switch m.Reduce {
			case ReduceSum:
				values[i] = g.sums[i]
			case ReduceCountDistinct:
				values[i] = float64(len(g.distinct[i]))
			}
			totals[i] += values[i]
		}
		table.Rows = append(table.Rows, domain.SummaryRow{Key: k, Values: values})
	}

	table.Rows = append(table.Rows, domain.SummaryRow{Key: domain.GrandTotalLabel, Values: totals})
	return table
}

// CrossTab builds a two-key cross-tabulation of distinct counts: rows by
// rowKey, columns by colKey sorted ascending, a Grand Total column summing
// each row, a Grand Total row summing each column, and a % Share column of
// each row's grand total against the overall total, rounded half-up to the
// nearest whole percent.
func CrossTab[T any](rows []T, keyName string, rowKey, colKey, distinct func(T) string) *domain.PivotTable {
	cells := make(map[string]map[string]map[string]bool)
	colSet := make(map[string]bool)

	for _, row := range rows {
		rk, ck := rowKey(row), colKey(row)
		colSet[ck] = true
		if cells[rk] == nil {
			cells[rk] = make(map[string]map[string]bool)
		}
		if cells[rk][ck] == nil {
			cells[rk][ck] = make(map[string]bool)
		}
		cells[rk][ck][distinct(row)] = true
	}

	cols := make([]string, 0, len(colSet))
	for c := range colSet {
		cols = append(cols, c)
	}
	sort.Strings(cols)

	rowKeys := make([]string, 0, len(cells))
	for r := range cells {
		rowKeys = append(rowKeys, r)
	}
	sort.Strings(rowKeys)

	table := &domain.PivotTable{
		KeyName: keyName,
		Columns: cols,
		Rows:    make([]domain.PivotRow, 0, len(rowKeys)+1),
	}

	colTotals := make([]int, len(cols))
	overall := 0
	for _, rk := range rowKeys {
		row := domain.PivotRow{Key: rk, Cells: make([]int, len(cols))}
		for i, ck := range cols {
			n := len(cells[rk][ck])
			row.Cells[i] = n
			row.GrandTotal += n
			colTotals[i] += n
		}
		overall += row.GrandTotal
		table.Rows = append(table.Rows, row)
	}

	totalRow := domain.PivotRow{
		Key:        domain.GrandTotalLabel,
		Cells:      colTotals,
		GrandTotal: overall,
	}
	table.Rows = append(table.Rows, totalRow)

	for i := range table.Rows {
		table.Rows[i].Share = shareOf(table.Rows[i].GrandTotal, overall)
	}

	return table
}

func shareOf(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return math.Round(float64(part) / float64(whole) * 100)
}
