package kpi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimskpi/pkg/contracts/domain"
)

type sale struct {
	region string
	month  string
	order  string
	amount float64
}

func TestAggregateSum(t *testing.T) {
	rows := []sale{
		{region: "East", amount: 100},
		{region: "East", amount: 50},
		{region: "West", amount: 25},
	}

	table := Aggregate(rows, "Region",
		func(s sale) string { return s.region },
		[]Metric[sale]{
			{Name: "Amount", Reduce: ReduceSum, Value: func(s sale) float64 { return s.amount }},
		},
	)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "East", table.Rows[0].Key)
	assert.Equal(t, 150.0, table.Rows[0].Values[0])
	assert.Equal(t, "West", table.Rows[1].Key)

	gt := table.GrandTotal()
	require.NotNil(t, gt)
	assert.Equal(t, 175.0, gt.Values[0], "grand total equals the column-wise sum of data rows")
}

func TestAggregateCountDistinct(t *testing.T) {
	rows := []sale{
		{region: "East", order: "o1"},
		{region: "East", order: "o1"},
		{region: "East", order: "o2"},
		{region: "West", order: "o3"},
	}

	table := Aggregate(rows, "Region",
		func(s sale) string { return s.region },
		[]Metric[sale]{
			{Name: "Orders", Reduce: ReduceCountDistinct, Key: func(s sale) string { return s.order }},
		},
	)

	assert.Equal(t, 2.0, table.Rows[0].Values[0], "duplicate orders count once")
	assert.Equal(t, 1.0, table.Rows[1].Values[0])

	// The grand total is the sum of per-group counts, which equals the
	// distinct total whenever groups partition the rows.
	gt := table.GrandTotal()
	require.NotNil(t, gt)
	assert.Equal(t, 3.0, gt.Values[0])
}

func TestAggregateWithKeyOrder(t *testing.T) {
	rows := []sale{
		{region: "West", amount: 10},
		{region: "North", amount: 99},
	}

	table := Aggregate(rows, "Region",
		func(s sale) string { return s.region },
		[]Metric[sale]{
			{Name: "Amount", Reduce: ReduceSum, Value: func(s sale) float64 { return s.amount }},
		},
		WithKeyOrder([]string{"East", "West"}),
	)

	require.Len(t, table.Rows, 3)
	assert.Equal(t, "East", table.Rows[0].Key)
	assert.Equal(t, 0.0, table.Rows[0].Values[0], "pinned keys with no rows zero-fill")
	assert.Equal(t, "West", table.Rows[1].Key)
	assert.Equal(t, 10.0, table.Rows[1].Values[0])
	assert.Equal(t, 10.0, table.GrandTotal().Values[0], "keys outside the pinned order are dropped")
}

func TestCrossTab(t *testing.T) {
	rows := []sale{
		{region: "East", month: "2025-01", order: "o1"},
		{region: "East", month: "2025-01", order: "o1"},
		{region: "East", month: "2025-02", order: "o2"},
		{region: "West", month: "2025-01", order: "o3"},
	}

	table := CrossTab(rows, "Region",
		func(s sale) string { return s.region },
		func(s sale) string { return s.month },
		func(s sale) string { return s.order },
	)

	assert.Equal(t, []string{"2025-01", "2025-02"}, table.Columns)
	require.Len(t, table.Rows, 3)

	east := table.Rows[0]
	assert.Equal(t, "East", east.Key)
	assert.Equal(t, []int{1, 1}, east.Cells, "duplicate o1 counts once")
	assert.Equal(t, 2, east.GrandTotal)
	assert.Equal(t, 67.0, east.Share)

	west := table.Rows[1]
	assert.Equal(t, []int{1, 0}, west.Cells)
	assert.Equal(t, 33.0, west.Share)

	gt := table.GrandTotal()
	require.NotNil(t, gt)
	assert.Equal(t, []int{2, 1}, gt.Cells)
	assert.Equal(t, 3, gt.GrandTotal)
	assert.Equal(t, 100.0, gt.Share)
}

func TestCrossTabEmpty(t *testing.T) {
	table := CrossTab(nil, "Region",
		func(s sale) string { return s.region },
		func(s sale) string { return s.month },
		func(s sale) string { return s.order },
	)
	require.Len(t, table.Rows, 1, "only the Grand Total row remains")
	assert.Equal(t, domain.GrandTotalLabel, table.Rows[0].Key)
	assert.Equal(t, 0.0, table.Rows[0].Share)
}
