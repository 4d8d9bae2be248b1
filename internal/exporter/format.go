package exporter

import (
	"fmt"
	"math"
	"strconv"
)

// formatMetric renders a metric cell: whole numbers without a decimal tail,
// everything else with two decimals. Currency symbols stay out of exports.
func formatMetric(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return fmt.Sprintf("%.2f", v)
}

// formatAmount renders a monetary cell with two decimals.
func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
