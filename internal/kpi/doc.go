// Package kpi implements the claims KPI aggregation pipeline: the
// deterministic transformations that turn raw claim-detail, daily-transaction
// and remittance batches into normalized, deduplicated, bucketed and
// threshold-folded summary tables.
//
// The pipeline is a pure function of its inputs: batches in, tables out, with
// the reporting date and all policy constants injected. Components never
// mutate a batch after handing it downstream, and every aggregate carries an
// appended Grand Total row equal to the column-wise sum of its data rows.
package kpi
