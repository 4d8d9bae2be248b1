package kpi

import "time"

// Policy carries the reporting constants the classification engine and
// folders depend on. It is injected, never hardcoded in pipeline logic, so a
// policy change (a new excluded provider, a moved cutoff) is a configuration
// edit.
type Policy struct {
	// ExcludedProvider is compared against rendering providers after
	// trimming and lowercasing.
	ExcludedProvider string

	// DOSCutoff excludes service dates before it from the provider-visit
	// KPI.
	DOSCutoff time.Time

	// MinorClaimThreshold folds payers with fewer unique claims into the
	// "Other minor payers" bucket of the payer-mix table.
	MinorClaimThreshold int

	// MinorAmountQuantile sets the payments-by-payer folding threshold as
	// a quantile of per-payer payment totals.
	MinorAmountQuantile float64

	// AgingBoundaries are the inclusive upper edges of the first four
	// aging buckets, in days.
	AgingBoundaries []int
}

// DefaultPolicy returns the policy the weekly report has always run with.
func DefaultPolicy() Policy {
	return Policy{
		ExcludedProvider:    "salah, ahmad",
		DOSCutoff:           time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC),
		MinorClaimThreshold: 10,
		MinorAmountQuantile: 0.10,
		AgingBoundaries:     []int{30, 60, 90, 120},
	}
}
