package kpi

import (
	"strings"
	"time"

	"claimskpi/pkg/contracts/domain"
)

// KPIName identifies one summary table for the per-module filter policy.
type KPIName string

const (
	KPIProviderVisits  KPIName = "provider_visits"
	KPIPayerMix        KPIName = "payer_mix"
	KPIARAging         KPIName = "ar_aging"
	KPIMonthlyTx       KPIName = "monthly_transactions"
	KPIPaymentsByPayer KPIName = "payments_by_payer"
	KPIRemittance      KPIName = "remittance"
	KPIDenials         KPIName = "denials"
)

// FilterID names one exclusion predicate.
type FilterID string

const (
	FilterExcludedProvider FilterID = "excluded_provider"
	FilterSelfPay          FilterID = "self_pay"
	FilterPATStatus        FilterID = "pat_status"
	FilterDOSCutoff        FilterID = "dos_cutoff"
)

// kpiFilters declares which exclusions each KPI applies. The inconsistency
// across modules is reporting policy, not accident: provider visits include
// self-pay, AR aging excludes it, and only provider visits honor the DOS
// cutoff. Keeping the mapping in one table makes the policy auditable.
var kpiFilters = map[KPIName][]FilterID{
	KPIProviderVisits:  {FilterDOSCutoff, FilterExcludedProvider},
	KPIPayerMix:        {},
	KPIARAging:         {FilterSelfPay, FilterPATStatus},
	KPIMonthlyTx:       {},
	KPIPaymentsByPayer: {FilterExcludedProvider},
	KPIRemittance:      {},
	KPIDenials:         {},
}

// unknownAgingSentinel pushes rows with an unparseable service date into the
// highest aging bucket instead of dropping them.
const unknownAgingSentinel = 999999

// MonthUnknown labels rows whose month cannot be determined.
const MonthUnknown = "Unknown"

// Engine evaluates classification rules under an injected policy.
type Engine struct {
	policy Policy
}

// NewEngine creates a classification engine for the given policy.
func NewEngine(policy Policy) *Engine {
	if len(policy.AgingBoundaries) != 4 {
		policy.AgingBoundaries = DefaultPolicy().AgingBoundaries
	}
	policy.ExcludedProvider = strings.TrimSpace(strings.ToLower(policy.ExcludedProvider))
	return &Engine{policy: policy}
}

// Policy returns the engine's active policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// FiltersFor returns the declared filter set for a KPI.
func (e *Engine) FiltersFor(name KPIName) []FilterID {
	return kpiFilters[name]
}

// Excluded reports whether a single filter excludes the line. Predicates are
// independent, so applying a set in any order yields the same survivors.
func (e *Engine) Excluded(id FilterID, line domain.ClaimLine) bool {
	switch id {
	case FilterExcludedProvider:
		return strings.TrimSpace(strings.ToLower(line.RenderingProvider)) == e.policy.ExcludedProvider
	case FilterSelfPay:
		return strings.ToUpper(strings.TrimSpace(line.PrimaryPayer)) == "SELF PAY"
	case FilterPATStatus:
		return strings.Contains(strings.ToUpper(line.StatusCode), "PAT")
	case FilterDOSCutoff:
		return line.ServiceDate != nil && line.ServiceDate.Before(e.policy.DOSCutoff)
	}
	return false
}

// ApplyFilters returns the lines surviving the KPI's declared filter set.
// The input slice is never mutated.
func ApplyFilters[T any](e *Engine, name KPIName, rows []T, line func(T) domain.ClaimLine) []T {
	filters := e.FiltersFor(name)
	if len(filters) == 0 {
		out := make([]T, len(rows))
		copy(out, rows)
		return out
	}

	out := make([]T, 0, len(rows))
	for _, row := range rows {
		excluded := false
		for _, id := range filters {
			if e.Excluded(id, line(row)) {
				excluded = true
				break
			}
		}
		if !excluded {
			out = append(out, row)
		}
	}
	return out
}

// MonthLabel buckets a date into a "YYYY-MM" label. When the source column is
// absent batch-wide, or a present column's cell failed to parse, the row
// labels as Unknown and stays in the aggregate.
func MonthLabel(date *time.Time, columnPresent bool) string {
	if !columnPresent || date == nil {
		return MonthUnknown
	}
	return date.Format("2006-01")
}

// AgingBucketFor maps AgingDays to its bucket. The mapping is total: nil maps
// through a high sentinel into the top bucket, and the boundary values
// themselves (30, 60, 90, 120 under the default policy) belong to the lower
// bucket.
func (e *Engine) AgingBucketFor(days *int) domain.AgingBucket {
	d := unknownAgingSentinel
	if days != nil {
		d = *days
	}
	b := e.policy.AgingBoundaries
	switch {
	case d <= b[0]:
		return domain.Aging0To30
	case d <= b[1]:
		return domain.Aging31To60
	case d <= b[2]:
		return domain.Aging61To90
	case d <= b[3]:
		return domain.Aging91To120
	default:
		return domain.AgingAbove120
	}
}
