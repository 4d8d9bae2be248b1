package kpi

import (
	"time"

	"claimskpi/pkg/contracts/domain"
)

// DeduplicateClaims collapses a line-item batch to one Claim per distinct
// claim number, keeping the first-encountered line's claim-level fields. Line
// amounts are deliberately not re-summed across lines: each claim carries its
// representative line's amounts only.
//
// today drives the AgingDays derivation and is injected so the pipeline stays
// deterministic under a fixed clock.
func DeduplicateClaims(batch *ClaimBatch, today time.Time) []domain.Claim {
	seen := make(map[string]bool, len(batch.Lines))
	claims := make([]domain.Claim, 0, len(batch.Lines))

	day := today.Truncate(24 * time.Hour)

	for _, line := range batch.Lines {
		if seen[line.ClaimNo] {
			continue
		}
		seen[line.ClaimNo] = true

		claim := domain.Claim{ClaimLine: line}

		if line.ServiceDate != nil {
			days := int(day.Sub(line.ServiceDate.Truncate(24*time.Hour)).Hours() / 24)
			claim.AgingDays = &days
		}

		if batch.Columns.Balance {
			claim.OutstandingBalance = line.Balance
		} else {
			claim.OutstandingBalance = line.BilledCharge - line.TotalPayment - line.ContractualAdjustment
		}

		claims = append(claims, claim)
	}

	return claims
}
