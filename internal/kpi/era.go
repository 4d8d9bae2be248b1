package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	apperrors "claimskpi/internal/errors"
	"claimskpi/pkg/contracts/domain"
)

// NormalizeRemittance reshapes an ERA upload into the canonical payment
// ledger: trace numbers kept as strings, dates reformatted to ISO calendar
// dates, amounts coerced to numeric, entries sorted descending by amount,
// and one Grand Total row with blank non-amount fields.
//
// All five source columns are structurally required. The ledger is
// load-bearing for cash reconciliation, so a missing column fails fast with
// ErrRemittanceSchema instead of producing a partial ledger that would
// silently understate cash received.
func NormalizeRemittance(ctx context.Context, logger *slog.Logger, batch *domain.RawBatch) (*domain.RemittanceLedger, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if batch == nil {
		return nil, apperrors.NewValidationError("remittance batch is required")
	}

	if missing := missingColumns(batch, RequiredRemittanceColumns); len(missing) > 0 {
		return nil, apperrors.NewSchemaError(
			fmt.Sprintf("remittance batch %q is missing required columns: %s", batch.Name, strings.Join(missing, ", ")),
			apperrors.ErrRemittanceSchema,
		).WithContext("missing_columns", missing)
	}

	payerIdx := batch.Column(ColERAPayer)
	methodIdx := batch.Column(ColERAMethod)
	datedIdx := batch.Column(ColERADated)
	traceIdx := batch.Column(ColERATrace)
	amountIdx := batch.Column(ColERAAmount)

	entries := make([]domain.RemittanceEntry, 0, len(batch.Rows)+1)
	var total float64

	for _, row := range batch.Rows {
		date := ""
		if t := parseDate(batch.Cell(row, datedIdx)); t != nil {
			date = t.Format("2006-01-02")
		}
		amount := parseAmount(batch.Cell(row, amountIdx))
		total += amount
		entries = append(entries, domain.RemittanceEntry{
			Payer:       batch.Cell(row, payerIdx),
			Method:      batch.Cell(row, methodIdx),
			Date:        date,
			CheckNumber: batch.Cell(row, traceIdx),
			Amount:      amount,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Amount > entries[j].Amount
	})

	entries = append(entries, domain.RemittanceEntry{
		Payer:  domain.GrandTotalLabel,
		Amount: total,
	})

	logger.InfoContext(ctx, "normalized remittance ledger",
		slog.String("batch", batch.Name),
		slog.Int("entry_count", len(entries)-1),
		slog.Float64("total_amount", total))

	return &domain.RemittanceLedger{Entries: entries}, nil
}
