package kpi

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	apperrors "claimskpi/internal/errors"
	"claimskpi/pkg/contracts/domain"
)

// ClaimColumns records which semantic claim-detail columns the uploaded batch
// actually carried. Downstream policy depends on this: month bucketing falls
// back to "Unknown" only when the date column is absent batch-wide, and the
// balance derivation switches formula when the balance column is missing.
type ClaimColumns struct {
	ServiceDate bool
	ClaimDate   bool
	Balance     bool
	StatusCode  bool
	StatusGroup bool
}

// ClaimBatch is the normalized line-item view of a claim-detail upload.
type ClaimBatch struct {
	Lines    []domain.ClaimLine
	Columns  ClaimColumns
	Warnings []string
}

// TransactionBatch is the normalized daily-transactions upload.
type TransactionBatch struct {
	Transactions     []domain.Transaction
	HasDate          bool
	HasPostingStatus bool
	Warnings         []string
}

// Normalizer coerces raw tabular batches into typed records. Unparseable
// dates become nil, unparseable amounts become 0.0, missing categoricals get
// sentinel values. Rows are never dropped.
type Normalizer struct {
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. A nil logger falls back to the default.
func NewNormalizer(logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{logger: logger}
}

// NormalizeClaimLines parses a claim-detail batch into claim lines.
func (n *Normalizer) NormalizeClaimLines(ctx context.Context, batch *domain.RawBatch) (*ClaimBatch, error) {
	if batch == nil {
		return nil, apperrors.NewValidationError("claim detail batch is required")
	}

	missing := missingColumns(batch, RequiredClaimColumns)
	out := &ClaimBatch{
		Lines: make([]domain.ClaimLine, 0, len(batch.Rows)),
	}
	if len(missing) > 0 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("batch %q is missing expected columns: %s", batch.Name, strings.Join(missing, ", ")))
	}

	dosIdx := -1
	for _, cand := range ServiceDateCandidates {
		if idx := batch.Column(cand); idx >= 0 {
			dosIdx = idx
			break
		}
	}

	idx := func(name string) int { return batch.Column(name) }
	claimNoIdx := idx(ColClaimNo)
	providerIdx := idx(ColRenderingProvider)
	payerIdx := idx(ColPrimaryPayer)
	statusCodeIdx := idx(ColStatusCode)
	statusGroupIdx := idx(ColStatusGroup)
	claimDateIdx := idx(ColClaimDate)
	billedIdx := idx(ColBilledCharge)
	payerChargeIdx := idx(ColPayerCharge)
	totalPayIdx := idx(ColTotalPayment)
	payerPayIdx := idx(ColPayerPayment)
	patientPayIdx := idx(ColPatientPayment)
	contractualIdx := idx(ColContractualAdj)
	allowedIdx := idx(ColAllowedFee)
	balanceIdx := idx(ColBalance)

	out.Columns = ClaimColumns{
		ServiceDate: dosIdx >= 0,
		ClaimDate:   claimDateIdx >= 0,
		Balance:     balanceIdx >= 0,
		StatusCode:  statusCodeIdx >= 0,
		StatusGroup: statusGroupIdx >= 0,
	}

	for _, row := range batch.Rows {
		line := domain.ClaimLine{
			ClaimNo:               batch.Cell(row, claimNoIdx),
			RenderingProvider:     batch.Cell(row, providerIdx),
			PrimaryPayer:          categoricalOrUnknown(batch.Cell(row, payerIdx)),
			ServiceDate:           parseDate(batch.Cell(row, dosIdx)),
			ClaimDate:             parseDate(batch.Cell(row, claimDateIdx)),
			StatusCode:            batch.Cell(row, statusCodeIdx),
			StatusGroupName:       batch.Cell(row, statusGroupIdx),
			BilledCharge:          parseAmount(batch.Cell(row, billedIdx)),
			PayerCharge:           parseAmount(batch.Cell(row, payerChargeIdx)),
			TotalPayment:          parseAmount(batch.Cell(row, totalPayIdx)),
			PayerPayment:          parseAmount(batch.Cell(row, payerPayIdx)),
			PatientPayment:        parseAmount(batch.Cell(row, patientPayIdx)),
			ContractualAdjustment: parseAmount(batch.Cell(row, contractualIdx)),
			AllowedFee:            parseAmount(batch.Cell(row, allowedIdx)),
			Balance:               parseAmount(batch.Cell(row, balanceIdx)),
		}
		out.Lines = append(out.Lines, line)
	}

	n.logger.InfoContext(ctx, "normalized claim detail batch",
		slog.String("batch", batch.Name),
		slog.Int("line_count", len(out.Lines)),
		slog.Int("missing_columns", len(missing)))

	return out, nil
}

// NormalizeTransactions parses a daily-transactions batch.
func (n *Normalizer) NormalizeTransactions(ctx context.Context, batch *domain.RawBatch) (*TransactionBatch, error) {
	if batch == nil {
		return nil, apperrors.NewValidationError("daily transactions batch is required")
	}

	missing := missingColumns(batch, RequiredTransactionColumns)
	out := &TransactionBatch{
		Transactions: make([]domain.Transaction, 0, len(batch.Rows)),
	}
	if len(missing) > 0 {
		out.Warnings = append(out.Warnings,
			fmt.Sprintf("batch %q is missing expected columns: %s", batch.Name, strings.Join(missing, ", ")))
	}

	dateIdx := batch.Column(ColTxDate)
	billedIdx := batch.Column(ColTxBilledCharges)
	selfPayIdx := batch.Column(ColTxSelfPayCharges)
	payerChargesIdx := batch.Column(ColTxPayerCharges)
	totalIdx := batch.Column(ColTxTotalPayments)
	patientIdx := batch.Column(ColTxPatientPayments)
	payerIdx := batch.Column(ColTxPayerPayments)
	contractualIdx := batch.Column(ColTxContractualAdj)
	postingIdx := batch.Column(ColTxPostingStatus)

	out.HasDate = dateIdx >= 0
	out.HasPostingStatus = postingIdx >= 0

	for _, row := range batch.Rows {
		out.Transactions = append(out.Transactions, domain.Transaction{
			Date:                   parseDate(batch.Cell(row, dateIdx)),
			BilledCharges:          parseAmount(batch.Cell(row, billedIdx)),
			SelfPayCharges:         parseAmount(batch.Cell(row, selfPayIdx)),
			PayerCharges:           parseAmount(batch.Cell(row, payerChargesIdx)),
			TotalPayments:          parseAmount(batch.Cell(row, totalIdx)),
			PatientPayments:        parseAmount(batch.Cell(row, patientIdx)),
			PayerPayments:          parseAmount(batch.Cell(row, payerIdx)),
			ContractualAdjustments: parseAmount(batch.Cell(row, contractualIdx)),
			PostingStatus:          batch.Cell(row, postingIdx),
		})
	}

	n.logger.InfoContext(ctx, "normalized transactions batch",
		slog.String("batch", batch.Name),
		slog.Int("row_count", len(out.Transactions)),
		slog.Int("missing_columns", len(missing)))

	return out, nil
}

func missingColumns(batch *domain.RawBatch, required []string) []string {
	var missing []string
	for _, name := range required {
		if !batch.HasColumn(name) {
			missing = append(missing, name)
		}
	}
	return missing
}

func categoricalOrUnknown(v string) string {
	if v == "" {
		return "Unknown"
	}
	return v
}

// dateLayouts are tried in order. Exports alternate between ISO and US
// formats depending on which billing-system screen produced the file.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01/02/2006 15:04",
	"01-02-2006",
	"2006/01/02",
	"Jan 2, 2006",
	"January 2, 2006",
	"01-02-06",
	"1/2/06",
}

// parseDate returns nil for anything unparseable; rows are kept either way.
func parseDate(v string) *time.Time {
	if v == "" {
		return nil
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}
	return nil
}

// parseAmount coerces a monetary cell to a float64, defaulting to 0.0. It
// tolerates currency symbols, thousands separators, and accounting-style
// parenthesized negatives.
func parseAmount(v string) float64 {
	if v == "" {
		return 0.0
	}
	s := strings.TrimSpace(v)
	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = s[1 : len(s)-1]
	}
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0.0
	}
	if negative {
		return -f
	}
	return f
}
