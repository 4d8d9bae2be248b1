package kpi

import (
	"context"
	"log/slog"
	"strings"
	"time"

	apperrors "claimskpi/internal/errors"
	"claimskpi/pkg/contracts/domain"
)

// AR aging table columns. ExpectedPayments is always derived from the
// allowed-fee column, even when that column is zero or missing; Pending can
// therefore run non-positive for some payers. That is literal reporting
// policy; do not change it without a corrected policy.
const (
	ARChargesColumn    = "Charges"
	ARAllowedFeeColumn = "AllowedFee"
	ARExpectedColumn   = "ExpectedPayments"
	ARCollectedColumn  = "PaymentsCollected"
	ARPendingColumn    = "Pending"
)

// Monthly transaction summary columns.
const (
	MonthlyKeyName           = "TRANSACTION MONTH"
	MonthlyBilledColumn      = "BILLED_CHARGES"
	MonthlyPatientColumn     = "PATIENT_PAYMENTS"
	MonthlyPayerColumn       = "PAYER_PAYMENTS"
	MonthlyContractualColumn = "CONTRACTUAL_ADJUSTMENTS"
)

// Payer-table columns.
const (
	PayerMixClaimsColumn      = "Claims"
	PayerPaymentsAmountColumn = "Payer Payment"
)

// Inputs are the batches one pipeline run consumes. Claims and Transactions
// are mandatory; Remittance is optional and skips the ERA sections when nil.
// Today is injected so aging stays deterministic under a fixed clock.
type Inputs struct {
	Claims       *domain.RawBatch
	Transactions *domain.RawBatch
	Remittance   *domain.RawBatch
	Today        time.Time
}

// Report is the full output of one pipeline run: the seven summary tables,
// the intermediate views collaborators export, and the non-fatal warnings
// collected along the way.
type Report struct {
	GeneratedAt time.Time `json:"generated_at"`
	Today       time.Time `json:"today"`

	ProviderVisits      *domain.PivotTable       `json:"provider_visits"`
	PayerMix            *domain.SummaryTable     `json:"payer_mix"`
	ARAging             *domain.SummaryTable     `json:"ar_aging"`
	MonthlyTransactions *domain.SummaryTable     `json:"monthly_transactions"`
	PaymentsByPayer     *domain.SummaryTable     `json:"payments_by_payer"`
	Remittance          *domain.RemittanceLedger `json:"remittance,omitempty"`
	Denials             *domain.SummaryTable     `json:"denials"`

	// Unposted lists transactions whose posting status marks them
	// unposted; empty when the report does not carry the column.
	Unposted []domain.Transaction `json:"unposted,omitempty"`

	// LineItems and Transactions are the normalized raw views handed back
	// for workbook export.
	LineItems    []domain.ClaimLine   `json:"line_items,omitempty"`
	Transactions []domain.Transaction `json:"transactions,omitempty"`

	Warnings []string `json:"warnings,omitempty"`
}

// Pipeline runs the full claims KPI aggregation: normalize, deduplicate,
// classify, aggregate, fold. One batch in, all tables out; no state survives
// between runs.
type Pipeline struct {
	logger     *slog.Logger
	policy     Policy
	engine     *Engine
	normalizer *Normalizer
}

// NewPipeline creates a pipeline under the given policy. A nil logger falls
// back to the default.
func NewPipeline(logger *slog.Logger, policy Policy) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		logger:     logger,
		policy:     policy,
		engine:     NewEngine(policy),
		normalizer: NewNormalizer(logger),
	}
}

// Run processes one full batch set. It fails outright only when a required
// input is absent; everything else degrades to warnings on the report.
func (p *Pipeline) Run(ctx context.Context, in Inputs) (*Report, error) {
	if in.Claims == nil {
		return nil, apperrors.NewValidationError("claim detail batch is required")
	}
	if in.Transactions == nil {
		return nil, apperrors.NewValidationError("daily transactions batch is required")
	}

	today := in.Today
	if today.IsZero() {
		today = time.Now().UTC()
	}

	claimBatch, err := p.normalizer.NormalizeClaimLines(ctx, in.Claims)
	if err != nil {
		return nil, err
	}
	txBatch, err := p.normalizer.NormalizeTransactions(ctx, in.Transactions)
	if err != nil {
		return nil, err
	}

	report := &Report{
		GeneratedAt:  time.Now().UTC(),
		Today:        today,
		LineItems:    claimBatch.Lines,
		Transactions: txBatch.Transactions,
	}
	report.Warnings = append(report.Warnings, claimBatch.Warnings...)
	report.Warnings = append(report.Warnings, txBatch.Warnings...)

	claims := DeduplicateClaims(claimBatch, today)

	report.ProviderVisits = p.buildProviderVisits(claims, claimBatch.Columns)
	report.PayerMix = p.buildPayerMix(claims)
	// AR aging works on a fresh copy of the full line-item view, not the
	// cutoff-filtered or deduplicated one.
	report.ARAging = p.buildARAging(claimBatch, today)
	report.MonthlyTransactions, report.Warnings = p.buildMonthlyTransactions(txBatch, report.Warnings)
	report.PaymentsByPayer = p.buildPaymentsByPayer(claimBatch.Lines)
	report.Denials = SummarizeDenials(claims)
	report.Unposted = unpostedTransactions(txBatch)

	if in.Remittance != nil {
		ledger, eraErr := NormalizeRemittance(ctx, p.logger, in.Remittance)
		if eraErr != nil {
			// The ERA table is withheld entirely; every other table
			// stays computable.
			p.logger.WarnContext(ctx, "remittance ledger skipped",
				slog.String("error", eraErr.Error()))
			report.Warnings = append(report.Warnings, eraErr.Error())
		} else {
			report.Remittance = ledger
		}
	}

	p.logger.InfoContext(ctx, "pipeline run complete",
		slog.Int("claim_lines", len(claimBatch.Lines)),
		slog.Int("claims", len(claims)),
		slog.Int("transactions", len(txBatch.Transactions)),
		slog.Int("warnings", len(report.Warnings)))

	return report, nil
}

func (p *Pipeline) buildProviderVisits(claims []domain.Claim, cols ClaimColumns) *domain.PivotTable {
	filtered := ApplyFilters(p.engine, KPIProviderVisits, claims,
		func(c domain.Claim) domain.ClaimLine { return c.ClaimLine })

	return CrossTab(filtered, ColRenderingProvider,
		func(c domain.Claim) string { return c.RenderingProvider },
		func(c domain.Claim) string { return MonthLabel(c.ClaimDate, cols.ClaimDate) },
		func(c domain.Claim) string { return c.ClaimNo },
	)
}

func (p *Pipeline) buildPayerMix(claims []domain.Claim) *domain.SummaryTable {
	counts := Aggregate(claims, ColPrimaryPayer,
		func(c domain.Claim) string { return c.PrimaryPayer },
		[]Metric[domain.Claim]{
			{Name: PayerMixClaimsColumn, Reduce: ReduceCountDistinct, Key: func(c domain.Claim) string { return c.ClaimNo }},
		},
	)
	return FoldByCount(counts, PayerMixClaimsColumn, p.policy.MinorClaimThreshold)
}

func (p *Pipeline) buildARAging(batch *ClaimBatch, today time.Time) *domain.SummaryTable {
	filtered := ApplyFilters(p.engine, KPIARAging, batch.Lines,
		func(l domain.ClaimLine) domain.ClaimLine { return l })

	day := today.Truncate(24 * time.Hour)
	bucketFor := func(l domain.ClaimLine) string {
		var days *int
		if l.ServiceDate != nil {
			d := int(day.Sub(l.ServiceDate.Truncate(24*time.Hour)).Hours() / 24)
			days = &d
		}
		return string(p.engine.AgingBucketFor(days))
	}

	order := make([]string, len(domain.AgingBucketOrder))
	for i, b := range domain.AgingBucketOrder {
		order[i] = string(b)
	}

	return Aggregate(filtered, "AgingBucket", bucketFor,
		[]Metric[domain.ClaimLine]{
			{Name: ARChargesColumn, Reduce: ReduceSum, Value: func(l domain.ClaimLine) float64 { return l.BilledCharge }},
			{Name: ARAllowedFeeColumn, Reduce: ReduceSum, Value: func(l domain.ClaimLine) float64 { return l.AllowedFee }},
			{Name: ARExpectedColumn, Reduce: ReduceSum, Value: func(l domain.ClaimLine) float64 { return l.AllowedFee }},
			{Name: ARCollectedColumn, Reduce: ReduceSum, Value: func(l domain.ClaimLine) float64 { return l.TotalPayment }},
			{Name: ARPendingColumn, Reduce: ReduceSum, Value: func(l domain.ClaimLine) float64 { return l.AllowedFee - l.TotalPayment }},
		},
		WithKeyOrder(order),
	)
}

func (p *Pipeline) buildMonthlyTransactions(batch *TransactionBatch, warnings []string) (*domain.SummaryTable, []string) {
	if !batch.HasDate {
		warnings = append(warnings,
			"transactions Date column not detected; monthly summary cannot be produced without a transaction date")
		return &domain.SummaryTable{
			KeyName: MonthlyKeyName,
			Columns: []string{MonthlyBilledColumn, MonthlyPatientColumn, MonthlyPayerColumn, MonthlyContractualColumn},
		}, warnings
	}

	monthly := Aggregate(batch.Transactions, MonthlyKeyName,
		func(t domain.Transaction) string { return MonthLabel(t.Date, true) },
		[]Metric[domain.Transaction]{
			{Name: MonthlyBilledColumn, Reduce: ReduceSum, Value: func(t domain.Transaction) float64 { return t.BilledCharges }},
			{Name: MonthlyPatientColumn, Reduce: ReduceSum, Value: func(t domain.Transaction) float64 { return t.PatientPayments }},
			{Name: MonthlyPayerColumn, Reduce: ReduceSum, Value: func(t domain.Transaction) float64 { return t.PayerPayments }},
			{Name: MonthlyContractualColumn, Reduce: ReduceSum, Value: func(t domain.Transaction) float64 { return t.ContractualAdjustments }},
		},
	)

	// Month keys aggregate as "2006-01" (which sorts chronologically) and
	// display as "Jan 2006"; unparseable months keep their raw label.
	for i := range monthly.Rows {
		if t, err := time.Parse("2006-01", monthly.Rows[i].Key); err == nil {
			monthly.Rows[i].Key = t.Format("Jan 2006")
		}
	}
	return monthly, warnings
}

func (p *Pipeline) buildPaymentsByPayer(lines []domain.ClaimLine) *domain.SummaryTable {
	filtered := ApplyFilters(p.engine, KPIPaymentsByPayer, lines,
		func(l domain.ClaimLine) domain.ClaimLine { return l })

	sums := Aggregate(filtered, ColPrimaryPayer,
		func(l domain.ClaimLine) string { return l.PrimaryPayer },
		[]Metric[domain.ClaimLine]{
			{Name: PayerPaymentsAmountColumn, Reduce: ReduceSum, Value: func(l domain.ClaimLine) float64 { return l.PayerPayment }},
		},
	)
	return FoldByQuantile(sums, PayerPaymentsAmountColumn, p.policy.MinorAmountQuantile)
}

func unpostedTransactions(batch *TransactionBatch) []domain.Transaction {
	if !batch.HasPostingStatus {
		return nil
	}
	var out []domain.Transaction
	for _, t := range batch.Transactions {
		if strings.Contains(strings.ToLower(t.PostingStatus), "unpost") {
			out = append(out, t)
		}
	}
	return out
}
