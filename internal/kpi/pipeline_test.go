package kpi

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimskpi/pkg/contracts/domain"
)

func claimsFixture() *domain.RawBatch {
	return &domain.RawBatch{
		Name: "371.05.csv",
		Headers: []string{
			ColClaimNo, ColRenderingProvider, ColPrimaryPayer, "Start Date of Service",
			ColClaimDate, ColStatusCode, ColStatusGroup, ColBilledCharge,
			ColTotalPayment, ColContractualAdj, ColAllowedFee, ColBalance, ColPayerPayment,
		},
		Rows: [][]string{
			{"A1", "Smith, Jane", "Medicare", "2025-03-01", "2025-03-02", "SUB", "Submitted", "200", "80", "50", "120", "70", "60"},
			{"A1", "Smith, Jane", "Medicare", "2025-03-01", "2025-03-02", "SUB", "Submitted", "200", "80", "50", "120", "70", "60"},
			{"A2", "salah, ahmad", "Medicare", "2025-03-05", "2025-03-06", "SUB", "Submitted", "300", "0", "0", "250", "300", "0"},
			{"A3", "Smith, Jane", "Self Pay", "2025-02-10", "2025-02-11", "SUB", "Submitted", "150", "150", "0", "150", "0", "0"},
			{"A4", "Jones, Bob", "Aetna", "2024-10-01", "2024-10-02", "SUB", "Submitted", "400", "100", "80", "320", "220", "90"},
			{"A5", "Jones, Bob", "Aetna", "2025-01-15", "2025-01-16", "DEN", "Denied", "500", "0", "0", "450", "500", "0"},
		},
	}
}

func transactionsFixture() *domain.RawBatch {
	return &domain.RawBatch{
		Name: "123.07.csv",
		Headers: []string{
			ColTxDate, ColTxBilledCharges, ColTxSelfPayCharges, ColTxPayerCharges,
			ColTxTotalPayments, ColTxPatientPayments, ColTxPayerPayments,
			ColTxContractualAdj, ColTxPostingStatus,
		},
		Rows: [][]string{
			{"2025-03-01", "1000", "100", "900", "600", "50", "550", "150", "Posted"},
			{"2025-03-15", "500", "0", "500", "300", "0", "300", "80", "Unposted"},
			{"2025-02-20", "750", "50", "700", "400", "40", "360", "90", "Posted"},
		},
	}
}

func TestPipelineRun(t *testing.T) {
	pipeline := NewPipeline(nil, DefaultPolicy())
	today := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)

	report, err := pipeline.Run(context.Background(), Inputs{
		Claims:       claimsFixture(),
		Transactions: transactionsFixture(),
		Remittance:   eraBatch(),
		Today:        today,
	})
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, today, report.Today)

	// Provider visits: the excluded provider and pre-cutoff service dates
	// drop out, leaving Smith (A1, A3) and Jones (A5).
	pv := report.ProviderVisits
	require.NotNil(t, pv)
	require.NotNil(t, pv.GrandTotal())
	assert.Equal(t, 3, pv.GrandTotal().GrandTotal)
	keys := make([]string, 0, len(pv.Rows))
	for _, row := range pv.Rows {
		keys = append(keys, row.Key)
	}
	assert.NotContains(t, keys, "salah, ahmad")

	// Payer mix: five distinct claims, every payer below the fold threshold.
	pm := report.PayerMix
	require.NotNil(t, pm)
	require.Len(t, pm.Rows, 1)
	assert.Equal(t, OtherMinorLabel, pm.Rows[0].Key)
	assert.Equal(t, 5.0, pm.Rows[0].Values[0])
	pct := pm.ColumnIndex(PctColumn)
	require.GreaterOrEqual(t, pct, 0)
	assert.Equal(t, 100.0, pm.Rows[0].Values[pct])

	// AR aging: pinned bucket order plus Grand Total; the self-pay line is
	// excluded but the pre-cutoff one is not.
	ar := report.ARAging
	require.NotNil(t, ar)
	require.Len(t, ar.Rows, len(domain.AgingBucketOrder)+1)
	for i, bucket := range domain.AgingBucketOrder {
		assert.Equal(t, string(bucket), ar.Rows[i].Key)
	}
	gt := ar.GrandTotal()
	require.NotNil(t, gt)
	// A1 appears twice at line level; AR aging works on lines, not claims.
	charges := ar.ColumnIndex(ARChargesColumn)
	assert.Equal(t, 200.0+200+300+400+500, gt.Values[charges])
	pending := ar.ColumnIndex(ARPendingColumn)
	expected := ar.ColumnIndex(ARExpectedColumn)
	collected := ar.ColumnIndex(ARCollectedColumn)
	assert.InDelta(t, gt.Values[expected]-gt.Values[collected], gt.Values[pending], 1e-9)

	// Monthly transactions: keys display as "Mon YYYY" in chronological order.
	mt := report.MonthlyTransactions
	require.NotNil(t, mt)
	require.Len(t, mt.Rows, 3)
	assert.Equal(t, "Feb 2025", mt.Rows[0].Key)
	assert.Equal(t, "Mar 2025", mt.Rows[1].Key)
	billed := mt.ColumnIndex(MonthlyBilledColumn)
	assert.Equal(t, 1500.0, mt.Rows[1].Values[billed])

	// Payments by payer: excluded provider lines drop before summing.
	pbp := report.PaymentsByPayer
	require.NotNil(t, pbp)
	var payerTotal float64
	amount := pbp.ColumnIndex(PayerPaymentsAmountColumn)
	for _, row := range pbp.Rows {
		payerTotal += row.Values[amount]
	}
	assert.InDelta(t, 60.0+60+0+90+0, payerTotal, 1e-9)

	// Remittance ledger present with its Grand Total entry.
	require.NotNil(t, report.Remittance)
	assert.Equal(t, domain.GrandTotalLabel, report.Remittance.Entries[len(report.Remittance.Entries)-1].Payer)

	// Denials.
	require.NotNil(t, report.Denials)
	require.Len(t, report.Denials.Rows, 1)
	assert.Equal(t, "Denied", report.Denials.Rows[0].Key)
	assert.Equal(t, 1.0, report.Denials.Rows[0].Values[0])

	// Unposted transactions.
	require.Len(t, report.Unposted, 1)
	assert.Equal(t, "Unposted", report.Unposted[0].PostingStatus)
}

func TestPipelineRunRemittanceSchemaFailureIsNonFatal(t *testing.T) {
	badERA := &domain.RawBatch{
		Name:    "era.csv",
		Headers: []string{ColERAPayer, ColERAAmount},
		Rows:    [][]string{{"Aetna", "100"}},
	}

	pipeline := NewPipeline(nil, DefaultPolicy())
	report, err := pipeline.Run(context.Background(), Inputs{
		Claims:       claimsFixture(),
		Transactions: transactionsFixture(),
		Remittance:   badERA,
		Today:        time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err, "a bad ERA upload must not sink the rest of the report")
	assert.Nil(t, report.Remittance)
	assert.NotNil(t, report.ProviderVisits)
	assert.NotNil(t, report.ARAging)

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "missing required columns") {
			found = true
		}
	}
	assert.True(t, found, "the schema failure surfaces as a warning")
}

func TestPipelineRunMissingTransactionDate(t *testing.T) {
	tx := &domain.RawBatch{
		Name:    "123.07.csv",
		Headers: []string{ColTxBilledCharges},
		Rows:    [][]string{{"100"}},
	}

	pipeline := NewPipeline(nil, DefaultPolicy())
	report, err := pipeline.Run(context.Background(), Inputs{
		Claims:       claimsFixture(),
		Transactions: tx,
		Today:        time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Empty(t, report.MonthlyTransactions.Rows, "no monthly rows without a date column")

	found := false
	for _, w := range report.Warnings {
		if strings.Contains(w, "monthly summary") {
			found = true
		}
	}
	assert.True(t, found)
}

func TestPipelineRunRequiredBatches(t *testing.T) {
	pipeline := NewPipeline(nil, DefaultPolicy())

	_, err := pipeline.Run(context.Background(), Inputs{Transactions: transactionsFixture()})
	require.Error(t, err)

	_, err = pipeline.Run(context.Background(), Inputs{Claims: claimsFixture()})
	require.Error(t, err)
}
