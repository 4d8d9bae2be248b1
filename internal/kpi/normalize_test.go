package kpi

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"claimskpi/pkg/contracts/domain"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"plain", "125.50", 125.50},
		{"currency symbol", "$1,250.00", 1250.00},
		{"thousands separators", "12,345,678.90", 12345678.90},
		{"parenthesized negative", "(350.25)", -350.25},
		{"currency inside parens", "($1,000.00)", -1000.00},
		{"empty", "", 0.0},
		{"garbage", "n/a", 0.0},
		{"whitespace padded", "  42.00  ", 42.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, parseAmount(tt.input), 1e-9)
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  *time.Time
	}{
		{"iso", "2025-03-15", timePtr(2025, 3, 15)},
		{"us slash", "03/15/2025", timePtr(2025, 3, 15)},
		{"us short", "3/5/2025", timePtr(2025, 3, 5)},
		{"iso with time", "2025-03-15 10:30:00", timePtr(2025, 3, 15)},
		{"empty", "", nil},
		{"garbage", "not a date", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseDate(tt.input)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want.Year(), got.Year())
			assert.Equal(t, tt.want.Month(), got.Month())
			assert.Equal(t, tt.want.Day(), got.Day())
		})
	}
}

func TestNormalizeClaimLines(t *testing.T) {
	batch := &domain.RawBatch{
		Name: "claims.csv",
		Headers: []string{
			ColClaimNo, ColRenderingProvider, ColPrimaryPayer, "Start Date of Service",
			ColClaimDate, ColStatusCode, ColStatusGroup, ColBilledCharge,
			ColTotalPayment, ColContractualAdj, ColAllowedFee, ColBalance,
		},
		Rows: [][]string{
			{"A1", "Smith, Jane", "Medicare", "2025-01-10", "2025-01-12", "SUB", "Submitted", "$200.00", "80.00", "50.00", "120.00", "70.00"},
			{"A2", "Smith, Jane", "", "bad-date", "2025-02-01", "PAT", "Patient Responsibility", "(100.00)", "0", "0", "90.00", "100.00"},
		},
	}

	n := NewNormalizer(nil)
	out, err := n.NormalizeClaimLines(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, out.Lines, 2)

	first := out.Lines[0]
	assert.Equal(t, "A1", first.ClaimNo)
	assert.Equal(t, "Medicare", first.PrimaryPayer)
	require.NotNil(t, first.ServiceDate)
	assert.Equal(t, 200.00, first.BilledCharge)
	assert.Equal(t, 70.00, first.Balance)

	second := out.Lines[1]
	assert.Equal(t, "Unknown", second.PrimaryPayer, "blank payer becomes Unknown")
	assert.Nil(t, second.ServiceDate, "unparseable date becomes nil, row is kept")
	assert.Equal(t, -100.00, second.BilledCharge)

	assert.True(t, out.Columns.ServiceDate)
	assert.True(t, out.Columns.Balance)

	// Two amount columns are absent from the upload.
	require.Len(t, out.Warnings, 1)
	assert.Contains(t, out.Warnings[0], ColPayerCharge)
	assert.Contains(t, out.Warnings[0], ColPayerPayment)
}

func TestNormalizeClaimLinesServiceDateFallback(t *testing.T) {
	batch := &domain.RawBatch{
		Name:    "claims.csv",
		Headers: []string{ColClaimNo, "DOS"},
		Rows:    [][]string{{"A1", "2025-01-10"}},
	}

	out, err := NewNormalizer(nil).NormalizeClaimLines(context.Background(), batch)
	require.NoError(t, err)
	assert.True(t, out.Columns.ServiceDate, "DOS is accepted as the service-date column")
	require.NotNil(t, out.Lines[0].ServiceDate)
}

func TestNormalizeClaimLinesNilBatch(t *testing.T) {
	_, err := NewNormalizer(nil).NormalizeClaimLines(context.Background(), nil)
	require.Error(t, err)
}

func TestNormalizeTransactions(t *testing.T) {
	batch := &domain.RawBatch{
		Name: "tx.csv",
		Headers: []string{
			ColTxDate, ColTxBilledCharges, ColTxPatientPayments, ColTxPayerPayments,
			ColTxContractualAdj, ColTxPostingStatus,
		},
		Rows: [][]string{
			{"2025-03-01", "1,000.00", "50.00", "700.00", "150.00", "Posted"},
			{"2025-03-02", "500.00", "25.00", "300.00", "75.00", "Unposted"},
		},
	}

	out, err := NewNormalizer(nil).NormalizeTransactions(context.Background(), batch)
	require.NoError(t, err)
	require.Len(t, out.Transactions, 2)
	assert.True(t, out.HasDate)
	assert.True(t, out.HasPostingStatus)
	assert.Equal(t, 1000.00, out.Transactions[0].BilledCharges)
	assert.Equal(t, "Unposted", out.Transactions[1].PostingStatus)
	require.NotEmpty(t, out.Warnings, "missing columns should warn")
}

func TestNormalizeTransactionsNoDateColumn(t *testing.T) {
	batch := &domain.RawBatch{
		Name:    "tx.csv",
		Headers: []string{ColTxBilledCharges},
		Rows:    [][]string{{"100.00"}},
	}

	out, err := NewNormalizer(nil).NormalizeTransactions(context.Background(), batch)
	require.NoError(t, err)
	assert.False(t, out.HasDate)
	assert.False(t, out.HasPostingStatus)
	require.Len(t, out.Transactions, 1, "rows are never dropped")
}

func timePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}
