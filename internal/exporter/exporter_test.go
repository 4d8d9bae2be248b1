package exporter

import (
	"bytes"
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"claimskpi/internal/kpi"
	"claimskpi/pkg/contracts/domain"
)

func TestFormatMetric(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{100, "100"},
		{0, "0"},
		{-12, "-12"},
		{81.97, "81.97"},
		{0.5, "0.50"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatMetric(tt.in))
	}
}

func sampleReport() *kpi.Report {
	return &kpi.Report{
		GeneratedAt: time.Date(2025, 3, 31, 12, 0, 0, 0, time.UTC),
		Today:       time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC),
		ProviderVisits: &domain.PivotTable{
			KeyName: "Rendering Provider",
			Columns: []string{"2025-03"},
			Rows: []domain.PivotRow{
				{Key: "Smith, Jane", Cells: []int{2}, GrandTotal: 2, Share: 100},
				{Key: domain.GrandTotalLabel, Cells: []int{2}, GrandTotal: 2, Share: 100},
			},
		},
		PayerMix: &domain.SummaryTable{
			KeyName: "Primary Payer",
			Columns: []string{"Claims", "Pct"},
			Rows: []domain.SummaryRow{
				{Key: "Medicare", Values: []float64{12, 60}},
				{Key: "Other minor payers", Values: []float64{8, 40}},
			},
		},
		ARAging: &domain.SummaryTable{
			KeyName: "AgingBucket",
			Columns: []string{"Charges"},
			Rows: []domain.SummaryRow{
				{Key: string(domain.Aging0To30), Values: []float64{1000}},
				{Key: domain.GrandTotalLabel, Values: []float64{1000}},
			},
		},
		MonthlyTransactions: &domain.SummaryTable{
			KeyName: "TRANSACTION MONTH",
			Columns: []string{"BILLED_CHARGES"},
			Rows: []domain.SummaryRow{
				{Key: "Mar 2025", Values: []float64{1500}},
				{Key: domain.GrandTotalLabel, Values: []float64{1500}},
			},
		},
		PaymentsByPayer: &domain.SummaryTable{
			KeyName: "Primary Payer",
			Columns: []string{"Payer Payment"},
			Rows: []domain.SummaryRow{
				{Key: "Medicare", Values: []float64{210.50}},
			},
		},
		Remittance: &domain.RemittanceLedger{
			Entries: []domain.RemittanceEntry{
				{Payer: "Aetna", Method: "EFT", Date: "2025-03-15", CheckNumber: "000123", Amount: 1000},
				{Payer: domain.GrandTotalLabel, Amount: 1000},
			},
		},
		Denials: &domain.SummaryTable{
			KeyName: "Claim Status Group Name",
			Columns: []string{"Count", "ARBalance"},
			Rows: []domain.SummaryRow{
				{Key: "Denied", Values: []float64{1, 500}},
			},
		},
		LineItems: []domain.ClaimLine{
			{ClaimNo: "A1", RenderingProvider: "Smith, Jane", PrimaryPayer: "Medicare"},
		},
		Transactions: []domain.Transaction{
			{BilledCharges: 1500, PostingStatus: "Posted"},
		},
	}
}

func TestCSVWriterWriteReport(t *testing.T) {
	outDir := t.TempDir()
	w := NewCSVWriter(nil, outDir)

	require.NoError(t, w.WriteReport(context.Background(), sampleReport()))

	for _, name := range []string{
		"provider_visits.csv", "payer_mix.csv", "ar_aging.csv",
		"monthly_transactions.csv", "payments_by_payer.csv",
		"denials.csv", "era_payments.csv",
	} {
		path := filepath.Join(outDir, name)
		data, err := os.ReadFile(path)
		require.NoError(t, err, name)
		assert.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}), "%s must open cleanly in Excel", name)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "payer_mix.csv"))
	require.NoError(t, err)
	reader := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, []byte{0xEF, 0xBB, 0xBF})))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"Primary Payer", "Claims", "Pct"}, records[0])
	assert.Equal(t, []string{"Medicare", "12", "60"}, records[1])
}

func TestCSVWriterSkipsNilTables(t *testing.T) {
	outDir := t.TempDir()
	report := sampleReport()
	report.Remittance = nil

	require.NoError(t, NewCSVWriter(nil, outDir).WriteReport(context.Background(), report))
	_, err := os.Stat(filepath.Join(outDir, "era_payments.csv"))
	assert.True(t, os.IsNotExist(err))
}

func TestWorkbookWriter(t *testing.T) {
	var buf bytes.Buffer
	w := NewWorkbookWriter(nil)
	require.NoError(t, w.Write(context.Background(), &buf, sampleReport()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{
		"Provider_Visits", "Payer_Mix", "AR_Aging", "Monthly_Transactions",
		"Payments_By_Payer", "ERA", "Denials", "raw_371_filtered", "raw_123",
	} {
		assert.Contains(t, sheets, want)
	}
	assert.NotContains(t, sheets, "Sheet1")

	rows, err := f.GetRows("Payer_Mix")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, "Primary Payer", rows[0][0])
}

func TestWorkbookWriterWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "weekly_kpis.xlsx")
	w := NewWorkbookWriter(nil)
	require.NoError(t, w.WriteFile(context.Background(), path, sampleReport()))

	_, err := os.Stat(path)
	require.NoError(t, err)
}
