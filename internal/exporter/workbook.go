package exporter

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"claimskpi/internal/kpi"
	"claimskpi/pkg/contracts/domain"
)

// Workbook sheet names.
const (
	SheetProviderVisits = "Provider_Visits"
	SheetPayerMix       = "Payer_Mix"
	SheetARAging        = "AR_Aging"
	SheetMonthlyTx      = "Monthly_Transactions"
	SheetPayments       = "Payments_By_Payer"
	SheetERA            = "ERA"
	SheetDenials        = "Denials"
	SheetRawClaims      = "raw_371_filtered"
	SheetRawTx          = "raw_123"
)

// WorkbookWriter exports a finished report as a single Excel KPI workbook.
type WorkbookWriter struct {
	logger *slog.Logger
}

// NewWorkbookWriter creates a workbook writer.
func NewWorkbookWriter(logger *slog.Logger) *WorkbookWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookWriter{logger: logger}
}

// WriteFile writes the workbook to the given path, creating directories as
// needed.
func (w *WorkbookWriter) WriteFile(ctx context.Context, path string, report *kpi.Report) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create workbook file: %w", err)
	}
	defer file.Close()

	if err := w.Write(ctx, file, report); err != nil {
		return err
	}

	w.logger.InfoContext(ctx, "wrote KPI workbook", slog.String("path", path))
	return nil
}

// Write streams the workbook to an arbitrary writer (used by the HTTP
// download endpoint).
func (w *WorkbookWriter) Write(ctx context.Context, out io.Writer, report *kpi.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := w.addPivotSheet(f, SheetProviderVisits, report.ProviderVisits); err != nil {
		return err
	}
	summaries := []struct {
		sheet string
		table *domain.SummaryTable
	}{
		{SheetPayerMix, report.PayerMix},
		{SheetARAging, report.ARAging},
		{SheetMonthlyTx, report.MonthlyTransactions},
		{SheetPayments, report.PaymentsByPayer},
		{SheetDenials, report.Denials},
	}
	for _, s := range summaries {
		if s.table == nil {
			continue
		}
		if err := w.addSummarySheet(f, s.sheet, s.table); err != nil {
			return err
		}
	}
	if report.Remittance != nil {
		if err := w.addRemittanceSheet(f, report.Remittance); err != nil {
			return err
		}
	}
	if err := w.addRawClaimsSheet(f, report.LineItems); err != nil {
		return err
	}
	if err := w.addRawTransactionsSheet(f, report.Transactions); err != nil {
		return err
	}

	// excelize seeds new files with "Sheet1"; drop it once real sheets
	// exist.
	if idx, err := f.GetSheetIndex(SheetProviderVisits); err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	f.DeleteSheet("Sheet1")

	if err := f.Write(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (w *WorkbookWriter) addPivotSheet(f *excelize.File, sheet string, t *domain.PivotTable) error {
	if t == nil {
		return nil
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	headers := append([]interface{}{t.KeyName}, toAny(t.Columns)...)
	headers = append(headers, domain.GrandTotalLabel, "% Share")
	if err := setRow(f, sheet, 1, headers); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cells := make([]interface{}, 0, len(row.Cells)+3)
		cells = append(cells, row.Key)
		for _, c := range row.Cells {
			cells = append(cells, c)
		}
		cells = append(cells, row.GrandTotal, row.Share)
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) addSummarySheet(f *excelize.File, sheet string, t *domain.SummaryTable) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	if err := setRow(f, sheet, 1, append([]interface{}{t.KeyName}, toAny(t.Columns)...)); err != nil {
		return err
	}
	for i, row := range t.Rows {
		cells := make([]interface{}, 0, len(row.Values)+1)
		cells = append(cells, row.Key)
		for _, v := range row.Values {
			cells = append(cells, v)
		}
		if err := setRow(f, sheet, i+2, cells); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) addRemittanceSheet(f *excelize.File, ledger *domain.RemittanceLedger) error {
	if _, err := f.NewSheet(SheetERA); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetERA, err)
	}
	if err := setRow(f, SheetERA, 1, []interface{}{"PAYER", "METHOD", "DATE", "CHECK/EFT #", "AMOUNT"}); err != nil {
		return err
	}
	for i, e := range ledger.Entries {
		if err := setRow(f, SheetERA, i+2, []interface{}{e.Payer, e.Method, e.Date, e.CheckNumber, e.Amount}); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) addRawClaimsSheet(f *excelize.File, lines []domain.ClaimLine) error {
	if _, err := f.NewSheet(SheetRawClaims); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetRawClaims, err)
	}
	headers := []interface{}{
		"Claim No", "Rendering Provider", "Primary Payer", "Start Date of Service",
		"Claim Date", "Claim Status Code", "Claim Status Group Name", "Billed Charge",
		"Payer Charge", "Total Payment", "Payer Payment", "Patient Payment",
		"Contractual Adjustment", "Fee Schedule Allowed Fee", "Total(Balance)",
	}
	if err := setRow(f, SheetRawClaims, 1, headers); err != nil {
		return err
	}
	for i, l := range lines {
		row := []interface{}{
			l.ClaimNo, l.RenderingProvider, l.PrimaryPayer,
			formatDate(l.ServiceDate), formatDate(l.ClaimDate),
			l.StatusCode, l.StatusGroupName, l.BilledCharge, l.PayerCharge,
			l.TotalPayment, l.PayerPayment, l.PatientPayment,
			l.ContractualAdjustment, l.AllowedFee, l.Balance,
		}
		if err := setRow(f, SheetRawClaims, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func (w *WorkbookWriter) addRawTransactionsSheet(f *excelize.File, txs []domain.Transaction) error {
	if _, err := f.NewSheet(SheetRawTx); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", SheetRawTx, err)
	}
	headers := []interface{}{
		"Date", "Billed Charges", "Self Pay Charges", "Payer Charges",
		"Total Payments", "Patient Payments", "Payer Payments",
		"Contractual Adjustments", "Posting Status",
	}
	if err := setRow(f, SheetRawTx, 1, headers); err != nil {
		return err
	}
	for i, t := range txs {
		row := []interface{}{
			formatDate(t.Date), t.BilledCharges, t.SelfPayCharges, t.PayerCharges,
			t.TotalPayments, t.PatientPayments, t.PayerPayments,
			t.ContractualAdjustments, t.PostingStatus,
		}
		if err := setRow(f, SheetRawTx, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d of %s: %w", rowNum, sheet, err)
	}
	return nil
}

func toAny(ss []string) []interface{} {
	out := make([]interface{}, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
